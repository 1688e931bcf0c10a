// Package bits provides bit operations on unsigned values of
// any width.
package bits

import "golang.org/x/exp/constraints"

// Set returns b with bit i set.
func Set[T constraints.Unsigned](b T, i uint8) T {
	return b | (1 << i)
}

// Reset returns b with bit i cleared.
func Reset[T constraints.Unsigned](b T, i uint8) T {
	return b &^ (1 << i)
}

// Test reports whether bit i of b is set.
func Test[T constraints.Unsigned](b T, i uint8) bool {
	return (b>>i)&1 != 0
}

