package bits

import "testing"

func TestBits(t *testing.T) {
	tests := []struct {
		name string
		in   uint8
		bit  uint8
		set  uint8
		rst  uint8
	}{
		{"low", 0b0000_0000, 0, 0b0000_0001, 0b0000_0000},
		{"high", 0b0000_0001, 7, 0b1000_0001, 0b0000_0001},
		{"already set", 0b0001_0000, 4, 0b0001_0000, 0b0000_0000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Set(tt.in, tt.bit); got != tt.set {
				t.Errorf("Set = %08b, want %08b", got, tt.set)
			}
			if got := Reset(tt.in, tt.bit); got != tt.rst {
				t.Errorf("Reset = %08b, want %08b", got, tt.rst)
			}
			if !Test(Set(tt.in, tt.bit), tt.bit) || Test(Reset(tt.in, tt.bit), tt.bit) {
				t.Error("Test disagrees with Set/Reset")
			}
		})
	}
}
