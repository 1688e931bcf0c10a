package fyne

import "fyne.io/fyne/v2"

// MenuOption is used to customize the behaviour and properties of a [fyne.MenuItem]
type MenuOption func(*fyne.MenuItem)

// Checked marks the [fyne.MenuItem] as checked when b is true.
func Checked(b bool) MenuOption {
	return func(item *fyne.MenuItem) {
		item.Checked = b
	}
}

// Gated disables the [fyne.MenuItem] from being interactable when b is false.
func Gated(b bool) MenuOption {
	return func(item *fyne.MenuItem) {
		item.Disabled = !b
	}
}

// NewCustomizedMenuItem creates a [fyne.MenuItem] with the provided label and fn, and applies
// all of the MenuOption(s) to it.
func NewCustomizedMenuItem(label string, fn func(), opts ...MenuOption) *fyne.MenuItem {
	m := fyne.NewMenuItem(label, fn)
	for _, o := range opts {
		o(m)
	}
	return m
}
