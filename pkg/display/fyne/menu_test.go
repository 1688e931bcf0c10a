package fyne

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

func TestNewCustomizedMenuItem(t *testing.T) {
	tests := []struct {
		name     string
		opts     []MenuOption
		disabled bool
		checked  bool
	}{
		{"plain", nil, false, false},
		{"gated open", []MenuOption{Gated(true)}, false, false},
		{"gated closed", []MenuOption{Gated(false)}, true, false},
		{"checked", []MenuOption{Checked(true)}, false, true},
		{"gated and checked", []MenuOption{Gated(false), Checked(true)}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			m := NewCustomizedMenuItem("Item", func() { called = true }, tt.opts...)
			if m.Disabled != tt.disabled || m.Checked != tt.checked {
				t.Errorf("disabled = %v checked = %v, want %v %v", m.Disabled, m.Checked, tt.disabled, tt.checked)
			}
			m.Action()
			if !called {
				t.Error("action not called")
			}
		})
	}
}

func TestDefaultTheme(t *testing.T) {
	th := defaultTheme{}
	if th.Color(theme.ColorNamePrimary, theme.VariantLight) != primary {
		t.Error("expected accent as primary colour")
	}
	if th.Size(theme.SizeNameText) != theme.DefaultTheme().Size(theme.SizeNameText) {
		t.Error("expected default text size")
	}
	var _ fyne.Theme = th
}
