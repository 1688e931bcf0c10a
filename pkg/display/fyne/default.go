package fyne

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	_ fyne.Theme = defaultTheme{}

	primary    = color.NRGBA{0xff, 0x78, 0x00, 0xff}
	background = color.NRGBA{0x24, 0x1f, 0x31, 0xff}
)

// defaultTheme is the dark fyne theme with the nesfront accent
// colour.
type defaultTheme struct{}

func (defaultTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return primary
	case theme.ColorNameBackground:
		return background
	}
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}

func (defaultTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (defaultTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (defaultTheme) Size(name fyne.ThemeSizeName) float32 {
	return theme.DefaultTheme().Size(name)
}
