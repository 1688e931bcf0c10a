// Package ebiten provides a desktop display driver built on
// ebitengine, polling the keyboard once per tick.
package ebiten
