//go:build !test

package fyne

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"github.com/thelolagemann/nesfront/pkg/display"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/utils"
)

// mainMenu builds the menu for the current status of the
// session.
func (d *Driver) mainMenu() *fyne.MainMenu {
	active := d.status.Active()

	openROM := fyne.NewMenuItem("Open ROM...", func() {
		path, err := utils.AskForFile("Open ROM", ".", "NES ROMs", "nes", "Archives", "zip,7z,gz,rar")
		if err != nil {
			if !utils.IsCancelled(err) {
				dialog.ShowError(err, d.window)
			}
			return
		}
		d.send(emulator.NewCommand(emulator.CommandLoadROM, path))
	})
	saveState := NewCustomizedMenuItem("Save State...", func() {
		path, err := utils.AskForSave("Save State", "states", "States", "state")
		if err != nil {
			if !utils.IsCancelled(err) {
				dialog.ShowError(err, d.window)
			}
			return
		}
		if resp := d.send(emulator.NewCommand(emulator.CommandSaveState, path)); resp.Error == nil {
			d.app.SendNotification(fyne.NewNotification("nesfront", fmt.Sprintf("Saved state to %s", resp.Data)))
		}
	}, Gated(active))
	loadState := NewCustomizedMenuItem("Load State...", func() {
		path, err := utils.AskForFile("Load State", "states", "States", "state")
		if err != nil {
			if !utils.IsCancelled(err) {
				dialog.ShowError(err, d.window)
			}
			return
		}
		d.send(emulator.NewCommand(emulator.CommandLoadState, path))
	}, Gated(active))
	copyFrame := NewCustomizedMenuItem("Copy Frame", func() {
		if err := utils.CopyImage(d.lastFrame()); err != nil {
			dialog.ShowError(err, d.window)
		}
	}, Gated(active))
	saveFrame := NewCustomizedMenuItem("Save Frame...", func() {
		if err := utils.SaveImage(d.lastFrame()); err != nil && !utils.IsCancelled(err) {
			dialog.ShowError(err, d.window)
		}
	}, Gated(active))
	exit := fyne.NewMenuItem("Exit", func() {
		// the session is closed before the window goes
		d.send(display.Close)
		d.app.Quit()
	})
	exit.IsQuit = true

	fileMenu := fyne.NewMenu("File",
		openROM,
		fyne.NewMenuItemSeparator(),
		saveState,
		loadState,
		fyne.NewMenuItemSeparator(),
		copyFrame,
		saveFrame,
		fyne.NewMenuItemSeparator(),
		exit,
	)

	emuMenu := fyne.NewMenu("Emulation",
		NewCustomizedMenuItem("Pause", func() { d.send(display.Pause) },
			Gated(d.status == emulator.Running)),
		NewCustomizedMenuItem("Resume", func() { d.send(display.Resume) },
			Gated(d.status == emulator.Paused)),
		NewCustomizedMenuItem("Paused", func() { d.send(display.TogglePause) },
			Gated(active), Checked(d.status == emulator.Paused)),
		fyne.NewMenuItemSeparator(),
		NewCustomizedMenuItem("Reset", func() { d.send(display.Reset) }, Gated(active)),
		NewCustomizedMenuItem("Close ROM", func() { d.send(display.Close) }, Gated(active)),
		fyne.NewMenuItemSeparator(),
		NewCustomizedMenuItem("Quick Save (F5)", func() { d.send(display.QuickSave) }, Gated(active)),
		NewCustomizedMenuItem("Quick Load (F9)", func() { d.send(display.QuickLoad) }, Gated(active)),
	)

	debugMenu := fyne.NewMenu("Debug",
		fyne.NewMenuItem("Performance", d.openPerformance),
	)

	return fyne.NewMainMenu(fileMenu, emuMenu, debugMenu)
}
