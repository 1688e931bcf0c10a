// Command statetool inspects the save state files written by
// nesfront.
//
//	statetool info <file>          print the envelope header
//	statetool unwrap <file> <out>  write the raw core state
//	statetool list [dir]           list the states in dir
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/thelolagemann/nesfront/internal/states"
)

var errUsage = errors.New("usage: statetool info <file> | unwrap <file> <out> | list [dir]")

func main() {
	if err := run(afero.NewOsFs(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(fs afero.Fs, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "info":
		if len(args) != 2 {
			return errUsage
		}
		return info(fs, args[1], w)
	case "unwrap":
		if len(args) != 3 {
			return errUsage
		}
		return unwrap(fs, args[1], args[2], w)
	case "list":
		dir := states.DefaultDir
		if len(args) > 1 {
			dir = args[1]
		}
		return list(fs, dir, w)
	}
	return errUsage
}

func info(fs afero.Fs, path string, w io.Writer) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	h, payload, err := states.ReadHeader(data)
	if err != nil {
		return err
	}
	blob, err := states.Decode(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n", h)
	fmt.Fprintf(w, "compressed: %v\n", h.Compressed())
	fmt.Fprintf(w, "payload:    %d bytes\n", len(payload))
	fmt.Fprintf(w, "state:      %d bytes\n", len(blob))
	fmt.Fprintf(w, "checksum:   ok\n")
	return nil
}

func unwrap(fs afero.Fs, path, out string, w io.Writer) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return err
	}
	blob, err := states.Decode(data)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, out, blob, 0644); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %d bytes to %s\n", len(blob), out)
	return nil
}

func list(fs afero.Fs, dir string, w io.Writer) error {
	if ok, err := afero.DirExists(fs, dir); err != nil || !ok {
		return fmt.Errorf("no states in %s", dir)
	}
	store, err := states.NewStore(dir, states.WithFs(fs))
	if err != nil {
		return err
	}
	names, err := store.List()
	if err != nil {
		return err
	}
	for _, path := range names {
		fi, err := fs.Stat(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-24s %8d  %s\n", filepath.Base(path), fi.Size(), fi.ModTime().Format("2006-01-02 15:04:05"))
	}
	return nil
}
