// Package states saves and restores core state blobs. Blobs are
// opaque: the store wraps them in a small envelope so that
// truncated or foreign files are rejected before they reach the
// core, and otherwise hands them back byte for byte.
package states

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/thelolagemann/nesfront/pkg/emulator"
	"github.com/thelolagemann/nesfront/pkg/log"
)

const (
	// DefaultDir is the directory state files are kept in.
	DefaultDir = "states"
	// Ext is the extension given to state files.
	Ext = ".state"
)

// Snapshotter is implemented by a session able to produce the
// state blob of its core.
type Snapshotter interface {
	Snapshot() ([]byte, error)
}

// Restorer is implemented by a session able to hand a state
// blob to its core.
type Restorer interface {
	Restore(blob []byte) error
}

// Store reads and writes state files in a directory.
type Store struct {
	fs       afero.Fs
	dir      string
	compress bool
	log      log.Logger
}

// Opt configures a Store.
type Opt func(s *Store)

// WithFs sets the filesystem of the store.
func WithFs(fs afero.Fs) Opt {
	return func(s *Store) {
		s.fs = fs
	}
}

// Compress sets whether payloads are brotli compressed.
func Compress(compress bool) Opt {
	return func(s *Store) {
		s.compress = compress
	}
}

// WithLogger sets the logger of the store.
func WithLogger(l log.Logger) Opt {
	return func(s *Store) {
		s.log = l
	}
}

// NewStore returns a Store keeping its files in dir, creating
// the directory if it doesn't exist. An empty dir uses
// DefaultDir.
func NewStore(dir string, opts ...Opt) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	s := &Store{
		fs:  afero.NewOsFs(),
		dir: dir,
		log: log.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if ok, _ := afero.DirExists(s.fs, dir); !ok {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: creating %s: %w", emulator.ErrIO, dir, err)
		}
	}
	return s, nil
}

// Dir returns the default directory of the store.
func (s *Store) Dir() string {
	return s.dir
}

// Path resolves name to a file path. A bare name is placed in
// the store's directory, and a name without an extension gets
// Ext. Names with a directory component are used as given.
func (s *Store) Path(name string) string {
	if filepath.Ext(name) == "" {
		name += Ext
	}
	if filepath.Base(name) == name {
		return filepath.Join(s.dir, name)
	}
	return name
}

// Save returns the state blob of the session's core, unchanged.
func (s *Store) Save(session Snapshotter) ([]byte, error) {
	return session.Snapshot()
}

// Restore hands blob to the session's core, unchanged.
func (s *Store) Restore(session Restorer, blob []byte) error {
	return session.Restore(blob)
}

// Persist writes blob to dest. The envelope is written to a
// temporary file next to dest and renamed over it once
// complete, so an interrupted write never leaves a truncated
// state behind.
func (s *Store) Persist(blob []byte, dest string) error {
	path := s.Path(dest)
	data, err := Encode(blob, s.compress)
	if err != nil {
		return fmt.Errorf("%w: encoding state: %w", emulator.ErrIO, err)
	}

	dir := filepath.Dir(path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", emulator.ErrIO, err)
	}
	f, err := afero.TempFile(s.fs, dir, filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", emulator.ErrIO, err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		s.fs.Remove(tmp)
		return fmt.Errorf("%w: writing %s: %w", emulator.ErrIO, tmp, err)
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("%w: %w", emulator.ErrIO, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("%w: %w", emulator.ErrIO, err)
	}

	s.log.Debugf("wrote %d byte state to %s", len(data), path)
	return nil
}

// Load reads the state file at src and returns the blob it
// holds.
func (s *Store) Load(src string) ([]byte, error) {
	path := s.Path(src)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", emulator.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %w", emulator.ErrIO, err)
	}

	blob, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.log.Debugf("read %d byte state from %s", len(blob), path)
	return blob, nil
}

// List returns the state files in the store's directory, the
// most recently modified first.
func (s *Store) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", emulator.ErrIO, err)
	}

	files := entries[:0]
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), Ext) {
			files = append(files, e)
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime().After(files[j].ModTime())
	})

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Join(s.dir, f.Name())
	}
	return names, nil
}
