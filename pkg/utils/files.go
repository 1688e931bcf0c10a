package utils

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
)

// MaxFileSize is the largest file LoadFile will return.
const MaxFileSize = 8 * 1024 * 1024

// ROMExtensions are the extensions looked for inside archives.
var ROMExtensions = []string{".nes"}

var (
	// ErrEmptyArchive is returned when an archive holds no
	// regular files.
	ErrEmptyArchive = errors.New("archive contains no files")
	// ErrFileTooLarge is returned when a file is larger than
	// MaxFileSize.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)

var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte("Rar!")
)

// LoadFile loads the given file and performs decompression if
// necessary. Archives are recognised by their magic bytes, and
// the first file inside with one of the ROMExtensions is
// returned, or the first file when none match.
func LoadFile(filename string) ([]byte, error) {
	// open the file
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// read the file into a byte slice
	data, err := limitedRead(f)
	if err != nil {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(data, magicZIP), bytes.HasPrefix(data, magicZIPEnd):
		return fromZip(data)
	case bytes.HasPrefix(data, magic7z):
		return from7z(data)
	case bytes.HasPrefix(data, magicGzip):
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		return limitedRead(gr)
	case bytes.HasPrefix(data, magicRAR):
		return fromRar(data)
	default:
		// return the data as is
		return data, nil
	}
}

func fromZip(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	name, ok := pickFile(names)
	if !ok {
		return nil, ErrEmptyArchive
	}

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return limitedRead(rc)
	}
	return nil, ErrEmptyArchive
}

func from7z(data []byte) ([]byte, error) {
	r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	name, ok := pickFile(names)
	if !ok {
		return nil, ErrEmptyArchive
	}

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return limitedRead(rc)
	}
	return nil, ErrEmptyArchive
}

// fromRar makes a single pass over the archive, as rar entries
// can only be read in order.
func fromRar(data []byte) ([]byte, error) {
	r, err := rardecode.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var first []byte
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.IsDir {
			continue
		}

		if isROMFile(header.Name) {
			return limitedRead(r)
		}
		if first == nil {
			if first, err = limitedRead(r); err != nil {
				return nil, err
			}
		}
	}

	if first == nil {
		return nil, ErrEmptyArchive
	}
	return first, nil
}

// pickFile returns the first name with a ROM extension, or the
// first name.
func pickFile(names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	for _, n := range names {
		if isROMFile(n) {
			return n, true
		}
	}
	return names[0], true
}

func isROMFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ROMExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func limitedRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, MaxFileSize)
	}
	return data, nil
}
