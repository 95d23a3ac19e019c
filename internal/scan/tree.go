package scan

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

var ErrNotDirectory = errors.New("scan: not a directory")

// Lister enumerates the regular files and subdirectories of a directory.
type Lister interface {
	Entries(dir string) (files, dirs []string, err error)
}

// Opener yields the bytes of a single file.
type Opener interface {
	Open(name string) (io.ReadCloser, error)
}

// Source is everything the scanners need from a filesystem.
type Source interface {
	Lister
	Opener
}

// Tree is a Source backed by an afero filesystem.
type Tree struct {
	fs afero.Fs
}

var _ Source = (*Tree)(nil)

// NewTree wraps fs.
func NewTree(fs afero.Fs) *Tree {
	return &Tree{fs: fs}
}

// NewOSTree is a Tree over the host filesystem rooted at dir. A relative dir
// is resolved against the working directory.
func NewOSTree(dir string) (*Tree, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("scan: resolve %s: %w", dir, err)
	}
	return NewTree(afero.NewBasePathFs(afero.NewOsFs(), abs)), nil
}

// Entries returns the names (not paths) of the files and subdirectories of
// dir, each sorted.
func (t *Tree) Entries(dir string) (files, dirs []string, err error) {
	info, err := t.fs.Stat(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("scan: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	infos, err := afero.ReadDir(t.fs, dir)
	if err != nil {
		return nil, nil, fmt.Errorf("scan: read %s: %w", dir, err)
	}
	for _, fi := range infos {
		switch {
		case fi.IsDir():
			dirs = append(dirs, fi.Name())
		case fi.Mode().IsRegular():
			files = append(files, fi.Name())
		}
	}
	sort.Strings(files)
	sort.Strings(dirs)
	return files, dirs, nil
}

// Open opens name for reading.
func (t *Tree) Open(name string) (io.ReadCloser, error) {
	f, err := t.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("scan: open %s: %w", name, err)
	}
	return f, nil
}

func readAll(o Opener, name string) (string, error) {
	rc, err := o.Open(name)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	buf, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("scan: read %s: %w", name, err)
	}
	return string(buf), nil
}

func join(dir, name string) string {
	return path.Join(dir, name)
}
