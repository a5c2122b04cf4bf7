// Package sink provides Targets a stages.Writer writes into.
package sink

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/andriiyaremenko/stages"
	"github.com/spf13/afero"
)

var _ stages.Target = new(File)

var (
	errEmptyPath   = errors.New("path is empty")
	errInvalidPath = errors.New("path contains a NUL byte")
	errIsDir       = errors.New("path is a directory")
)

// File opens files on an afero.Fs.
type File struct {
	fs   afero.Fs
	perm os.FileMode
}

// NewFile returns a File target on fs. A nil fs means the OS file system.
func NewFile(fs afero.Fs) *File {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &File{fs: fs, perm: 0o644}
}

// Fs returns the file system the target opens files on.
func (f *File) Fs() afero.Fs { return f.fs }

// Open opens path for writing, creating it when missing.
// Every failure is a *stages.TargetError.
func (f *File) Open(path string, mode stages.OpenMode) (stages.TargetHandle, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return nil, &stages.TargetError{Path: path, Err: errEmptyPath}
	case strings.ContainsRune(path, 0):
		return nil, &stages.TargetError{Path: path, Err: errInvalidPath}
	}

	if ok, _ := afero.IsDir(f.fs, path); ok {
		return nil, &stages.TargetError{Path: path, Err: errIsDir}
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if mode == stages.Truncate {
		flag = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	file, err := f.fs.OpenFile(path, flag, f.perm)
	if err != nil {
		return nil, &stages.TargetError{Path: path, Err: err}
	}

	return &handle{file: file, w: bufio.NewWriter(file)}, nil
}

// handle buffers writes to an open file.
// The first write error sticks: later writes are refused and Close reports it.
type handle struct {
	mu   sync.Mutex
	file afero.File
	w    *bufio.Writer
	err  error
	once sync.Once
}

func (h *handle) TryWrite(v any) bool {
	return h.write(func() error {
		_, err := fmt.Fprint(h.w, v)
		return err
	})
}

func (h *handle) TryWriteLine(v any) bool {
	return h.write(func() error {
		_, err := fmt.Fprintln(h.w, v)
		return err
	})
}

func (h *handle) write(fn func() error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return false
	}

	h.err = fn()

	return h.err == nil
}

func (h *handle) Close() error {
	var err error
	h.once.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if h.err == nil {
			h.err = h.w.Flush()
		}

		err = errors.Join(h.err, h.file.Close())
		if h.err == nil {
			h.err = os.ErrClosed
		}
	})

	return err
}
