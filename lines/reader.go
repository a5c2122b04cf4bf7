// Package lines reads text files line by line as a sequence a stages.Producer can consume.
package lines

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"

	"github.com/spf13/afero"
)

var _ io.Closer = new(Reader)

// Reader iterates the lines of one or more files in the order given.
// Line terminators are stripped.
type Reader struct {
	fs    afero.Fs
	paths []string

	mu      sync.Mutex
	file    afero.File
	current int
	err     error
}

// NewReader returns a Reader of paths on fs. A nil fs means the OS file system.
func NewReader(fs afero.Fs, paths ...string) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &Reader{fs: fs, paths: slices.Clone(paths)}
}

// Paths returns the files the Reader reads, in order.
func (r *Reader) Paths() []string { return slices.Clone(r.paths) }

// Current returns how many files have been opened by the ongoing or last iteration.
func (r *Reader) Current() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

// Reading reports whether a file is open.
func (r *Reader) Reading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.file != nil
}

// Err returns the error that stopped the last iteration, if any.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.err
}

// Lines returns a sequence of every line of every file.
// Each iteration starts again from the first file.
// An open or read error ends the sequence and is reported by Err.
func (r *Reader) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		r.mu.Lock()
		r.current, r.err = 0, nil
		r.mu.Unlock()

		for _, path := range r.paths {
			if !r.readFile(path, yield) {
				return
			}
		}
	}
}

// readFile yields the lines of path and reports whether iteration should go on.
func (r *Reader) readFile(path string, yield func(string) bool) bool {
	f, err := r.fs.Open(path)
	if err != nil {
		r.fail(fmt.Errorf("open %s: %w", path, err))
		return false
	}

	r.mu.Lock()
	r.file = f
	r.current++
	r.mu.Unlock()

	defer r.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if !yield(scanner.Text()) {
			return false
		}
	}

	if err := scanner.Err(); err != nil {
		r.fail(fmt.Errorf("read %s: %w", path, err))
		return false
	}

	return true
}

func (r *Reader) fail(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

// Close closes the file being read, if any.
func (r *Reader) Close() error {
	r.mu.Lock()
	f := r.file
	r.file = nil
	r.mu.Unlock()

	if f == nil {
		return nil
	}

	return f.Close()
}
