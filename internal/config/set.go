package config

import (
	"fmt"

	"github.com/spf13/afero"
)

// Set is an ordered list of config files. Earlier files take precedence.
// Files are loaded on first use and never reloaded.
type Set struct {
	fs       afero.Fs
	paths    []string
	files    []*File
	onWarn   func(path string, warnings []string)
	loadErrs []error
}

// NewSet creates a Set over paths, read through fs.
func NewSet(fs afero.Fs, paths []string) *Set {
	return &Set{
		fs:       fs,
		paths:    paths,
		files:    make([]*File, len(paths)),
		loadErrs: make([]error, len(paths)),
	}
}

// OnWarnings registers a callback for warnings produced while loading a file.
func (s *Set) OnWarnings(fn func(path string, warnings []string)) {
	s.onWarn = fn
}

// Paths returns the config file paths in precedence order.
func (s *Set) Paths() []string {
	return s.paths
}

// Len returns the number of files in the set.
func (s *Set) Len() int {
	return len(s.paths)
}

// File returns the i-th file, loading it if needed.
func (s *Set) File(i int) (*File, error) {
	if s.files[i] != nil {
		return s.files[i], nil
	}
	if s.loadErrs[i] != nil {
		return nil, s.loadErrs[i]
	}
	f, warnings, err := Load(s.fs, s.paths[i])
	if len(warnings) > 0 && s.onWarn != nil {
		s.onWarn(s.paths[i], warnings)
	}
	if err != nil {
		s.loadErrs[i] = fmt.Errorf("%s: %w", s.paths[i], err)
		return nil, s.loadErrs[i]
	}
	s.files[i] = f
	return f, nil
}

// Find returns the first file defining name for os, loading files in order
// until one is found. It returns nil when no file defines the task.
func (s *Set) Find(name string, os OS) (*File, error) {
	for i := range s.paths {
		f, err := s.File(i)
		if err != nil {
			return nil, err
		}
		if f.Has(name, os) {
			return f, nil
		}
	}
	return nil, nil
}

// Files loads and returns every file in the set.
func (s *Set) Files() ([]*File, error) {
	out := make([]*File, 0, len(s.paths))
	for i := range s.paths {
		f, err := s.File(i)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
