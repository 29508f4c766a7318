// Package project discovers the config files a tsk invocation reads.
package project

import (
	"errors"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tsk-dev/tsk/internal/config"
)

// Config file base names in priority order within one directory. A directory
// holding a project file is the last one searched.
const (
	LocalBaseName   = "local.tsk"
	DefaultBaseName = "tsk"
	ProjectBaseName = "project.tsk"
)

// GlobalDirName is the directory under the home directory holding the global
// config file.
const GlobalDirName = ".tsk"

// GlobalBaseName is the base name of the global config file.
const GlobalBaseName = "tsk.global"

var baseNames = []string{LocalBaseName, DefaultBaseName, ProjectBaseName}

// ErrNoConfig is returned when no config file is found.
var ErrNoConfig = errors.New("no config file found (looked for local.tsk.*, tsk.* and project.tsk.* up to the project root)")

// FindConfigFiles walks up from startDir and returns the config files found,
// nearest first. Within a directory the order is local.tsk.*, tsk.*,
// project.tsk.*; the walk stops after the directory containing a project
// file or at the filesystem root.
func FindConfigFiles(fs afero.Fs, startDir string) ([]string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for {
		projectFound := false
		for _, base := range baseNames {
			path, ok := findWithExtension(fs, dir, base)
			if !ok {
				continue
			}
			paths = append(paths, path)
			if base == ProjectBaseName {
				projectFound = true
			}
		}
		if projectFound {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	if len(paths) == 0 {
		return nil, ErrNoConfig
	}
	return paths, nil
}

// GlobalConfigFile returns the global config file under home.
func GlobalConfigFile(fs afero.Fs, home string) (string, error) {
	path, ok := findWithExtension(fs, filepath.Join(home, GlobalDirName), GlobalBaseName)
	if !ok {
		return "", ErrNoConfig
	}
	return path, nil
}

// findWithExtension returns dir/base.<ext> for the first supported extension
// naming a regular file.
func findWithExtension(fs afero.Fs, dir, base string) (string, bool) {
	for _, ext := range config.Extensions {
		path := filepath.Join(dir, base+"."+ext)
		if info, err := fs.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}
