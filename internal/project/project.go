package project

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/tsk-dev/tsk/internal/config"
)

// Project is the set of config files read by one invocation.
type Project struct {
	// Dir is the invocation directory.
	Dir   string
	Paths []string
	Set   *config.Set
}

// Discover finds the config files visible from dir.
func Discover(fs afero.Fs, dir string) (*Project, error) {
	paths, err := FindConfigFiles(fs, dir)
	if err != nil {
		return nil, err
	}
	return newProject(fs, dir, paths), nil
}

// Global loads the global config file from the home directory.
func Global(fs afero.Fs, home, dir string) (*Project, error) {
	path, err := GlobalConfigFile(fs, home)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(home, GlobalDirName, GlobalBaseName+".*"), err)
	}
	return newProject(fs, dir, []string{path}), nil
}

// FromFile uses the single config file at path.
func FromFile(fs afero.Fs, path, dir string) (*Project, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config file %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config file %q is a directory", path)
	}
	return newProject(fs, dir, []string{path}), nil
}

func newProject(fs afero.Fs, dir string, paths []string) *Project {
	return &Project{
		Dir:   dir,
		Paths: paths,
		Set:   config.NewSet(fs, paths),
	}
}
