package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/tsk-dev/tsk/internal/schema"
)

// Extensions lists the supported config file extensions in lookup order.
var Extensions = []string{"yml", "yaml", "toml", "json"}

// ParseError represents an error while decoding a configuration file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decode parses data into a document according to the extension of path.
// An empty file decodes to an empty document.
func Decode(path string, data []byte) (map[string]any, error) {
	var doc map[string]any
	var err error
	switch ext := strings.TrimPrefix(filepath.Ext(path), "."); ext {
	case "yml", "yaml":
		err = yaml.Unmarshal(data, &doc)
	case "toml":
		err = toml.Unmarshal(data, &doc)
	case "json":
		if strings.TrimSpace(string(data)) != "" {
			err = json.Unmarshal(data, &doc)
		}
	default:
		return nil, &ParseError{Path: path, Message: fmt.Sprintf("unsupported config file extension %q", ext)}
	}
	if err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		return nil, pe
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Load reads, validates and interprets the config file at path.
// Unknown keys are reported as warnings.
func Load(fs afero.Fs, path string) (*File, []string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(path, data)
}

// LoadOS reads a config file from the host filesystem.
func LoadOS(path string) (*File, []string, error) {
	return Load(afero.NewOsFs(), path)
}

// Parse decodes and interprets config data read from path.
func Parse(path string, data []byte) (*File, []string, error) {
	doc, err := Decode(path, data)
	if err != nil {
		return nil, nil, err
	}
	if err := schema.ValidateDocument(doc); err != nil {
		return nil, nil, &ValidationError{Field: path, Message: err.Error()}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	f, err := interpret(abs, doc)
	if err != nil {
		return nil, nil, err
	}

	warnings := detectUnknownFields(doc)
	if err := Validate(f); err != nil {
		return nil, warnings, err
	}
	return f, warnings, nil
}

// IsNotExist reports whether err was caused by a missing file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
