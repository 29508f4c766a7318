package config

import (
	"bytes"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// ReadEnvFile reads a dotenv file from fs.
func ReadEnvFile(fs afero.Fs, path string) (map[string]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	env, err := ParseEnvFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return env, nil
}

// ParseEnvFile parses dotenv data: KEY=VALUE lines with optional "export "
// prefixes, "#" comments and single or double quoted values. Double quoted
// values may reference earlier keys as ${KEY}.
func ParseEnvFile(data []byte) (map[string]string, error) {
	return godotenv.Parse(bytes.NewReader(data))
}
