// Package cache stores materialized scripts in files named after a hash of
// their content, so identical scripts share one file across invocations.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/tsk-dev/tsk/internal/logging"
)

// DirEnv overrides the default cache directory.
const DirEnv = "TSK_CACHE_DIR"

// FileMode is the permission of cached script files.
const FileMode os.FileMode = 0o700

// Error reports a failed cache operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("script cache: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cache is a content-addressed script store. Entries are only ever created,
// never rewritten, so concurrent writers of the same key are harmless.
type Cache struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// DefaultDir returns $TSK_CACHE_DIR, or a tsk-scripts directory under the
// system temp directory.
func DefaultDir() string {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "tsk-scripts")
}

// New creates a cache rooted at dir. A nil logger discards debug output.
func New(fs afero.Fs, dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Cache{fs: fs, dir: dir, logger: logger}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Key returns the cache key of a script. Each part is length-prefixed so
// that moving bytes between parts changes the key.
func Key(runner, ext, script string) string {
	h := sha256.New()
	for _, part := range []string{runner, ext, script} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Path returns the file path of key.
func (c *Cache) Path(key, ext string) string {
	name := key
	if ext != "" {
		name += "." + ext
	}
	return filepath.Join(c.dir, name)
}

// Ensure returns the path of the cached script, writing it first if no entry
// exists. created reports whether this call wrote the file.
func (c *Cache) Ensure(runner, ext, script string) (path string, created bool, err error) {
	key := Key(runner, ext, script)
	path = c.Path(key, ext)

	if ok, err := afero.Exists(c.fs, path); err != nil {
		return "", false, &Error{Op: "stat", Path: path, Err: err}
	} else if ok {
		c.logger.Debug("script cache hit", "key", key, "path", path)
		return path, false, nil
	}

	if err := c.fs.MkdirAll(c.dir, FileMode); err != nil {
		return "", false, &Error{Op: "mkdir", Path: c.dir, Err: err}
	}

	tmp := filepath.Join(c.dir, fmt.Sprintf(".%s.%s.tmp", key, uuid.NewString()))
	if err := c.write(tmp, script); err != nil {
		_ = c.fs.Remove(tmp)
		return "", false, &Error{Op: "write", Path: tmp, Err: err}
	}
	if err := c.fs.Rename(tmp, path); err != nil {
		_ = c.fs.Remove(tmp)
		// Another process may have created the entry first.
		if ok, _ := afero.Exists(c.fs, path); ok {
			return path, false, nil
		}
		return "", false, &Error{Op: "rename", Path: path, Err: err}
	}

	c.logger.Debug("script cache miss", "key", key, "path", path)
	return path, true, nil
}

func (c *Cache) write(path, content string) error {
	f, err := c.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, FileMode)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
