package sink

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meigma/binkit/internal/bintype"
)

// FileSink writes outputs below a destination directory with atomic writes.
//
// Files are written to a temporary file in the same directory,
// then renamed to the final path on Commit. This ensures that
// partially written files are never visible at the final path.
// All access goes through an os.Root, so names cannot escape destDir.
type FileSink struct {
	destDir     string
	overwrite   bool
	directWrite bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite allows replacing existing files.
// By default, Writer fails if the destination already exists.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithDirectWrite writes straight to the final path (no temp files).
// Discard removes the partially written file.
func WithDirectWrite(enabled bool) FileSinkOption {
	return func(s *FileSink) {
		s.directWrite = enabled
	}
}

// NewFileSink creates a FileSink that writes to destDir.
//
// destDir must be an absolute path or relative to the current directory.
// It is created if missing. Parent directories of outputs are created as needed.
func NewFileSink(destDir string, opts ...FileSinkOption) (*FileSink, error) {
	if destDir == "" {
		return nil, fmt.Errorf("%w: empty destination directory", bintype.ErrInvalidInput)
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}
	s := &FileSink{destDir: destDir}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the destination directory.
func (s *FileSink) Dir() string {
	return s.destDir
}

// Writer returns a Committer that writes to a temp file and renames on Commit.
func (s *FileSink) Writer(name string) (Committer, error) {
	if !fs.ValidPath(name) || name == "." {
		return nil, fmt.Errorf("%w: %w", bintype.ErrInvalidInput, &fs.PathError{Op: "write", Path: name, Err: fs.ErrInvalid})
	}
	destRel := filepath.FromSlash(name)
	destPath := filepath.Join(s.destDir, destRel)

	root, err := os.OpenRoot(s.destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", s.destDir, err)
	}
	if err := root.MkdirAll(filepath.Dir(destRel), 0o750); err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create directory %s: %w", filepath.Dir(destPath), err)
	}
	if !s.overwrite {
		if _, err := root.Lstat(destRel); err == nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("%w: %w", bintype.ErrInvalidInput, &fs.PathError{Op: "write", Path: destPath, Err: fs.ErrExist})
		}
	}

	if s.directWrite {
		flags := os.O_CREATE | os.O_TRUNC | os.O_WRONLY
		if !s.overwrite {
			flags |= os.O_EXCL
		}
		file, err := root.OpenFile(destRel, flags, 0o600)
		if err != nil {
			_ = root.Close() //nolint:errcheck // best-effort cleanup
			return nil, fmt.Errorf("create file %s: %w", destPath, err)
		}
		return &directCommitter{
			destPath: destPath,
			destRel:  destRel,
			file:     file,
			root:     root,
		}, nil
	}

	// Create temp file in same directory (for atomic rename)
	tempFile, tempRel, err := createTempFile(root, filepath.Dir(destRel), ".binkit-")
	if err != nil {
		_ = root.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &fileCommitter{
		destPath: destPath,
		destRel:  destRel,
		tempFile: tempFile,
		tempRel:  tempRel,
		root:     root,
	}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destPath string
	destRel  string
	tempFile *os.File
	tempRel  string
	root     *os.Root
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file and renames it to the final path.
func (c *fileCommitter) Commit() error {
	if err := c.tempFile.Close(); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := c.root.Rename(c.tempRel, c.destRel); err != nil {
		_ = c.root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destPath, err)
	}

	_ = c.root.Close() //nolint:errcheck // best-effort cleanup
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	if err := c.root.Remove(c.tempRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

// directCommitter writes directly to the final path.
type directCommitter struct {
	destPath string
	destRel  string
	file     *os.File
	root     *os.Root
}

// Write implements io.Writer.
func (c *directCommitter) Write(p []byte) (int, error) {
	return c.file.Write(p)
}

// Commit closes the file.
func (c *directCommitter) Commit() error {
	if err := c.file.Close(); err != nil {
		_ = c.root.Remove(c.destRel) //nolint:errcheck // best-effort cleanup
		_ = c.root.Close()           //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close file %s: %w", c.destPath, err)
	}
	_ = c.root.Close() //nolint:errcheck // best-effort cleanup
	return nil
}

// Discard closes and removes the file.
func (c *directCommitter) Discard() error {
	_ = c.file.Close() //nolint:errcheck // best-effort cleanup
	if err := c.root.Remove(c.destRel); err != nil {
		_ = c.root.Close() //nolint:errcheck // best-effort cleanup
		return err
	}
	return c.root.Close()
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
