package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/med2305/mlops/internal/domain/model"
	"github.com/med2305/mlops/internal/domain/port"
)

// DirSource loads a bundle from a directory.
type DirSource struct {
	path string
}

// NewDirSource creates a source reading from path.
func NewDirSource(path string) *DirSource {
	return &DirSource{path: path}
}

func (s *DirSource) Name() string { return "dir:" + s.path }

// Load reads every bundle file and decodes them.
func (s *DirSource) Load(ctx context.Context) (*model.Bundle, error) {
	archive, err := ReadDir(ctx, s.path)
	if err != nil {
		return nil, err
	}
	return Decode(archive)
}

// ReadDir reads the raw files of a bundle directory.
func ReadDir(ctx context.Context, path string) (port.BundleArchive, error) {
	files := make(map[string][]byte, len(payloadFiles)+1)
	for _, name := range append([]string{FileManifest}, payloadFiles...) {
		if err := ctx.Err(); err != nil {
			return port.BundleArchive{}, err
		}
		data, err := os.ReadFile(filepath.Join(path, name))
		if errors.Is(err, fs.ErrNotExist) {
			return port.BundleArchive{}, fmt.Errorf("%s: %w", name, model.ErrBundleNotFound)
		}
		if err != nil {
			return port.BundleArchive{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		files[name] = data
	}
	return port.BundleArchive{Files: files}, nil
}

// DirSink publishes bundles to a directory. The bundle is written to a
// temporary sibling and renamed into place, so readers never observe a
// partially written bundle.
type DirSink struct {
	path string
}

// NewDirSink creates a sink writing to path.
func NewDirSink(path string) *DirSink {
	return &DirSink{path: path}
}

func (s *DirSink) Name() string { return "dir:" + s.path }

// Publish encodes and writes the bundle.
func (s *DirSink) Publish(ctx context.Context, b *model.Bundle) error {
	archive, err := Encode(b)
	if err != nil {
		return err
	}
	return WriteDir(ctx, s.path, archive)
}

// WriteDir atomically replaces path with the archive's files.
func WriteDir(ctx context.Context, path string, archive port.BundleArchive) error {
	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", parent, err)
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(path)+"-tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	for name, data := range archive.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFileSync(filepath.Join(tmp, name), data); err != nil {
			return err
		}
	}

	var backup string
	if _, err := os.Stat(path); err == nil {
		backup = path + ".previous"
		if err := os.RemoveAll(backup); err != nil {
			return fmt.Errorf("failed to clear %s: %w", backup, err)
		}
		if err := os.Rename(path, backup); err != nil {
			return fmt.Errorf("failed to move previous bundle aside: %w", err)
		}
	}

	if err := os.Rename(tmp, path); err != nil {
		if backup != "" {
			_ = os.Rename(backup, path)
		}
		return fmt.Errorf("failed to publish bundle: %w", err)
	}
	if backup != "" {
		_ = os.RemoveAll(backup)
	}
	return nil
}

func writeFileSync(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	return f.Close()
}
