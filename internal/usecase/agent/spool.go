package agent

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// spool writes the upload to a uniquely named file in the upload directory.
// The returned release func removes it and must always be called.
func (s *Service) spool(audio Audio) (string, func(), error) {
	if audio.Body == nil {
		return "", func() {}, ErrMissingAudio
	}

	dir := s.uploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("store upload: %w", err)
	}

	f, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(filepath.Base(audio.Filename)))
	if err != nil {
		return "", func() {}, fmt.Errorf("store upload: %w", err)
	}
	path := f.Name()
	release := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not remove upload", "path", path, "err", err)
		}
	}

	if _, err := io.Copy(f, audio.Body); err != nil {
		_ = f.Close()
		release()
		return "", func() {}, fmt.Errorf("store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		release()
		return "", func() {}, fmt.Errorf("store upload: %w", err)
	}
	return path, release, nil
}
