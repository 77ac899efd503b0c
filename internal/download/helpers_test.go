package download

import (
	"os"
	"path/filepath"
)

func writeStub(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("video"), 0o644)
}
