package engine

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// CleanOrphanedTempDirs removes every subdirectory of cfg.TempFolder that
// isn't a live entry's tempDir — left behind by a crash between tempDir
// creation and the next persisted snapshot, or by a Remove that raced a
// in-flight assembly. It does not start the engine or touch downloads.json
// beyond reading it.
func CleanOrphanedTempDirs(cfg Config) ([]string, error) {
	st := newStore(cfg.storePath(), zerolog.Nop())
	entries, err := st.load()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.TempDir != "" {
			known[filepath.Clean(e.TempDir)] = true
		}
	}

	items, err := os.ReadDir(cfg.TempFolder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var removed []string
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		full := filepath.Clean(filepath.Join(cfg.TempFolder, item.Name()))
		if known[full] {
			continue
		}
		if err := os.RemoveAll(full); err != nil {
			return removed, err
		}
		removed = append(removed, full)
	}
	return removed, nil
}
