package engine

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// NumChunks is the fixed number of byte-range chunks per download.
	NumChunks = 8
	// MaxConcurrentDownloads is the fixed admission bound enforced by
	// the Queue Scheduler.
	MaxConcurrentDownloads = 3

	storeFileName = "downloads.json"
)

// Config holds the engine's external configuration, per spec §6.
type Config struct {
	DownloadFolder string
	TempFolder     string
}

// LoadConfig reads DOWNLOAD_FOLDER and TEMP_FOLDER from the environment
// (via viper, so CLI flags bound to the same keys take precedence),
// falling back to the spec's defaults, and ensures both directories
// exist.
func LoadConfig(v *viper.Viper) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix("")
	_ = v.BindEnv("download_folder", "DOWNLOAD_FOLDER")
	_ = v.BindEnv("temp_folder", "TEMP_FOLDER")
	v.SetDefault("download_folder", "./downloads")
	v.SetDefault("temp_folder", filepath.Join(os.TempDir(), "node-downloader-temp"))

	cfg := Config{
		DownloadFolder: v.GetString("download_folder"),
		TempFolder:     v.GetString("temp_folder"),
	}
	var err error
	cfg.DownloadFolder, err = filepath.Abs(cfg.DownloadFolder)
	if err != nil {
		return Config{}, err
	}
	cfg.TempFolder, err = filepath.Abs(cfg.TempFolder)
	if err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(cfg.DownloadFolder, 0o755); err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(cfg.TempFolder, 0o755); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) storePath() string {
	return filepath.Join(c.DownloadFolder, storeFileName)
}
