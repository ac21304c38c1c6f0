package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tanq16/fetchd/internal/engine"
	"github.com/tanq16/fetchd/internal/logging"
)

var fetchdVersion = "dev"

var (
	debug          bool
	logFile        string
	downloadFolder string
	tempFolder     string
)

var rootCmd = &cobra.Command{
	Use:     "fetchd",
	Short:   "fetchd is a multi-connection HTTP download manager",
	Version: fetchdVersion,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		v := viper.New()
		if cmd.Flags().Changed("debug") {
			v.Set("debug", debug)
		}
		if cmd.Flags().Changed("log-file") {
			v.Set("log_file", logFile)
		}
		_ = v.BindEnv("debug", "FETCHD_DEBUG")
		_ = v.BindEnv("log_file", "FETCHD_LOG_FILE")

		logging.Init(v.GetBool("debug"))
		if file := v.GetString("log_file"); file != "" {
			f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not open log file: %v\n", err)
				os.Exit(1)
			}
			logging.SetOutput(f)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write structured logs to a file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&downloadFolder, "download-folder", "", "Final download directory (defaults to ./downloads)")
	rootCmd.PersistentFlags().StringVar(&tempFolder, "temp-folder", "", "Scratch directory for in-progress chunks")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newCleanCmd())
}

// buildEngine loads configuration (env, then CLI-flag overrides) and
// constructs an Engine, ready for Submit/Pause/Resume/List calls.
func buildEngine() (*engine.Engine, engine.Config, error) {
	v := viper.New()
	if downloadFolder != "" {
		v.Set("download_folder", downloadFolder)
	}
	if tempFolder != "" {
		v.Set("temp_folder", tempFolder)
	}
	_ = v.BindEnv("debug", "FETCHD_DEBUG")
	_ = v.BindEnv("log_file", "FETCHD_LOG_FILE")

	cfg, err := engine.LoadConfig(v)
	if err != nil {
		return nil, engine.Config{}, err
	}
	log.Debug().Str("downloadFolder", cfg.DownloadFolder).Str("tempFolder", cfg.TempFolder).Msg("configuration loaded")
	eng := engine.New(cfg, engine.HTTPClientConfig{}, logging.Get("engine"))
	return eng, cfg, nil
}
