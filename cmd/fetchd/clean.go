package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tanq16/fetchd/internal/engine"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove orphaned temp directories left by a finished or aborted run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if downloadFolder != "" {
				v.Set("download_folder", downloadFolder)
			}
			if tempFolder != "" {
				v.Set("temp_folder", tempFolder)
			}
			cfg, err := engine.LoadConfig(v)
			if err != nil {
				return err
			}
			removed, err := engine.CleanOrphanedTempDirs(cfg)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Println("nothing to clean")
				return nil
			}
			for _, dir := range removed {
				fmt.Printf("removed %s\n", dir)
			}
			return nil
		},
	}
}
