package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tanq16/fetchd/internal/consoleui"
	"github.com/tanq16/fetchd/internal/engine"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [URL]",
		Short: "Download a single URL and wait for it to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.Shutdown()

			client := consoleui.NewClient(eng)
			client.Run()
			defer client.Stop()

			entry, err := eng.Submit(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("submit %s: %w", args[0], err)
			}

			subID, events := eng.Subscribe()
			defer eng.Unsubscribe(subID)

			for ev := range events {
				switch ev.Name {
				case engine.EventDownloadComplete:
					if p, ok := ev.Payload.(engine.CompletePayload); ok && p.ID == entry.ID {
						fmt.Printf("saved to %s\n", p.FilePath)
						return nil
					}
				case engine.EventDownloadError:
					if p, ok := ev.Payload.(engine.ErrorPayload); ok && p.ID == entry.ID {
						fmt.Fprintf(os.Stderr, "failed: %s\n", p.Error)
						os.Exit(1)
					}
				}
			}
			return nil
		},
	}
}
