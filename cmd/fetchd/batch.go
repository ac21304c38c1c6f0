package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/tanq16/fetchd/internal/consoleui"
	"github.com/tanq16/fetchd/internal/engine"
)

// batchFile is a flat list of URLs, the simplest shape that still
// mirrors the teacher's YAML batch format (a named list of links).
type batchFile struct {
	Links []string `yaml:"links"`
}

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [YAML_FILE]",
		Short: "Submit every URL in a YAML file and wait for all to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading batch file: %w", err)
			}
			var bf batchFile
			if err := yaml.Unmarshal(data, &bf); err != nil {
				return fmt.Errorf("parsing batch file: %w", err)
			}
			if len(bf.Links) == 0 {
				return fmt.Errorf("no links found in %s", args[0])
			}

			eng, _, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.Shutdown()

			client := consoleui.NewClient(eng)
			client.Run()
			defer client.Stop()

			pending := make(map[string]bool, len(bf.Links))
			for _, url := range bf.Links {
				entry, err := eng.Submit(context.Background(), url)
				if err != nil {
					fmt.Fprintf(os.Stderr, "skipping %s: %v\n", url, err)
					continue
				}
				pending[entry.ID] = true
			}
			if len(pending) == 0 {
				return fmt.Errorf("no link could be submitted")
			}

			subID, events := eng.Subscribe()
			defer eng.Unsubscribe(subID)

			failures := 0
			for len(pending) > 0 {
				ev, ok := <-events
				if !ok {
					break
				}
				switch ev.Name {
				case engine.EventDownloadComplete:
					if p, ok := ev.Payload.(engine.CompletePayload); ok && pending[p.ID] {
						delete(pending, p.ID)
					}
				case engine.EventDownloadError:
					if p, ok := ev.Payload.(engine.ErrorPayload); ok && pending[p.ID] {
						delete(pending, p.ID)
						failures++
						fmt.Fprintf(os.Stderr, "%s failed: %s\n", p.ID, p.Error)
					}
				}
			}
			if failures > 0 {
				return fmt.Errorf("%d of %d downloads failed", failures, len(bf.Links))
			}
			return nil
		},
	}
}
