package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanq16/fetchd/internal/consoleui"
	"github.com/tanq16/fetchd/internal/logging"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and console client, accepting commands on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := buildEngine()
			if err != nil {
				return err
			}
			defer eng.Shutdown()

			client := consoleui.NewClient(eng)
			client.Run()
			defer client.Stop()

			log := logging.Get("cli")
			fmt.Println("fetchd serve — commands: start <url> | pause <id> | resume <id> | pauseall | resumeall | remove <id> | list | quit")

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				fields := strings.Fields(line)
				switch fields[0] {
				case "start":
					if len(fields) < 2 {
						fmt.Println("usage: start <url>")
						continue
					}
					entry, err := eng.Submit(context.Background(), fields[1])
					if err != nil {
						log.Error().Err(err).Msg("submit failed")
						fmt.Printf("error: %v\n", err)
						continue
					}
					fmt.Printf("queued %s as %s\n", fields[1], entry.ID)
				case "pause":
					if len(fields) < 2 {
						fmt.Println("usage: pause <id>")
						continue
					}
					if err := eng.Pause(fields[1]); err != nil {
						fmt.Printf("error: %v\n", err)
					}
				case "resume":
					if len(fields) < 2 {
						fmt.Println("usage: resume <id>")
						continue
					}
					if err := eng.Resume(fields[1]); err != nil {
						fmt.Printf("error: %v\n", err)
					}
				case "pauseall":
					if err := eng.PauseAll(); err != nil {
						fmt.Printf("error: %v\n", err)
					}
				case "resumeall":
					if err := eng.ResumeAll(); err != nil {
						fmt.Printf("error: %v\n", err)
					}
				case "remove":
					if len(fields) < 2 {
						fmt.Println("usage: remove <id>")
						continue
					}
					if err := eng.Remove(fields[1]); err != nil {
						fmt.Printf("error: %v\n", err)
					}
				case "list":
					for _, e := range eng.List() {
						fmt.Printf("%s  %-10s  %s  %.1f%%\n", e.ID, e.Status, e.Filename, e.Progress())
					}
				case "quit", "exit":
					return nil
				default:
					fmt.Printf("unknown command: %s\n", fields[0])
				}
			}
			return scanner.Err()
		},
	}
}
