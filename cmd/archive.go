/*
Copyright © 2025 Vardan Sargsyan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vardan201/pitchagent/internal/store"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the pitch archive",
	Long:  `List archived pitches, show archive statistics, and clear the research context cache.`,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived final pitches",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(viper.GetString("archive.db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		finals, err := db.ListFinals(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list pitches: %w", err)
		}

		if len(finals) == 0 {
			fmt.Println("No pitches in the archive.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "REQUEST\tCREATED\tITERATIONS\tMVP\tELEVATOR PITCH")
		for _, e := range finals {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				e.RequestID, e.CreatedAt.Format("2006-01-02 15:04"),
				e.TotalIterations, snippet(e.MVPDescription), snippet(e.Package.ElevatorPitch))
		}
		return w.Flush()
	},
}

var archiveStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(viper.GetString("archive.db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Pitch requests:   %d\n", stats.Requests)
		fmt.Printf("Iterations saved: %d\n", stats.Iterations)
		fmt.Printf("Final pitches:    %d\n", stats.Finals)
		fmt.Printf("Cached contexts:  %d\n", stats.CachedContexts)
		fmt.Printf("Context reuse:    %d\n", stats.ContextUsage)
		return nil
	},
}

var archiveClearContextCmd = &cobra.Command{
	Use:   "clear-context",
	Short: "Remove all cached research contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.New(viper.GetString("archive.db"))
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		n, err := db.ClearContextCache(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear context cache: %w", err)
		}
		fmt.Printf("Cleared %d cached contexts.\n", n)
		return nil
	},
}

func snippet(s string) string {
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveStatsCmd)
	archiveCmd.AddCommand(archiveClearContextCmd)
}
