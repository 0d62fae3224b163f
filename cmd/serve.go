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
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/vardan201/pitchagent/internal/server"
	"github.com/vardan201/pitchagent/internal/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pitch pipeline over HTTP",
	Long: `Starts the step-wise HTTP mode: each session advances one gate
interaction per request, so approval can come from another process or
a UI instead of a terminal prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(true)
		machine, db, err := buildMachine(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		srv := &http.Server{
			Addr:              serveAddr,
			Handler:           server.New(machine, session.NewStore(), logger).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		fmt.Printf("Listening on %s\n", serveAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}
