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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vardan201/pitchagent/internal"
	"github.com/vardan201/pitchagent/internal/workflow"
)

var (
	runInputFile string
	runVerbose   bool
)

var runCmd = &cobra.Command{
	Use:   "run [mvp description]",
	Short: "Generate a pitch interactively, start to finish",
	Long: `Runs the whole pipeline in one process: context gathering, drafting,
the critique loop, and a blocking approval prompt at the gate. The MVP
description comes from the positional argument or from --input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mvp, err := readMVPDescription(args)
		if err != nil {
			return err
		}

		logger := newLogger(runVerbose)
		machine, db, err := buildMachine(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		req := internal.PitchRequest{ID: uuid.New().String(), MVPDescription: mvp, Timestamp: time.Now()}
		if err := db.SaveRequest(ctx, req); err != nil {
			logger.Warn("failed to archive request", "error", err)
		}

		st := workflow.NewState(req.ID, mvp)
		fmt.Println("Generating your pitch...")
		if err := machine.Start(ctx, st); err != nil {
			return fmt.Errorf("pitch generation failed: %w", err)
		}

		in := bufio.NewReader(os.Stdin)
		for st.Status != workflow.StatusCompleted {
			switch st.Status {
			case workflow.StatusAwaitingApproval:
				printGate(st, false)
			case workflow.StatusMaxIterations:
				printGate(st, true)
			default:
				return fmt.Errorf("unexpected status %q", st.Status)
			}

			approved, feedback, err := promptDecision(in, st.Status == workflow.StatusMaxIterations)
			if err != nil {
				return err
			}
			if approved {
				fmt.Println("Packaging the final pitch...")
				if err := machine.Approve(ctx, st, feedback); err != nil {
					return fmt.Errorf("packaging failed: %w", err)
				}
			} else {
				fmt.Println("Refining with your feedback...")
				if err := machine.Reject(ctx, st, feedback); err != nil {
					return fmt.Errorf("refinement failed: %w", err)
				}
			}
		}

		return printFinal(st)
	},
}

func readMVPDescription(args []string) (string, error) {
	if runInputFile != "" {
		data, err := os.ReadFile(runInputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		if mvp := strings.TrimSpace(string(data)); mvp != "" {
			return mvp, nil
		}
		return "", fmt.Errorf("input file %s is empty", runInputFile)
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	return "", fmt.Errorf("provide an MVP description as an argument or via --input")
}

func printGate(st *workflow.State, atCeiling bool) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Iteration %d | score %.1f (%s)\n",
		st.TotalIterations, st.Critique.OverallScore, st.Critique.Decision)
	if len(st.History) > 1 {
		parts := make([]string, 0, len(st.History))
		for _, round := range st.History {
			parts = append(parts, fmt.Sprintf("%.1f", round.OverallScore))
		}
		fmt.Printf("Score progression: %s\n", strings.Join(parts, " -> "))
	}
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println(st.Pitch)
	fmt.Println(strings.Repeat("-", 60))
	if st.Critique.Feedback != "" {
		fmt.Printf("Critique: %s\n", st.Critique.Feedback)
	}
	if atCeiling {
		fmt.Println("Iteration limit reached: approve this pitch or quit.")
	}
}

func promptDecision(in *bufio.Reader, atCeiling bool) (approved bool, feedback string, err error) {
	for {
		if atCeiling {
			fmt.Print("[A]pprove or [Q]uit? ")
		} else {
			fmt.Print("[A]pprove or [R]eject with feedback? ")
		}
		line, err := in.ReadString('\n')
		if err != nil {
			return false, "", fmt.Errorf("failed to read input: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve":
			return true, "", nil
		case "q", "quit":
			if atCeiling {
				return false, "", fmt.Errorf("aborted at iteration limit")
			}
		case "r", "reject":
			if atCeiling {
				continue
			}
			fmt.Print("Feedback for the next revision: ")
			fb, err := in.ReadString('\n')
			if err != nil {
				return false, "", fmt.Errorf("failed to read feedback: %w", err)
			}
			return false, strings.TrimSpace(fb), nil
		}
	}
}

func printFinal(st *workflow.State) error {
	if st.FinalPackage == nil {
		return fmt.Errorf("no final package produced")
	}

	out, err := json.MarshalIndent(st.FinalPackage, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render final package: %w", err)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Final pitch package (%d iterations)\n", st.TotalIterations)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println(string(out))
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runInputFile, "input", "i", "", "Read the MVP description from a file")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Log pipeline progress")
}
