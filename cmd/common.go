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
	"log/slog"
	"os"

	"github.com/spf13/viper"

	"github.com/vardan201/pitchagent/internal/llm"
	"github.com/vardan201/pitchagent/internal/search"
	"github.com/vardan201/pitchagent/internal/store"
	"github.com/vardan201/pitchagent/internal/workflow"
)

// buildMachine wires the machine from viper configuration. The returned
// store backs both archiving and the context cache; the caller owns
// closing it.
func buildMachine(logger *slog.Logger) (*workflow.Machine, *store.Store, error) {
	client, err := llm.NewOpenAIClient(llm.Config{
		Model:       viper.GetString("llm.model"),
		APIKey:      viper.GetString("llm.api_key"),
		BaseURL:     viper.GetString("llm.base_url"),
		Temperature: viper.GetFloat64("llm.temperature"),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure LLM client: %w", err)
	}

	cfg := workflow.Config{
		AutoRefineLimit:  viper.GetInt("workflow.auto_refine_limit"),
		HardCeiling:      viper.GetInt("workflow.hard_ceiling"),
		PassThreshold:    viper.GetFloat64("workflow.pass_threshold"),
		AutoApproveScore: viper.GetFloat64("workflow.auto_approve_score"),
		StageTimeout:     viper.GetDuration("workflow.stage_timeout"),
		TemplateKind:     viper.GetString("workflow.template"),
	}

	db, err := store.New(viper.GetString("archive.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}

	stages := workflow.NewStages(client, search.New(), cfg, logger)
	stages.Cache = db

	return workflow.NewMachine(stages, cfg, db, logger), db, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
