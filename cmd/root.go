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
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pitchagent",
	Short: "AI startup pitch generator with iterative critique",
	Long: `An agent that turns an MVP description into an investor-ready pitch:
it gathers market context, drafts a pitch, critiques and refines it in a
bounded loop, and asks for your approval before packaging the result.

Use "pitchagent run" for an interactive session or "pitchagent serve"
to drive sessions over HTTP.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./pitchagent.yaml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("pitchagent")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PITCHAGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	// Groq's conventional variable works without the prefix.
	_ = viper.BindEnv("llm.api_key", "PITCHAGENT_LLM_API_KEY", "GROQ_API_KEY")

	viper.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("llm.model", "openai/gpt-oss-120b")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("workflow.auto_refine_limit", 3)
	viper.SetDefault("workflow.hard_ceiling", 10)
	viper.SetDefault("workflow.pass_threshold", 7.5)
	viper.SetDefault("workflow.auto_approve_score", 0.0)
	viper.SetDefault("workflow.stage_timeout", "2m")
	viper.SetDefault("workflow.template", "elevator")
	viper.SetDefault("archive.db", "./data/pitchagent.db")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
