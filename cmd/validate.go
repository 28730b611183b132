package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"firestige.xyz/flowtrace/internal/config"
	"firestige.xyz/flowtrace/internal/tracefilter"
	"firestige.xyz/flowtrace/pkg/flow"
)

var validatePipelinesFile string

// validateCmd parse-checks pipeline declarations without building or
// running anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate pipeline declarations",
	Long: `Validate loads pipeline declarations, either from the global config or
from a standalone pipeline file, and parse-checks every filter line
against the registry. Nothing is built or run.`,
	Run: func(cmd *cobra.Command, args []string) {
		var pipelines []config.PipelineConfig
		var err error

		if validatePipelinesFile != "" {
			pipelines, err = config.LoadPipelines(validatePipelinesFile)
			if err != nil {
				exitWithError("failed to load pipeline file", err)
			}
		} else {
			cfg, err := config.Load(configFile)
			if err != nil {
				exitWithError("failed to load config", err)
			}
			pipelines = cfg.Pipelines
		}

		reg := flow.NewRegistry()
		if err := reg.Register(tracefilter.Keyword, tracefilter.ParseArgs); err != nil {
			exitWithError("failed to register trace filter", err)
		}

		failed := false
		for _, pc := range pipelines {
			mode, ok := flow.ParseMode(pc.Mode)
			if !ok {
				fmt.Printf("INVALID  pipeline %s: unknown mode %q\n", pc.ID, pc.Mode)
				failed = true
				continue
			}
			px := &flow.Pipeline{ID: pc.ID, Mode: mode}
			ok = true
			for _, line := range pc.Filters {
				if _, err := reg.Parse(config.Tokens(line), px); err != nil {
					fmt.Printf("INVALID  pipeline %s: %v\n", pc.ID, err)
					ok = false
					failed = true
				}
			}
			if ok {
				fmt.Printf("VALID    pipeline %s (%d filter(s))\n", pc.ID, len(pc.Filters))
			}
		}

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validatePipelinesFile, "pipelines", "p", "",
		"standalone pipeline declarations file (overrides global config)")
}
