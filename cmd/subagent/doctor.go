package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"subagent/cli"
	"subagent/config"
	"subagent/paths"
)

// doctorCommand checks the environment a sub-agent run depends on: external
// tools, credentials, and where files live.
func doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotenv()

			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: ignoring config file: %v\n", err)
				cfg = &config.Config{}
			}

			prereqs := cli.DefaultPrerequisites(cfg.ClaudeBinary())
			results := cli.CheckAll(prereqs)
			fmt.Print(cli.FormatCheckResults(results))

			fmt.Println("Credentials:")
			if _, err := config.BuildEnv(os.Environ(), cfg); err != nil {
				fmt.Println("  ✗ " + err.Error())
			} else {
				fmt.Println("  ✓ API token found")
			}

			fmt.Println("Paths:")
			if p, err := paths.ConfigFilePath(); err == nil {
				fmt.Printf("  config: %s\n", p)
			}
			if p, err := paths.RunsDir(); err == nil {
				fmt.Printf("  run artifacts: %s\n", p)
			}

			return cli.ValidateRequired(prereqs)
		},
	}
}
