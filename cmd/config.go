package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pyreview/internal/config"
)

// ConfigCommand returns the config command with its subcommands.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Create a sample configuration file",
				ArgsUsage: "[FILE]",
				Action: func(c *cli.Context) error {
					path := "pyreview.toml"
					if c.NArg() >= 1 {
						path = c.Args().Get(0)
					}
					if err := config.InitConfig(path); err != nil {
						return err
					}
					fmt.Printf("Configuration file created at %s\n", path)
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "Load and validate the effective configuration",
				Action: func(c *cli.Context) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return err
					}
					if err := config.Validate(cfg); err != nil {
						return err
					}
					PrintConfigSummary(cfg)
					return nil
				},
			},
		},
	}
}
