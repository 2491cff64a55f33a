package commands

import (
	"errors"
	"fmt"
	"os"

	"pokedex/internal/config"

	"github.com/spf13/cobra"
)

// ErrConfigExists is returned when config init would overwrite a file.
var ErrConfigExists = errors.New("configuration file already exists")

const defaultConfigPath = "harvester.yaml"

func installConfigCmd(app *App) {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the harvester configuration file",
		Args:  cobra.NoArgs,
	}

	var force bool

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a file",
		Long: `Write the default configuration to a file.

The format is chosen by extension: .yaml, .yml or .toml. Without a path,
` + defaultConfigPath + ` is written in the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%w: %s (use --force to overwrite)", ErrConfigExists, path)
				}
			}

			if err := config.Default().SaveConfig(path); err != nil {
				return err
			}

			cmd.Printf("Configuration written to '%s'\n", path)

			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	app.cmd.AddCommand(configCmd)
}
