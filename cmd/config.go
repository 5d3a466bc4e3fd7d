package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/helios/internal/config"
	"github.com/quocvuong92/helios/internal/display"
)

// newConfigCmd creates the config command group
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigPathCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "init",
		Short:        "Write a default configuration file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfigFile()
			if err != nil {
				return err
			}
			display.ShowSuccess("Created " + path)
			fmt.Fprintf(display.Out, "Set your API key there or in %s.\n", config.EnvAPIKeys)
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show where configuration files are searched",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(display.Out, "Configuration is read from the first existing file of:")
			fmt.Fprintln(display.Out, "  "+strings.Join(config.GetConfigPaths(), "\n  "))
		},
	}
}
