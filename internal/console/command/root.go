// Package command 提供 console 命令行
package command

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand 创建根命令，不带子命令时等同于 serve
func NewRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "console",
		Short:        "Cloud console - VM lifecycle controller",
		SilenceUsage: true,
		RunE: func(c *cobra.Command, _ []string) error {
			return serve(c.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONSOLE_CONFIG"), "path to the YAML config file")

	cmd.AddCommand(
		newServeCommand(&configPath),
		newCatalogCommand(&configPath),
		newVMsCommand(&configPath),
		newEventsCommand(&configPath),
	)
	return cmd
}
