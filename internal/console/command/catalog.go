package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jimyag/cloudconsole/internal/console/backend"
	"github.com/jimyag/cloudconsole/internal/console/cache"
	"github.com/jimyag/cloudconsole/internal/console/config"
	"github.com/spf13/cobra"
)

var catalogKinds = []string{
	cache.KindFlavors,
	cache.KindImages,
	cache.KindInstanceSnapshots,
	cache.KindVolumes,
	cache.KindVolumeSnapshots,
	cache.KindNetworks,
	cache.KindAvailabilityZones,
}

func newCatalogCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "catalog KIND",
		Short:     "Fetch one catalog from the backend and print it as JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: catalogKinds,
		RunE: func(c *cobra.Command, args []string) error {
			client, cfg, err := newBackendClient(*configPath)
			if err != nil {
				return err
			}
			catalog := cache.NewCatalog(client, cfg.CacheTTL, nil)
			items, err := catalog.Get(c.Context(), args[0], true)
			if err != nil {
				return err
			}
			return printJSON(c.OutOrStdout(), items)
		},
	}
}

func newVMsCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "vms",
		Short: "Print the backend VM overview as JSON",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			client, _, err := newBackendClient(*configPath)
			if err != nil {
				return err
			}
			return listVMs(c.Context(), client, c.OutOrStdout())
		},
	}
}

func listVMs(ctx context.Context, client *backend.Client, out io.Writer) error {
	vms, err := client.Overview(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, vms)
}

func newBackendClient(configPath string) (*backend.Client, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.URL,
		Token:   cfg.Backend.Token,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
