package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stitchgraph/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached layout and render",
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := c.Config.Cache
			if cc.Backend == config.BackendNone {
				printInfo("Caching is disabled")
				return nil
			}
			store, err := newCache(cmd.Context(), cc)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear %s cache: %w", cc.Backend, err)
			}
			printSuccess("Cleared %s cache", cc.Backend)
			if where := cacheLocation(cc); where != "" {
				printDetail("Location: %s", where)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			where := cacheLocation(c.Config.Cache)
			if where == "" {
				return fmt.Errorf("the %s cache has no location", c.Config.Cache.Backend)
			}
			fmt.Fprintln(cmd.OutOrStdout(), where)
			return nil
		},
	}
}

// cacheLocation is the directory or address of the configured backend.
func cacheLocation(cc config.CacheConfig) string {
	switch cc.Backend {
	case config.BackendFile, config.BackendBadger:
		return cc.Dir
	case config.BackendRedis:
		return "redis://" + cc.RedisAddr
	}
	return ""
}
