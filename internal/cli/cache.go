package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vrymel/serverless-python-requirements/internal/fixture"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the plugin cache directory",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			accessor, err := cacheAccessor(rootOpts)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
			}
			path, err := accessor()
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeCache, "failed to locate cache", err)
			}
			if out.JSON() {
				return out.Success(map[string]any{"path": path, "exists": fixture.Exists(path)})
			}
			_, err = fmt.Fprintln(out.Writer, path)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			accessor, err := cacheAccessor(rootOpts)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeConfig, "failed to load configuration", err)
			}
			path, err := fixture.EvictCache(accessor)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeCache, "failed to clear cache", err)
			}
			if out.JSON() {
				return out.Success(map[string]any{"cleared": path})
			}
			_, err = fmt.Fprintln(out.Writer, statusLine(true, "cleared "+path))
			return err
		},
	})

	return cmd
}

func cacheAccessor(opts *RootOptions) (fixture.CachePathFunc, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	return cfg.CachePath(), nil
}
