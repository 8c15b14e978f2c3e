package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/vrymel/serverless-python-requirements/internal/interpreter"
)

// PythonBinOptions holds flags for the python-bin command.
type PythonBinOptions struct {
	*RootOptions
	Version int
	GOOS    string
}

// NewPythonBinCommand creates the python-bin command.
func NewPythonBinCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PythonBinOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "python-bin",
		Short: "Print the interpreter passed as --pythonBin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			bin, err := interpreter.Resolve(opts.Version, opts.GOOS)
			if err != nil {
				return out.Fail(ExitCommandError, ErrCodeArgument, "invalid python version", err)
			}
			if out.JSON() {
				return out.Success(map[string]any{
					"version": opts.Version,
					"goos":    opts.GOOS,
					"path":    bin,
				})
			}
			_, err = fmt.Fprintln(out.Writer, bin)
			return err
		},
	}

	cmd.Flags().IntVar(&opts.Version, "version", 3, "python major version (2 or 3)")
	cmd.Flags().StringVar(&opts.GOOS, "goos", runtime.GOOS, "target platform")

	return cmd
}
