package index

import (
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/index-rotator/cmd/common"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/rotation"
	"github.com/spf13/cobra"
)

// ErrCommandFailed is returned when a create run ends in a failed state.
var ErrCommandFailed = errors.New("index create failed")

func createCreateCmd(newDeps common.Factory) *cobra.Command {
	var opts rotation.Options

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the manager's index, optionally rotating its alias",
		Long: `Create the physical index of a manager.

With --time the index name gets a timestamp suffix. With --alias a suffixed
index is created and the manager's alias is moved onto it in one atomic
request. Previously aliased indices are kept; drop them with "index drop".`,
		Example: `  index-rotator index create --manager=default
  index-rotator index create --manager=default --if-not-exists
  index-rotator index create --manager=default --time --alias
  index-rotator index create --manager=default --dump`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), newDeps, func(deps *common.CommandDeps) error {
				return runCreate(cmd, deps, opts)
			})
		},
	}

	addManagerFlag(cmd, &opts.Manager)
	cmd.Flags().BoolVar(&opts.NoMapping, "no-mapping", false, "Create the index without the configured mapping")
	cmd.Flags().BoolVar(&opts.IfNotExists, "if-not-exists", false, "Succeed without creating when the index already exists")
	cmd.Flags().BoolVar(&opts.Time, "time", false, "Suffix the index name with a timestamp")
	cmd.Flags().BoolVar(&opts.Alias, "alias", false, "Point the manager's alias at the new index (implies --time)")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "Print the current mapping as JSON and exit")

	return cmd
}

func runCreate(cmd *cobra.Command, deps *common.CommandDeps, opts rotation.Options) error {
	res := deps.Orchestrator().Run(cmd.Context(), opts)

	if res.Success() {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return err
	}

	if res.Orphan != "" {
		fmt.Fprintf(cmd.ErrOrStderr(),
			"Index `%s` was created but is not aliased. Retry the rotation or drop it with: index drop --manager=%s --index=%s\n",
			res.Orphan, opts.Manager, res.Orphan)
	}
	return fmt.Errorf("%w (%s): %w", ErrCommandFailed, res.Kind, res.Err)
}
