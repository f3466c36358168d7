// Package index implements the index command group: create (including alias
// rotation), drop and aliases.
package index

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/index-rotator/cmd/common"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/rotation"
	"github.com/spf13/cobra"
)

// Command returns the index command. newDeps is called once per subcommand run.
func Command(newDeps common.Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage Elasticsearch indices behind manager aliases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		createCreateCmd(newDeps),
		createDropCmd(newDeps),
		createAliasesCmd(newDeps),
	)
	return cmd
}

// withDeps builds the dependencies, runs fn and releases them.
func withDeps(ctx context.Context, newDeps common.Factory, fn func(*common.CommandDeps) error) error {
	deps, err := newDeps(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	if validateErr := deps.Validate(); validateErr != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", validateErr)
	}
	defer deps.Close(ctx)

	return fn(deps)
}

func addManagerFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "manager", "m", rotation.DefaultManager, "Manager name")
}
