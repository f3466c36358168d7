package index

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/jonesrussell/north-cloud/index-rotator/cmd/common"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/logger"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/manager"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	// ErrDeletionCancelled is returned when the user cancels the deletion
	ErrDeletionCancelled = errors.New("deletion cancelled by user")
	// ErrIndexAliased is returned when dropping the index the alias serves
	ErrIndexAliased = errors.New("index is currently aliased")
	// ErrNotConcreteIndex is returned when the name to drop is an alias
	ErrNotConcreteIndex = errors.New("name is an alias, not an index")
)

// DropParams holds the parameters for the drop command
type DropParams struct {
	Manager string
	Index   string
	Force   bool
}

// Dropper implements the index drop command
type Dropper struct {
	logger  logger.Logger
	manager *manager.Manager
	index   string
	force   bool
	in      io.Reader
	out     io.Writer
	// interactive reports whether confirmation can be asked for.
	interactive func() bool
}

// NewDropper creates a Dropper. An empty params.Index selects the manager's base name.
func NewDropper(log logger.Logger, m *manager.Manager, params DropParams, in io.Reader, out io.Writer) *Dropper {
	index := params.Index
	if index == "" {
		index = m.BaseName()
	}
	return &Dropper{
		logger:  log,
		manager: m,
		index:   index,
		force:   params.Force,
		in:      in,
		out:     out,
		interactive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
}

// Start executes the drop operation
func (d *Dropper) Start(ctx context.Context) error {
	isAlias, err := d.manager.AliasExists(ctx, d.index)
	if err != nil {
		return err
	}
	if isAlias {
		members, membersErr := d.manager.GetAliasedIndices(ctx, d.index)
		if membersErr != nil {
			return membersErr
		}
		return fmt.Errorf("%w: %s resolves to [%s], pass --index with one of them",
			ErrNotConcreteIndex, d.index, strings.Join(members, ", "))
	}

	aliased, err := d.manager.GetAliasedIndices(ctx, d.manager.AliasName())
	if err != nil {
		return err
	}
	if slices.Contains(aliased, d.index) && !d.force {
		return fmt.Errorf("%w: %s serves alias %s, use --force to drop it anyway",
			ErrIndexAliased, d.index, d.manager.AliasName())
	}

	if confirmErr := d.confirm(); confirmErr != nil {
		return confirmErr
	}

	if dropErr := d.manager.DropIndex(ctx, d.index); dropErr != nil {
		d.logger.Error("Failed to drop index", logger.String("index", d.index), logger.Error(dropErr))
		return dropErr
	}

	d.logger.Info("Dropped index", logger.String("manager", d.manager.Name()), logger.String("index", d.index))
	_, err = fmt.Fprintf(d.out, "Dropped index `%s` of the `%s` manager.\n", d.index, d.manager.Name())
	return err
}

// confirm asks before deleting unless forced or stdin is not a terminal.
func (d *Dropper) confirm() error {
	if d.force || !d.interactive() {
		return nil
	}

	if _, err := fmt.Fprintf(d.out, "Index %s will be deleted. Are you sure you want to continue? (y/N): ", d.index); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}

	response, err := bufio.NewReader(d.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read user input: %w", err)
	}

	if !strings.EqualFold(strings.TrimSpace(response), "y") {
		return ErrDeletionCancelled
	}
	return nil
}

func createDropCmd(newDeps common.Factory) *cobra.Command {
	var params DropParams

	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop a physical index of a manager",
		Long: `Drop a physical index, typically one left behind by a rotation.
Defaults to the manager's base name. Once the manager has been rotated the
base name is an alias and --index must name a physical index. The index the
alias currently serves is only dropped with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), newDeps, func(deps *common.CommandDeps) error {
				m, err := deps.Registry.Get(params.Manager)
				if err != nil {
					return err
				}
				return NewDropper(deps.Logger, m, params, cmd.InOrStdin(), cmd.OutOrStdout()).Start(cmd.Context())
			})
		},
	}

	addManagerFlag(cmd, &params.Manager)
	cmd.Flags().StringVar(&params.Index, "index", "", "Physical index to drop (default: the manager's base name)")
	cmd.Flags().BoolVarP(&params.Force, "force", "f", false, "Drop without confirmation")

	return cmd
}
