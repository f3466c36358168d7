package index

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jonesrussell/north-cloud/index-rotator/cmd/common"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/database"
	"github.com/jonesrussell/north-cloud/index-rotator/internal/manager"
	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 5

// RotationLister reads past rotations.
type RotationLister interface {
	ListRotations(ctx context.Context, managerName string, limit int) ([]database.RotationRecord, error)
}

// AliasReport renders the alias state of a manager.
type AliasReport struct {
	manager *manager.Manager
	history RotationLister
	limit   int
	out     io.Writer
}

// NewAliasReport creates an AliasReport. history may be nil.
func NewAliasReport(m *manager.Manager, history RotationLister, limit int, out io.Writer) *AliasReport {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &AliasReport{manager: m, history: history, limit: limit, out: out}
}

// Render prints the alias table and, when history is available, the last rotations.
func (r *AliasReport) Render(ctx context.Context) error {
	alias := r.manager.AliasName()

	indices, err := r.manager.GetAliasedIndices(ctx, alias)
	if err != nil {
		return err
	}

	t := newTable(r.out)
	t.AppendHeader(table.Row{"Manager", "Alias", "Index"})
	if len(indices) == 0 {
		t.AppendRow(table.Row{r.manager.Name(), alias, "(not aliased)"})
	}
	for _, index := range indices {
		t.AppendRow(table.Row{r.manager.Name(), alias, index})
	}
	t.Render()

	if r.history == nil {
		return nil
	}

	records, err := r.history.ListRotations(ctx, r.manager.Name(), r.limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	if _, writeErr := fmt.Fprintln(r.out); writeErr != nil {
		return writeErr
	}

	h := newTable(r.out)
	h.AppendHeader(table.Row{"When", "Mode", "Status", "Index", "Previous"})
	for _, rec := range records {
		h.AppendRow(table.Row{
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.Mode,
			rec.Status,
			rec.ToIndex,
			strings.Join(rec.FromIndices, ", "),
		})
	}
	h.Render()
	return nil
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

func createAliasesCmd(newDeps common.Factory) *cobra.Command {
	var (
		managerName string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "Show the indices a manager's alias resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), newDeps, func(deps *common.CommandDeps) error {
				m, err := deps.Registry.Get(managerName)
				if err != nil {
					return err
				}

				var history RotationLister
				if deps.History != nil {
					history = deps.History
				}
				return NewAliasReport(m, history, limit, cmd.OutOrStdout()).Render(cmd.Context())
			})
		},
	}

	addManagerFlag(cmd, &managerName)
	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "Number of past rotations to show")

	return cmd
}
