package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"modeldeck/internal/backend"
	"modeldeck/internal/domain"
	"modeldeck/internal/search"
	"modeldeck/internal/ui/views"
)

// errTimeout is returned when the backend does not answer in time
var errTimeout = errors.New("timed out waiting for the catalog")

func newSearchCmd(flags *rootFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog and print matching models",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), cmd.OutOrStdout(), flags,
				search.Search(strings.Join(args, " ")), timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "how long to wait for results")
	return cmd
}

func newFeaturedCmd(flags *rootFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "featured",
		Short: "Print featured models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), cmd.OutOrStdout(), flags, search.Featured(), timeout)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "how long to wait for results")
	return cmd
}

func runQuery(ctx context.Context, out io.Writer, flags *rootFlags, req search.Request, timeout time.Duration) error {
	a, err := openApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()
	a.announce()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.backend.Run(ctx)

	models, err := queryOnce(ctx, a.backend.Commands(), req, timeout)
	if err != nil {
		return err
	}
	printModels(out, models)
	return nil
}

// queryOnce runs a single request through a coordinator and waits for its wake
func queryOnce(ctx context.Context, commands chan<- backend.Command, req search.Request, timeout time.Duration) ([]domain.Model, error) {
	woke := make(chan struct{}, 1)
	coord := search.New(commands, search.WakerFunc(func() {
		select {
		case woke <- struct{}{}:
		default:
		}
	}))
	coord.Submit(req)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-woke:
	case <-timer.C:
		return nil, fmt.Errorf("%s: %w", req, errTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return coord.Poll()
}

func printModels(w io.Writer, models []domain.Model) {
	if len(models) == 0 {
		fmt.Fprintln(w, "no models found")
		return
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("241"))).
		Headers("ID", "NAME", "PARAMS", "SIZE", "DOWNLOADS").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return lipgloss.NewStyle()
		})

	for _, m := range models {
		size := ""
		if m.SizeBytes > 0 {
			size = views.HumanBytes(m.SizeBytes)
		}
		t.Row(m.ID, m.Name, m.Parameters, size, views.HumanCount(m.Downloads))
	}
	fmt.Fprintln(w, t.Render())
}
