package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/partsbin/internal/currency"
	"github.com/theirongolddev/partsbin/internal/pipeline"
)

// loader imports new order files and reads everything the dashboard shows.
type loader struct {
	repo      Repository
	ordersDir string
	conv      currency.Converter
}

func (l loader) load(ctx context.Context, progressFn pipeline.ProgressFunc) (*pipeline.LoadResult, *pipeline.ImportResult, error) {
	var imp *pipeline.ImportResult
	if l.ordersDir != "" {
		res, err := pipeline.ImportOrders(ctx, l.ordersDir, l.repo, progressFn)
		if err != nil {
			return nil, nil, fmt.Errorf("importing orders: %w", err)
		}
		imp = res
	}

	data, err := pipeline.Load(ctx, l.repo)
	if err != nil {
		return nil, imp, err
	}
	data.ConvertTo(l.conv)
	return data, imp, nil
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadDataCmd runs the first load in a goroutine, streaming ProgressMsg
// updates and a final DataLoadedMsg through sub.
func loadDataCmd(l loader, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking: a dropped update is replaced by the next one.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			data, imp, err := l.load(context.Background(), progressFn)
			sub <- DataLoadedMsg{Data: data, Import: imp, Err: err, LoadTime: time.Since(start)}
		}()

		return <-sub
	}
}

// waitForLoadMsg blocks for the loader goroutine's next message.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads in the background without progress updates.
func refreshDataCmd(l loader) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		data, imp, err := l.load(ctx, nil)
		return RefreshDataMsg{Data: data, Import: imp, Err: err, LoadTime: time.Since(start)}
	}
}

// fetchQuotesCmd fetches supplier quotes for skus.
func fetchQuotesCmd(src QuoteSource, skus []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return QuotesMsg{Quotes: src.FetchAll(ctx, skus)}
	}
}

// dismissCmd records (or with undo, removes) a recommendation dismissal.
func dismissCmd(repo Repository, id string, undo bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var err error
		if undo {
			err = repo.Undismiss(ctx, id)
		} else {
			err = repo.Dismiss(ctx, id, time.Now())
		}
		return dismissedMsg{id: id, undo: undo, err: err}
	}
}
