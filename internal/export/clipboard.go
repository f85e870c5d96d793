package export

import (
	"context"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
	"github.com/KotFed0t/neobroker_portfolio_importer/utils"
)

// ClipboardSink is the ad-hoc fallback when no output path is given: rows go
// to the system clipboard tab-separated, ready to paste into a spreadsheet.
type ClipboardSink struct{}

func (c *ClipboardSink) Write(ctx context.Context, positions []model.PortfolioPosition) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ClipboardSink.Write"

	slog.Debug("Write start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("positions", len(positions)))

	var b strings.Builder
	b.WriteString(strings.Join(Header, "\t"))
	b.WriteByte('\n')
	for _, p := range positions {
		b.WriteString(strings.Join(Row(p), "\t"))
		b.WriteByte('\n')
	}

	if err := clipboard.WriteAll(b.String()); err != nil {
		slog.Error("got error while writing clipboard", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("Write completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}
