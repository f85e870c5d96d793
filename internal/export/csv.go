package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
	"github.com/KotFed0t/neobroker_portfolio_importer/utils"
)

type CSVSink struct {
	path string
}

func (c *CSVSink) Write(ctx context.Context, positions []model.PortfolioPosition) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "CSVSink.Write"

	slog.Debug("Write start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("positions", len(positions)))

	f, err := os.Create(c.path)
	if err != nil {
		slog.Error("got error while creating csv file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := writeCSV(f, positions); err != nil {
		slog.Error("got error while writing csv", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("Write completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", c.path))

	return nil
}

// writeCSV writes positions to any io.Writer as comma-separated UTF-8.
func writeCSV(w io.Writer, positions []model.PortfolioPosition) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, p := range positions {
		if err := cw.Write(Row(p)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
