package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
	"github.com/KotFed0t/neobroker_portfolio_importer/utils"
)

const sheetName = "Portfolio"

type XLSXSink struct {
	path string
}

func (x *XLSXSink) Write(ctx context.Context, positions []model.PortfolioPosition) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXSink.Write"

	slog.Debug("Write start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("positions", len(positions)))

	f, err := generate(positions)
	if err != nil {
		slog.Error("got error while generating workbook", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing workbook", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := f.SaveAs(x.path); err != nil {
		slog.Error("got error while saving workbook", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("Write completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("path", x.path))

	return nil
}

func generate(positions []model.PortfolioPosition) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, title := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStr(sheetName, cell, title); err != nil {
			return nil, err
		}
	}

	lastHeaderCell, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastHeaderCell, headerStyle); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	for i, p := range positions {
		for col, value := range Row(p) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellStr(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	// Keep the header visible while scrolling.
	err = f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return nil, fmt.Errorf("freeze header row: %w", err)
	}

	return f, nil
}
