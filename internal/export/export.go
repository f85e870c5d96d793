// Package export serializes reconciled portfolio positions to the requested
// output format.
package export

import (
	"context"
	"fmt"

	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
)

type Format string

const (
	FormatXLSX      Format = "xlsx"
	FormatCSV       Format = "csv"
	FormatClipboard Format = "clipboard"
)

// Header is the fixed column layout every sink writes.
var Header = []string{"date", "type", "financial_institution", "asset_name", "isin_code", "shares", "current_value"}

type Sink interface {
	Write(ctx context.Context, positions []model.PortfolioPosition) error
}

// New builds a sink for the format. Path is required for file formats and
// ignored by the clipboard fallback.
func New(format Format, path string) (Sink, error) {
	switch format {
	case FormatXLSX:
		if path == "" {
			return nil, fmt.Errorf("xlsx export requires an output path")
		}
		return &XLSXSink{path: path}, nil
	case FormatCSV:
		if path == "" {
			return nil, fmt.Errorf("csv export requires an output path")
		}
		return &CSVSink{path: path}, nil
	case FormatClipboard:
		return &ClipboardSink{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// Row renders one position in Header order. Unset decimals become empty
// strings, never zero.
func Row(p model.PortfolioPosition) []string {
	shares := ""
	if p.Shares.Valid {
		shares = p.Shares.Decimal.String()
	}
	value := ""
	if p.CurrentValue.Valid {
		value = p.CurrentValue.Decimal.String()
	}
	return []string{p.Date, p.RecordType, p.Institution, p.AssetName, p.ISIN, shares, value}
}
