// Package reconcile merges raw field-sets gathered via different extraction
// mechanisms into unified portfolio position records and normalizes the
// scraped text into typed values.
package reconcile

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
)

// Reconcile turns the raw field-sets of one broker call into the final
// record sequence: list items pass through directly, table rows are
// left-joined with the separately scraped identifier anchors, detail-page
// share counts are attached by identifier, and metadata is stamped uniformly
// before the deterministic sort. Re-running with identical input yields
// identical output.
func Reconcile(raw model.RawFieldSets, date, institution string) []model.PortfolioPosition {
	var positions []model.PortfolioPosition
	if len(raw.ListItems) > 0 {
		positions = fromListItems(raw.ListItems)
	} else {
		positions = joinTable(raw.TableRows, raw.Anchors)
	}

	positions = attachShares(positions, raw.Shares)

	for i := range positions {
		positions[i].Date = date
		positions[i].RecordType = model.RecordTypeInvestments
		positions[i].Institution = institution
	}

	sort.SliceStable(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Institution != b.Institution {
			return a.Institution < b.Institution
		}
		return a.ISIN < b.ISIN
	})

	return positions
}

// joinTable left-joins value-bearing table rows onto the identifier anchors,
// keyed on the cleaned name. The anchor side is de-duplicated first, keeping
// the first occurrence: two instruments sharing a display name resolve to
// whichever anchor appeared first. Rows with no matching anchor keep an
// empty identifier instead of being dropped.
func joinTable(rows []model.RawTableRow, anchors []model.RawAnchor) []model.PortfolioPosition {
	isinByName := make(map[string]string, len(anchors))
	for _, a := range anchors {
		name := CleanAssetName(a.Name)
		if _, seen := isinByName[name]; seen {
			continue
		}
		isinByName[name] = ExtractISIN(a.Ref)
	}

	positions := make([]model.PortfolioPosition, 0, len(rows))
	for _, row := range rows {
		name, valueText, hasValue := SplitCompoundRow(row.Compound)
		if name == "" {
			continue
		}

		p := model.PortfolioPosition{
			AssetName: name,
			ISIN:      isinByName[name],
		}
		if hasValue {
			p.CurrentValue = parseNullDecimal(ParseCurrency, valueText, "current value", name)
		}
		positions = append(positions, p)
	}
	return positions
}

func fromListItems(items []model.RawListItem) []model.PortfolioPosition {
	positions := make([]model.PortfolioPosition, 0, len(items))
	for _, item := range items {
		name := CleanAssetName(item.Name)
		if name == "" {
			continue
		}

		p := model.PortfolioPosition{
			AssetName: name,
			ISIN:      ExtractISIN(item.ISIN),
		}
		if item.SharesText != "" {
			p.Shares = parseNullDecimal(ParseQuantity, item.SharesText, "shares", name)
		}
		if item.ValueText != "" {
			p.CurrentValue = parseNullDecimal(ParseCurrency, item.ValueText, "current value", name)
		}
		positions = append(positions, p)
	}
	return positions
}

func attachShares(positions []model.PortfolioPosition, shares []model.RawShares) []model.PortfolioPosition {
	if len(shares) == 0 {
		return positions
	}

	byISIN := make(map[string]string, len(shares))
	for _, s := range shares {
		if _, seen := byISIN[s.ISIN]; seen {
			continue
		}
		byISIN[s.ISIN] = s.SharesText
	}

	for i := range positions {
		if positions[i].Shares.Valid || positions[i].ISIN == "" {
			continue
		}
		if text, ok := byISIN[positions[i].ISIN]; ok {
			positions[i].Shares = parseNullDecimal(ParseQuantity, text, "shares", positions[i].AssetName)
		}
	}
	return positions
}

// Unparseable numbers stay unset rather than becoming zero, so a scraping
// glitch never masquerades as an empty position.
func parseNullDecimal(parse func(string) (decimal.Decimal, error), text, field, asset string) decimal.NullDecimal {
	d, err := parse(text)
	if err != nil {
		slog.Warn("unparseable scraped value",
			slog.String("op", "reconcile.parseNullDecimal"),
			slog.String("field", field),
			slog.String("asset", asset),
			slog.String("text", text),
		)
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
