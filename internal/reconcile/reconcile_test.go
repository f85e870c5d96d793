package reconcile

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/KotFed0t/neobroker_portfolio_importer/internal/model"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestReconcileTableJoin(t *testing.T) {
	tests := []struct {
		name string
		raw  model.RawFieldSets
		want []model.PortfolioPosition
	}{
		{
			name: "row joined with matching anchor",
			raw: model.RawFieldSets{
				TableRows: []model.RawTableRow{{Compound: "Apple Inc.€150.25"}},
				Anchors: []model.RawAnchor{
					{Name: "Apple Inc.", Ref: "https://de.scalable.capital/broker/security?isin=US0378331005&portfolioId=pf-1"},
				},
			},
			want: []model.PortfolioPosition{
				{
					Date:         "2024-05-31",
					RecordType:   model.RecordTypeInvestments,
					Institution:  "Scalable Capital",
					AssetName:    "Apple Inc.",
					ISIN:         "US0378331005",
					CurrentValue: nd("150.25"),
				},
			},
		},
		{
			name: "unmatched row keeps empty identifier",
			raw: model.RawFieldSets{
				TableRows: []model.RawTableRow{{Compound: "Mystery Fund€99.00"}},
			},
			want: []model.PortfolioPosition{
				{
					Date:         "2024-05-31",
					RecordType:   model.RecordTypeInvestments,
					Institution:  "Scalable Capital",
					AssetName:    "Mystery Fund",
					CurrentValue: nd("99.00"),
				},
			},
		},
		{
			name: "duplicate anchor names: first occurrence wins",
			raw: model.RawFieldSets{
				TableRows: []model.RawTableRow{{Compound: "Duplicated Name€10.00"}},
				Anchors: []model.RawAnchor{
					{Name: "Duplicated Name", Ref: "https://de.scalable.capital/broker/security?isin=DE0007164600"},
					{Name: "Duplicated Name", Ref: "https://de.scalable.capital/broker/security?isin=US0378331005"},
				},
			},
			want: []model.PortfolioPosition{
				{
					Date:         "2024-05-31",
					RecordType:   model.RecordTypeInvestments,
					Institution:  "Scalable Capital",
					AssetName:    "Duplicated Name",
					ISIN:         "DE0007164600",
					CurrentValue: nd("10.00"),
				},
			},
		},
		{
			name: "anchor name decorated with trademark glyph still joins",
			raw: model.RawFieldSets{
				TableRows: []model.RawTableRow{{Compound: "Vanguard ETF€500.00"}},
				Anchors: []model.RawAnchor{
					{Name: "Vanguard® ETF", Ref: "https://de.scalable.capital/broker/security?isin=IE00B4L5Y983"},
				},
			},
			want: []model.PortfolioPosition{
				{
					Date:         "2024-05-31",
					RecordType:   model.RecordTypeInvestments,
					Institution:  "Scalable Capital",
					AssetName:    "Vanguard ETF",
					ISIN:         "IE00B4L5Y983",
					CurrentValue: nd("500.00"),
				},
			},
		},
		{
			name: "empty raw field-sets produce zero records",
			raw:  model.RawFieldSets{},
			want: []model.PortfolioPosition{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.raw, "2024-05-31", "Scalable Capital")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reconcile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReconcileListItemsPassThrough(t *testing.T) {
	raw := model.RawFieldSets{
		ListItems: []model.RawListItem{
			{Name: "SAP SE", ISIN: "DE0007164600", SharesText: "10", ValueText: "€120.00"},
		},
	}

	got := Reconcile(raw, "2024-05-31", "Trade Republic")
	want := []model.PortfolioPosition{
		{
			Date:         "2024-05-31",
			RecordType:   model.RecordTypeInvestments,
			Institution:  "Trade Republic",
			AssetName:    "SAP SE",
			ISIN:         "DE0007164600",
			Shares:       nd("10"),
			CurrentValue: nd("120.00"),
		},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reconcile() = %+v, want %+v", got, want)
	}
}

func TestReconcileAttachesDetailPageShares(t *testing.T) {
	raw := model.RawFieldSets{
		TableRows: []model.RawTableRow{{Compound: "Apple Inc.€150.25"}},
		Anchors: []model.RawAnchor{
			{Name: "Apple Inc.", Ref: "https://de.scalable.capital/broker/security?isin=US0378331005"},
		},
		Shares: []model.RawShares{{ISIN: "US0378331005", SharesText: "2.5"}},
	}

	got := Reconcile(raw, "2024-05-31", "Scalable Capital")
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if !got[0].Shares.Valid || !got[0].Shares.Decimal.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("shares = %+v, want 2.5", got[0].Shares)
	}
}

func TestReconcileOrdering(t *testing.T) {
	raw := model.RawFieldSets{
		ListItems: []model.RawListItem{
			{Name: "Apple", ISIN: "US0378331005", ValueText: "€1.00"},
			{Name: "Leverage Shares", ISIN: "DE000A1EWWW0", ValueText: "€2.00"},
			{Name: "No Identifier", ISIN: "", ValueText: "€3.00"},
		},
	}

	got := Reconcile(raw, "2024-05-31", "Trade Republic")
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}

	// missing identifier sorts first (zero string), then lexicographic.
	wantOrder := []string{"", "DE000A1EWWW0", "US0378331005"}
	for i, isin := range wantOrder {
		if got[i].ISIN != isin {
			t.Errorf("position %d has ISIN %q, want %q", i, got[i].ISIN, isin)
		}
	}
}

func TestReconcileIdempotent(t *testing.T) {
	raw := model.RawFieldSets{
		TableRows: []model.RawTableRow{
			{Compound: "Beta Fund€20.00"},
			{Compound: "Alpha Fund€10.00"},
		},
		Anchors: []model.RawAnchor{
			{Name: "Alpha Fund", Ref: "https://de.scalable.capital/broker/security?isin=US0378331005"},
			{Name: "Beta Fund", Ref: "https://de.scalable.capital/broker/security?isin=DE0007164600"},
		},
	}

	first := Reconcile(raw, "2024-05-31", "Scalable Capital")
	second := Reconcile(raw, "2024-05-31", "Scalable Capital")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reconciliation not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestReconcileUnparseableValueStaysUnset(t *testing.T) {
	raw := model.RawFieldSets{
		ListItems: []model.RawListItem{
			{Name: "Broken Row", ISIN: "DE0007164600", SharesText: "—", ValueText: "€—"},
		},
	}

	got := Reconcile(raw, "2024-05-31", "Trade Republic")
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Shares.Valid || got[0].CurrentValue.Valid {
		t.Errorf("unparseable fields should stay unset, got %+v", got[0])
	}
}
