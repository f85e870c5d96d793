package reconcile

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCleanAssetName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Apple Inc.", want: "Apple Inc."},
		{name: "trademark glyph stripped", in: "Vanguard® ETF", want: "Vanguard ETF"},
		{name: "currency suffix stripped", in: "Apple Inc.€1,234.56", want: "Apple Inc."},
		{name: "suffix and glyph", in: "iShares® Core MSCI World€10,250.33+1.2%", want: "iShares Core MSCI World"},
		{name: "surrounding whitespace", in: "  SAP SE  €120.00", want: "SAP SE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanAssetName(tt.in); got != tt.want {
				t.Errorf("CleanAssetName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "symbol and thousands", in: "€1,234.56", want: "1234.56"},
		{name: "trailing symbol", in: "120.00 €", want: "120.00"},
		{name: "no separators", in: "€150.25", want: "150.25"},
		{name: "millions", in: "€1,234,567.89", want: "1234567.89"},
		{name: "integer", in: "10", want: "10"},
		{name: "suffix noise", in: "€1,234.56+0.5%", want: "1234.56"},
		{name: "no number", in: "n/a", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCurrency(%q) expected error, got %s", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCurrency(%q) unexpected error: %v", tt.in, err)
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("ParseCurrency(%q) = %s, want %s", tt.in, got, want)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "whole shares", in: "10", want: "10"},
		{name: "fractional shares", in: "0.3514", want: "0.3514"},
		{name: "thousands separator", in: "1,250", want: "1250"},
		{name: "unit suffix", in: "10 pcs", want: "10"},
		{name: "no number", in: "—", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuantity(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseQuantity(%q) expected error, got %s", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuantity(%q) unexpected error: %v", tt.in, err)
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("ParseQuantity(%q) = %s, want %s", tt.in, got, want)
			}
		})
	}
}

func TestExtractISIN(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "deep link with portfolio id",
			in:   "https://de.scalable.capital/broker/security?isin=US0378331005&portfolioId=abc123",
			want: "US0378331005",
		},
		{
			name: "deep link without trailing params",
			in:   "https://de.scalable.capital/broker/security?isin=DE0007164600",
			want: "DE0007164600",
		},
		{name: "bare identifier", in: "DE000A1EWWW0", want: "DE000A1EWWW0"},
		{name: "lowercase country code rejected", in: "de000a1ewww0", want: ""},
		{name: "too short", in: "US03783", want: ""},
		{name: "empty", in: "", want: ""},
		{name: "unrelated url", in: "https://de.scalable.capital/broker/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractISIN(tt.in); got != tt.want {
				t.Errorf("ExtractISIN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// Identifier extraction must invert detail-URL construction for every valid
// identifier.
func TestExtractISINInvertsDetailURL(t *testing.T) {
	ids := []string{"US0378331005", "DE0007164600", "IE00B4L5Y983", "DE000A1EWWW0"}
	for _, id := range ids {
		url := fmt.Sprintf("https://de.scalable.capital/broker/security?isin=%s&portfolioId=pf-1", id)
		if got := ExtractISIN(url); got != id {
			t.Errorf("ExtractISIN(%q) = %q, want %q", url, got, id)
		}
	}
}

func TestPortfolioIDFromURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "query param",
			in:   "https://de.scalable.capital/broker/?portfolioId=39f2-aa1",
			want: "39f2-aa1",
		},
		{
			name: "mid query",
			in:   "https://de.scalable.capital/broker/security?isin=US0378331005&portfolioId=pf-7&tab=overview",
			want: "pf-7",
		},
		{name: "absent", in: "https://de.scalable.capital/broker/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PortfolioIDFromURL(tt.in); got != tt.want {
				t.Errorf("PortfolioIDFromURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSplitCompoundRow(t *testing.T) {
	name, value, ok := SplitCompoundRow("Apple Inc.€150.25")
	if !ok || name != "Apple Inc." || value != "€150.25" {
		t.Errorf("SplitCompoundRow = (%q, %q, %v), want (Apple Inc., €150.25, true)", name, value, ok)
	}

	name, _, ok = SplitCompoundRow("Cash Account")
	if ok || name != "Cash Account" {
		t.Errorf("SplitCompoundRow without value = (%q, ok=%v), want (Cash Account, false)", name, ok)
	}
}
