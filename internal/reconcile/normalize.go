package reconcile

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	trademarkGlyph = "®" // ®
	euroSign       = "€" // €
)

var (
	// number with optional comma thousands separators and decimal point.
	numberRe = regexp.MustCompile(`[0-9]+(?:,[0-9]{3})*(?:\.[0-9]+)?|[0-9]+\.[0-9]+`)

	isinRe          = regexp.MustCompile(`^[A-Z]{2}[A-Za-z0-9_]{10}$`)
	isinPrefixRe    = regexp.MustCompile(`^.*[?&]isin=`)
	trailingQueryRe = regexp.MustCompile(`&.*$`)
	portfolioIDRe   = regexp.MustCompile(`[?&]portfolioId=([^&]+)`)
)

var ErrNoNumber = errors.New("no numeric value in text")

// CleanAssetName strips the registered-trademark glyph and any
// currency-value suffix the UI concatenates onto the displayed name:
// everything before the currency symbol is the true name.
func CleanAssetName(s string) string {
	if i := strings.Index(s, euroSign); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, trademarkGlyph, "")
	return strings.TrimSpace(s)
}

// ParseCurrency parses a currency-formatted string like "€1,234.56" or
// "120.00 €" into a decimal: currency symbol and comma thousands separators
// are dropped, the decimal point is kept.
func ParseCurrency(s string) (decimal.Decimal, error) {
	return parseNumber(s)
}

// ParseQuantity parses a share count, which brokers format the same way as
// currency amounts.
func ParseQuantity(s string) (decimal.Decimal, error) {
	return parseNumber(s)
}

func parseNumber(s string) (decimal.Decimal, error) {
	m := numberRe.FindString(s)
	if m == "" {
		return decimal.Decimal{}, ErrNoNumber
	}
	m = strings.ReplaceAll(m, ",", "")
	return decimal.NewFromString(m)
}

// ExtractISIN pulls the 12-character identifier out of a deep-link URL (or a
// bare DOM attribute value) by stripping the known prefix and any trailing
// query parameters. Returns "" when what remains is not a valid identifier.
func ExtractISIN(ref string) string {
	s := isinPrefixRe.ReplaceAllString(ref, "")
	s = trailingQueryRe.ReplaceAllString(s, "")
	if !isinRe.MatchString(s) {
		return ""
	}
	return s
}

// PortfolioIDFromURL parses the portfolioId query parameter out of the
// broker view URL.
func PortfolioIDFromURL(url string) string {
	m := portfolioIDRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// SplitCompoundRow splits a rendered table-row text of the form
// "<name><currency value>" at the currency symbol. ok is false when the row
// carries no currency value at all.
func SplitCompoundRow(compound string) (name, valueText string, ok bool) {
	i := strings.Index(compound, euroSign)
	if i < 0 {
		return CleanAssetName(compound), "", false
	}
	return CleanAssetName(compound[:i]), compound[i:], true
}
