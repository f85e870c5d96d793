package model

import (
	"github.com/shopspring/decimal"
)

// RecordTypeInvestments is the record type stamped on every exported row.
const RecordTypeInvestments = "Investments"

// PortfolioPosition is one holding scraped from a broker, after
// reconciliation. Shares and CurrentValue are NullDecimal because some
// extraction paths cannot obtain them: unset means "not scraped", not zero.
type PortfolioPosition struct {
	Date         string
	RecordType   string
	Institution  string
	AssetName    string
	ISIN         string
	Shares       decimal.NullDecimal
	CurrentValue decimal.NullDecimal
}

type Credentials struct {
	Login  string
	Secret string
}

func (c Credentials) Present() bool {
	return c.Login != "" && c.Secret != ""
}
