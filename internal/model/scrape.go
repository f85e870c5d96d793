package model

// Raw field-sets scraped from a broker page before normalization.
// A strategy fills either TableRows+Anchors(+Shares) or ListItems.

// RawTableRow is one rendered table row whose text is a compound
// "<name><currency value>" string that still needs splitting.
type RawTableRow struct {
	Compound string
}

// RawAnchor pairs a displayed instrument name with the deep-link URL (or DOM
// id) carrying its identifier.
type RawAnchor struct {
	Name string
	Ref  string
}

// RawListItem carries all four fields scraped from a single list element.
type RawListItem struct {
	Name       string
	ISIN       string
	SharesText string
	ValueText  string
}

// RawShares is a share count scraped from a per-instrument detail page.
type RawShares struct {
	ISIN       string
	SharesText string
}

type RawFieldSets struct {
	TableRows []RawTableRow
	Anchors   []RawAnchor
	ListItems []RawListItem
	Shares    []RawShares
}

func (r RawFieldSets) Empty() bool {
	return len(r.TableRows) == 0 && len(r.ListItems) == 0
}
