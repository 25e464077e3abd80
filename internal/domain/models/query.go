package models

// Range bounds a numeric post-fetch filter. A zero bound on either side means
// that side is unbounded.
type Range struct {
	Min *float64 `json:"min" query:"-"`
	Max *float64 `json:"max" query:"-"`
}

// Contains reports whether v falls inside the range. A nil range matches all.
func (r *Range) Contains(v float64) bool {
	if r == nil {
		return true
	}
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// SearchQuery is the inbound query surface for the aggregation pipeline.
// Bound from query parameters and validated before any upstream work begins.
type SearchQuery struct {
	Page     int `query:"page" default:"0" validate:"gte=0"`
	PageSize int `query:"pageSize" default:"20" validate:"gt=0,lte=100"`

	TextFilter     string `query:"text"`
	ExchangeFilter string `query:"exchange"`
	IndustryFilter string `query:"industry"`

	PriceMin         *float64 `query:"priceMin"`
	PriceMax         *float64 `query:"priceMax"`
	ChangePercentMin *float64 `query:"changePercentMin"`
	ChangePercentMax *float64 `query:"changePercentMax"`
	VolumeMin        *float64 `query:"volumeMin"`
	VolumeMax        *float64 `query:"volumeMax"`
	MarketCapMin     *float64 `query:"marketCapMin"`
	MarketCapMax     *float64 `query:"marketCapMax"`
	BetaMin          *float64 `query:"betaMin"`
	BetaMax          *float64 `query:"betaMax"`

	SortField     string `query:"sortField" validate:"omitempty,oneof=ticker companyName price changePercent volume marketCap beta exchange industry"`
	SortDirection string `query:"sortDirection" default:"asc" validate:"oneof=asc desc"`
}

// PriceRange returns the price post-filter, nil when unset.
func (q *SearchQuery) PriceRange() *Range { return rangeOf(q.PriceMin, q.PriceMax) }

// ChangePercentRange returns the change-percent post-filter, nil when unset.
func (q *SearchQuery) ChangePercentRange() *Range {
	return rangeOf(q.ChangePercentMin, q.ChangePercentMax)
}

// VolumeRange returns the volume post-filter, nil when unset.
func (q *SearchQuery) VolumeRange() *Range { return rangeOf(q.VolumeMin, q.VolumeMax) }

// MarketCapRange returns the market-cap post-filter, nil when unset.
func (q *SearchQuery) MarketCapRange() *Range { return rangeOf(q.MarketCapMin, q.MarketCapMax) }

// BetaRange returns the beta post-filter, nil when unset.
func (q *SearchQuery) BetaRange() *Range { return rangeOf(q.BetaMin, q.BetaMax) }

func rangeOf(min, max *float64) *Range {
	if min == nil && max == nil {
		return nil
	}
	return &Range{Min: min, Max: max}
}

// SearchResult is one page of the aggregation pipeline. Total reflects the
// filtered-universe count before any per-symbol fetch, so it is stable across
// pages of the same filter; callers paginate off it.
type SearchResult struct {
	Records []*StockRecord `json:"records"`
	HasMore bool           `json:"hasMore"`
	Total   int            `json:"total"`
}
