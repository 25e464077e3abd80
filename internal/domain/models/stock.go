package models

import "time"

// Symbol is one entry of the tradable universe. Immutable within a session;
// sourced once per universe refresh.
type Symbol struct {
	Ticker       string `json:"ticker"`
	DisplayName  string `json:"displayName"`
	Market       string `json:"market"`
	SecurityType string `json:"securityType"`
}

// Quote is the ephemeral per-symbol price snapshot, superseded by every refresh.
type Quote struct {
	CurrentPrice   float64   `json:"currentPrice"`
	ChangeAbsolute float64   `json:"changeAbsolute"`
	ChangePercent  float64   `json:"changePercent"`
	DayHigh        float64   `json:"dayHigh"`
	DayLow         float64   `json:"dayLow"`
	OpenPrice      float64   `json:"openPrice"`
	PreviousClose  float64   `json:"previousClose"`
	Volume         float64   `json:"volume"`
	Timestamp      time.Time `json:"timestamp"`
}

// Profile holds slower-changing company data fetched alongside the quote.
type Profile struct {
	CompanyName          string  `json:"companyName"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	Beta                 float64 `json:"beta"`
	Exchange             string  `json:"exchange"`
	Industry             string  `json:"industry"`
}

// StockRecord is the normalized join of Symbol+Quote+Profile plus the derived
// analyst rating. It is the unit stored in the record cache and returned to
// callers. Invariant: NextEligibleRefresh == LastUpdate + TTL; a record is
// fresh through NextEligibleRefresh exactly and stale after it, at which
// point reads treat it as a cache miss.
type StockRecord struct {
	Symbol  Symbol  `json:"symbol"`
	Quote   Quote   `json:"quote"`
	Profile Profile `json:"profile"`

	// AnalystRating is derived from recommendation trends, normalized 0-100.
	AnalystRating float64 `json:"analystRating"`

	LastUpdate          time.Time `json:"lastUpdate"`
	NextEligibleRefresh time.Time `json:"nextEligibleRefresh"`
}

// Ticker is a convenience accessor for the record's symbol ticker.
func (r *StockRecord) Ticker() string { return r.Symbol.Ticker }
