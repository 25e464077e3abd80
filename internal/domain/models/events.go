package models

import "time"

// PriceDeltaEvent is the only payload ever pushed to live connections.
type PriceDeltaEvent struct {
	Type           string    `json:"type"`
	Ticker         string    `json:"symbol"`
	Price          float64   `json:"price"`
	ChangeAbsolute float64   `json:"changeAbsolute"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewPriceDelta builds a priceUpdate event for a refreshed record.
func NewPriceDelta(ticker string, price, changeAbs float64, ts time.Time) *PriceDeltaEvent {
	return &PriceDeltaEvent{
		Type:           "priceUpdate",
		Ticker:         ticker,
		Price:          price,
		ChangeAbsolute: changeAbs,
		Timestamp:      ts,
	}
}

// IPOListing is one upcoming or recent listing from the IPO calendar.
type IPOListing struct {
	Ticker       string  `json:"ticker"`
	CompanyName  string  `json:"companyName"`
	Date         string  `json:"date"`
	Exchange     string  `json:"exchange"`
	PriceRange   string  `json:"priceRange"`
	SharesOffered float64 `json:"sharesOffered"`
	Status       string  `json:"status"`
}
