package models

import "time"

// SubScores break the composite hotness score into its inputs.
type SubScores struct {
	PriceChange float64 `json:"priceChange"`
	Volume      float64 `json:"volume"`
	Analyst     float64 `json:"analyst"`
	News        float64 `json:"news"`
	Social      float64 `json:"social"`
}

// HotScore is the derived 0-100 hotness score for one symbol. Recomputed per
// score TTL window, never persisted across restarts.
type HotScore struct {
	Ticker         string    `json:"ticker"`
	CompositeScore float64   `json:"compositeScore"`
	SubScores      SubScores `json:"subScores"`
	ComputedAt     time.Time `json:"computedAt"`
}

// HotPolicy is the configurable hot-stock classification policy. A record
// qualifies when rating >= RatingThreshold and |move| >= MoveThreshold, or
// when rating >= OverrideRatingThreshold alone.
type HotPolicy struct {
	RatingThreshold         float64 `yaml:"rating_threshold"`
	MoveThreshold           float64 `yaml:"move_threshold"`
	OverrideRatingThreshold float64 `yaml:"override_rating_threshold"`
}

// Qualifies reports whether a record passes the hot classification policy.
func (p HotPolicy) Qualifies(rating, changePercent float64) bool {
	if rating >= p.OverrideRatingThreshold {
		return true
	}
	move := changePercent
	if move < 0 {
		move = -move
	}
	return rating >= p.RatingThreshold && move >= p.MoveThreshold
}
