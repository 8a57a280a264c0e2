package models

import "time"

type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionNeutral Direction = "NEUTRAL"
)

// RatioSentinel stands in for an unbounded call/put ratio when no puts traded.
const RatioSentinel = 999

// TopTrade is the public projection of a ranked contract. Open interest is dropped.
type TopTrade struct {
	Ticker  string       `json:"ticker"`
	Strike  float64      `json:"strike"`
	Expiry  string       `json:"expiry"`
	Type    ContractType `json:"type"`
	Premium float64      `json:"premium"`
	Volume  int64        `json:"volume"`
}

type FlowSummary struct {
	NetDirection Direction  `json:"netDirection"`
	CallPutRatio float64    `json:"callPutRatio"`
	TotalPremium float64    `json:"totalPremium"`
	CallPremium  float64    `json:"callPremium"`
	PutPremium   float64    `json:"putPremium"`
	SweepCount   int        `json:"sweepCount"`
	UnusualCount int        `json:"unusualCount"`
	TopTrades    []TopTrade `json:"topTrades"`
	Tickers      []string   `json:"tickers"`
	Degraded     []string   `json:"degraded,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}
