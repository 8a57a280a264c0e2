package models

import (
	"fmt"
	"strings"
	"time"
)

type Side string

const (
	Bullish Side = "BULLISH"
	Bearish Side = "BEARISH"
	Neutral Side = "NEUTRAL"
)

// ClassifySide compares a print against the quote prevailing at print time.
// A missing or crossed quote yields NEUTRAL.
func ClassifySide(price, bid, ask float64) Side {
	if !finite(bid) || !finite(ask) || bid <= 0 || ask <= 0 || bid > ask {
		return Neutral
	}
	switch {
	case price > ask:
		return Bullish
	case price < bid:
		return Bearish
	default:
		return Neutral
	}
}

type SizeTier string

const (
	TierMega   SizeTier = "MEGA"
	TierLarge  SizeTier = "LARGE"
	TierMedium SizeTier = "MEDIUM"
	TierSmall  SizeTier = "SMALL"
)

const (
	MegaPrintValue   = 10_000_000
	LargePrintValue  = 1_000_000
	MediumPrintValue = 500_000
)

// TierFor buckets a dollar value.
func TierFor(value float64) SizeTier {
	switch {
	case value >= MegaPrintValue:
		return TierMega
	case value >= LargePrintValue:
		return TierLarge
	case value >= MediumPrintValue:
		return TierMedium
	default:
		return TierSmall
	}
}

// DarkPoolPrint is one off-exchange trade report.
type DarkPoolPrint struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Size      int64     `json:"size"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Side      Side      `json:"side"`
	Tier      SizeTier  `json:"tier"`
}

// NewDarkPoolPrint classifies a raw print. bid and ask are the quote at print time.
func NewDarkPoolPrint(ticker string, price float64, size int64, ts time.Time, bid, ask float64) (DarkPoolPrint, error) {
	switch {
	case strings.TrimSpace(ticker) == "":
		return DarkPoolPrint{}, fmt.Errorf("%w: empty ticker", ErrMalformedResponse)
	case !finite(price) || price <= 0:
		return DarkPoolPrint{}, fmt.Errorf("%w: price %v", ErrMalformedResponse, price)
	case size <= 0:
		return DarkPoolPrint{}, fmt.Errorf("%w: size %d", ErrMalformedResponse, size)
	}
	value := price * float64(size)
	return DarkPoolPrint{
		Ticker:    strings.ToUpper(ticker),
		Price:     price,
		Size:      size,
		Value:     value,
		Timestamp: ts,
		Side:      ClassifySide(price, bid, ask),
		Tier:      TierFor(value),
	}, nil
}

// PriceLevel clusters prints at one (ticker, rounded price) key.
type PriceLevel struct {
	Ticker       string  `json:"ticker"`
	Price        float64 `json:"price"`
	TotalValue   float64 `json:"totalValue"`
	BullishValue float64 `json:"bullishValue"`
	PrintCount   int     `json:"printCount"`
	BullishPct   int     `json:"bullishPct"`
}

type Regime string

const (
	Accumulation Regime = "ACCUMULATION"
	Distribution Regime = "DISTRIBUTION"
	NeutralMix   Regime = "NEUTRAL"
)

type TierCounts struct {
	Mega   int `json:"mega"`
	Large  int `json:"large"`
	Medium int `json:"medium"`
}

type DarkPoolSummary struct {
	Scope        string         `json:"scope"`
	TotalValue   float64        `json:"totalValue"`
	PrintCount   int            `json:"printCount"`
	BullishPct   int            `json:"bullishPct"`
	BearishPct   int            `json:"bearishPct"`
	LargestPrint *DarkPoolPrint `json:"largestPrint,omitempty"`
	Tiers        TierCounts     `json:"sizeDistribution"`
	TopLevels    []PriceLevel   `json:"topLevels"`
	Regime       Regime         `json:"regime"`
	Tickers      []string       `json:"tickers"`
	Degraded     []string       `json:"degraded,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}
