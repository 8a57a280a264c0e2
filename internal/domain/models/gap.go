package models

import (
	"fmt"
	"strings"
)

// EquitySnapshot is the last trade and prior close for one ticker.
type EquitySnapshot struct {
	Ticker    string
	LastPrice float64
	PrevClose float64
	Volume    int64
}

func NewEquitySnapshot(ticker string, last, prevClose float64, volume int64) (EquitySnapshot, error) {
	switch {
	case strings.TrimSpace(ticker) == "":
		return EquitySnapshot{}, fmt.Errorf("%w: empty ticker", ErrMalformedResponse)
	case !finite(last) || !finite(prevClose):
		return EquitySnapshot{}, fmt.Errorf("%w: non-finite price for %s", ErrMalformedResponse, ticker)
	case volume < 0:
		return EquitySnapshot{}, fmt.Errorf("%w: volume %d", ErrMalformedResponse, volume)
	}
	return EquitySnapshot{
		Ticker:    strings.ToUpper(ticker),
		LastPrice: last,
		PrevClose: prevClose,
		Volume:    volume,
	}, nil
}

type GapDirection string

const (
	GapUp   GapDirection = "up"
	GapDown GapDirection = "down"
)

type GapRecord struct {
	Ticker     string       `json:"ticker"`
	Price      float64      `json:"price"`
	PrevClose  float64      `json:"prevClose"`
	Gap        float64      `json:"gap"`
	GapPercent float64      `json:"gapPercent"`
	Direction  GapDirection `json:"direction"`
	Volume     int64        `json:"volume"`
}

type GapReport struct {
	WatchlistGaps []GapRecord `json:"watchlistGaps"`
	TopMovers     []GapRecord `json:"topMovers"`
}
