package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ContractMultiplier is the share count behind one listed equity option.
const ContractMultiplier = 100

// ExpiryLayout is the calendar-date layout used for option expiries.
const ExpiryLayout = "2006-01-02"

type ContractType string

const (
	Call ContractType = "CALL"
	Put  ContractType = "PUT"
)

// ParseContractType accepts "call"/"put" in any case.
func ParseContractType(s string) (ContractType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "C":
		return Call, nil
	case "PUT", "P":
		return Put, nil
	default:
		return "", fmt.Errorf("%w: contract type %q", ErrMalformedResponse, s)
	}
}

// OptionContractSnapshot is the latest day state of one option contract.
type OptionContractSnapshot struct {
	Ticker       string
	Strike       float64
	Expiry       time.Time
	Type         ContractType
	Volume       int64
	OpenInterest int64
	VWAP         float64
}

// NewOptionContractSnapshot validates numeric ranges at the boundary.
func NewOptionContractSnapshot(ticker string, strike float64, expiry time.Time, typ ContractType, volume, openInterest int64, vwap float64) (OptionContractSnapshot, error) {
	switch {
	case strings.TrimSpace(ticker) == "":
		return OptionContractSnapshot{}, fmt.Errorf("%w: empty ticker", ErrMalformedResponse)
	case !finite(strike) || strike <= 0:
		return OptionContractSnapshot{}, fmt.Errorf("%w: strike %v", ErrMalformedResponse, strike)
	case typ != Call && typ != Put:
		return OptionContractSnapshot{}, fmt.Errorf("%w: contract type %q", ErrMalformedResponse, typ)
	case volume < 0:
		return OptionContractSnapshot{}, fmt.Errorf("%w: volume %d", ErrMalformedResponse, volume)
	case openInterest < 0:
		return OptionContractSnapshot{}, fmt.Errorf("%w: open interest %d", ErrMalformedResponse, openInterest)
	case !finite(vwap) || vwap < 0:
		return OptionContractSnapshot{}, fmt.Errorf("%w: vwap %v", ErrMalformedResponse, vwap)
	case expiry.IsZero():
		return OptionContractSnapshot{}, fmt.Errorf("%w: missing expiry", ErrMalformedResponse)
	}
	return OptionContractSnapshot{
		Ticker:       strings.ToUpper(ticker),
		Strike:       strike,
		Expiry:       expiry,
		Type:         typ,
		Volume:       volume,
		OpenInterest: openInterest,
		VWAP:         vwap,
	}, nil
}

// Active reports whether the contract traded today at a known price.
func (c OptionContractSnapshot) Active() bool {
	return c.Volume > 0 && c.VWAP > 0
}

// Premium is volume x vwap x 100.
func (c OptionContractSnapshot) Premium() float64 {
	return float64(c.Volume) * c.VWAP * ContractMultiplier
}

// Sweep: volume above open interest on a contract that has open interest.
func (c OptionContractSnapshot) Sweep() bool {
	return c.OpenInterest > 0 && c.Volume > c.OpenInterest
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
