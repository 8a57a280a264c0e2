package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"TradeYodha/internal/domain/models"
	domrepo "TradeYodha/internal/domain/repository"
	"TradeYodha/pkg/logger"
)

type ScopeSource string

const (
	FromRequest   ScopeSource = "request"
	FromWatchlist ScopeSource = "watchlist"
	FromDefault   ScopeSource = "default"
	FromBuiltin   ScopeSource = "builtin"
)

const DefaultMaxTickers = 20

// BuiltinWatchlist is the last-resort scope.
var BuiltinWatchlist = []string{"SPY", "QQQ"}

var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

// Scope is a resolved ticker set plus the label used in summaries and cache keys.
type Scope struct {
	Label   string      `json:"label"`
	Tickers []string    `json:"tickers"`
	Source  ScopeSource `json:"source"`
}

// ScopeResolver picks tickers in a fixed order: explicit request, the user's
// stored watchlist, the configured default, then BuiltinWatchlist.
type ScopeResolver struct {
	store      domrepo.WatchlistStore
	defaults   []string
	maxTickers int
	log        *logger.Logger
}

func NewScopeResolver(store domrepo.WatchlistStore, defaults []string, maxTickers int, log *logger.Logger) *ScopeResolver {
	if maxTickers <= 0 {
		maxTickers = DefaultMaxTickers
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ScopeResolver{store: store, defaults: defaults, maxTickers: maxTickers, log: log}
}

// Resolve returns ErrInvalidTickers only for an explicit request list.
// Stored and configured lists are cleaned instead of rejected.
func (r *ScopeResolver) Resolve(ctx context.Context, raw, userID string) (Scope, error) {
	if strings.TrimSpace(raw) != "" {
		tickers, err := ParseTickers(raw, r.maxTickers)
		if err != nil {
			return Scope{}, err
		}
		return Scope{Label: label(tickers), Tickers: tickers, Source: FromRequest}, nil
	}

	if userID != "" && r.store != nil {
		wl, err := r.store.Watchlist(ctx, userID)
		if err != nil {
			r.log.Warn("watchlist lookup failed", logger.String("user_id", userID), logger.Error(err))
		} else if tickers := r.clean(wl); len(tickers) > 0 {
			return Scope{Label: "watchlist", Tickers: tickers, Source: FromWatchlist}, nil
		}
	}

	if tickers := r.clean(r.defaults); len(tickers) > 0 {
		return Scope{Label: "default", Tickers: tickers, Source: FromDefault}, nil
	}
	return Scope{Label: "market", Tickers: append([]string(nil), BuiltinWatchlist...), Source: FromBuiltin}, nil
}

// ParseTickers splits a comma or space separated list, upper-cases and
// de-duplicates it keeping first-seen order.
func ParseTickers(raw string, max int) ([]string, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		t := strings.ToUpper(strings.TrimSpace(f))
		if !tickerPattern.MatchString(t) {
			return nil, fmt.Errorf("%w: %q", models.ErrInvalidTickers, f)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty list", models.ErrInvalidTickers)
	}
	if max > 0 && len(out) > max {
		return nil, fmt.Errorf("%w: %d tickers exceeds limit of %d", models.ErrInvalidTickers, len(out), max)
	}
	return out, nil
}

func (r *ScopeResolver) clean(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		t := strings.ToUpper(strings.TrimSpace(s))
		if !tickerPattern.MatchString(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == r.maxTickers {
			break
		}
	}
	return out
}

func label(tickers []string) string {
	if len(tickers) == 1 {
		return tickers[0]
	}
	return "custom"
}
