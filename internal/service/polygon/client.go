package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"TradeYodha/internal/domain/models"
	xhttp "TradeYodha/pkg/http"
	"TradeYodha/pkg/logger"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	chainPageLimit = 250
	maxChainPages  = 20
)

var placeholderKeys = map[string]struct{}{
	"YOUR_API_KEY_HERE": {},
	"CHANGEME":          {},
}

// Configured reports whether key looks like a real credential.
func Configured(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if _, ok := placeholderKeys[strings.ToUpper(key)]; ok {
		return false
	}
	return !(strings.HasPrefix(key, "<") && strings.HasSuffix(key, ">"))
}

type Config struct {
	BaseURL          string
	APIKey           string
	UserAgent        string
	HTTPTimeout      time.Duration
	RPS              float64
	Burst            int
	MaxFailures      uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

// Client reads option chain and equity snapshots from a Polygon-compatible REST API.
// Every call passes through a shared rate limiter and circuit breaker.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *logger.Logger
}

type Option func(*Client)

// WithHTTPClient swaps the transport client, mainly for tests.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func New(cfg Config, log *logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		log:     log.With(logger.String("component", "polygon")),
	}
	if cfg.RPS <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, cfg.Burst)
	}
	c.http = xhttp.NewClient(xhttp.WithTimeout(cfg.HTTPTimeout), xhttp.WithUserAgent(cfg.UserAgent))
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "polygon",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("circuit breaker state change",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	})
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Configured() bool { return Configured(c.cfg.APIKey) }

// BreakerState exposes the breaker state for health reporting.
func (c *Client) BreakerState() string { return c.breaker.State().String() }

type chainResponse struct {
	Status  string          `json:"status"`
	Results []chainContract `json:"results"`
	NextURL string          `json:"next_url"`
}

type chainContract struct {
	Details struct {
		ContractType   string  `json:"contract_type"`
		ExpirationDate string  `json:"expiration_date"`
		StrikePrice    float64 `json:"strike_price"`
		Ticker         string  `json:"ticker"`
	} `json:"details"`
	Day struct {
		Volume float64 `json:"volume"`
		VWAP   float64 `json:"vwap"`
	} `json:"day"`
	OpenInterest float64 `json:"open_interest"`
}

// OptionChain returns every parseable contract of the underlying's chain.
// Records that fail validation are skipped.
func (c *Client) OptionChain(ctx context.Context, ticker string) ([]models.OptionContractSnapshot, error) {
	const op = "option_chain"
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	next := fmt.Sprintf("%s/v3/snapshot/options/%s", c.cfg.BaseURL, url.PathEscape(ticker))
	query := map[string][]string{"limit": {fmt.Sprint(chainPageLimit)}}

	var out []models.OptionContractSnapshot
	skipped := 0
	for page := 0; next != "" && page < maxChainPages; page++ {
		var resp chainResponse
		if err := c.get(ctx, op, next, query, &resp); err != nil {
			return nil, err
		}
		if strings.EqualFold(resp.Status, "ERROR") {
			return nil, &models.UpstreamError{Op: op, Kind: models.ErrUpstreamUnavailable, Err: errors.New("provider reported error status")}
		}
		for _, r := range resp.Results {
			snap, err := toContract(ticker, r)
			if err != nil {
				skipped++
				continue
			}
			out = append(out, snap)
		}
		// next_url already carries the cursor and limit.
		next, query = resp.NextURL, nil
	}
	if skipped > 0 {
		c.log.Debug("skipped malformed contracts", logger.String("ticker", ticker), logger.Int("count", skipped))
	}
	return out, nil
}

func toContract(underlying string, r chainContract) (models.OptionContractSnapshot, error) {
	typ, err := models.ParseContractType(r.Details.ContractType)
	if err != nil {
		return models.OptionContractSnapshot{}, err
	}
	expiry, err := time.Parse(models.ExpiryLayout, r.Details.ExpirationDate)
	if err != nil {
		return models.OptionContractSnapshot{}, fmt.Errorf("%w: expiry %q", models.ErrMalformedResponse, r.Details.ExpirationDate)
	}
	return models.NewOptionContractSnapshot(underlying, r.Details.StrikePrice, expiry, typ,
		toInt(r.Day.Volume), toInt(r.OpenInterest), r.Day.VWAP)
}

type equityResponse struct {
	Status  string `json:"status"`
	Tickers []struct {
		Ticker string `json:"ticker"`
		Day    struct {
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
		} `json:"day"`
		LastTrade struct {
			Price float64 `json:"p"`
		} `json:"lastTrade"`
		PrevDay struct {
			Close float64 `json:"c"`
		} `json:"prevDay"`
	} `json:"tickers"`
}

// EquitySnapshots fetches last price, prior close and day volume for tickers in one request.
func (c *Client) EquitySnapshots(ctx context.Context, tickers []string) ([]models.EquitySnapshot, error) {
	const op = "equity_snapshots"
	if len(tickers) == 0 {
		return nil, nil
	}

	var resp equityResponse
	endpoint := c.cfg.BaseURL + "/v2/snapshot/locale/us/markets/stocks/tickers"
	if err := c.get(ctx, op, endpoint, map[string][]string{"tickers": {strings.Join(tickers, ",")}}, &resp); err != nil {
		return nil, err
	}
	if strings.EqualFold(resp.Status, "ERROR") {
		return nil, &models.UpstreamError{Op: op, Kind: models.ErrUpstreamUnavailable, Err: errors.New("provider reported error status")}
	}

	out := make([]models.EquitySnapshot, 0, len(resp.Tickers))
	for _, t := range resp.Tickers {
		last := t.LastTrade.Price
		if last <= 0 {
			last = t.Day.Close
		}
		snap, err := models.NewEquitySnapshot(t.Ticker, last, t.PrevDay.Close, toInt(t.Day.Volume))
		if err != nil {
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}

// get performs one rate-limited, breaker-guarded GET and decodes the body into dest.
func (c *Client) get(ctx context.Context, op, endpoint string, query map[string][]string, dest interface{}) error {
	if !c.Configured() {
		return &models.UpstreamError{Op: op, Kind: models.ErrNotConfigured, Err: errors.New("missing api key")}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &models.UpstreamError{Op: op, Kind: models.ErrUpstreamTimeout, Err: err}
	}

	q := map[string][]string{"apiKey": {c.cfg.APIKey}}
	for k, v := range query {
		q[k] = v
	}

	var body []byte
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         endpoint,
			QueryParams: q,
		}, &body)
	})
	if err != nil {
		return classify(ctx, op, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &models.UpstreamError{Op: op, Kind: models.ErrMalformedResponse, Err: err}
	}
	return nil
}

func classify(ctx context.Context, op string, err error) error {
	ue := &models.UpstreamError{Op: op, Kind: models.ErrUpstreamUnavailable, Err: redact(err)}

	var se *xhttp.StatusError
	var ne net.Error
	switch {
	case errors.As(err, &se):
		ue.Status = se.StatusCode
		// The api key is echoed back in some error bodies.
		ue.Err = fmt.Errorf("%s", http.StatusText(se.StatusCode))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		ue.Kind = models.ErrUpstreamTimeout
	case errors.As(err, &ne) && ne.Timeout():
		ue.Kind = models.ErrUpstreamTimeout
	}
	return ue
}

// redact drops the request URL, whose query carries the api key, from
// transport errors. The cause stays wrapped.
func redact(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	return fmt.Errorf("%s %s: %w", uerr.Op, stripQuery(uerr.URL), uerr.Err)
}

func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<upstream>"
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

// breakerSuccess keeps client errors other than throttling from tripping the breaker.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
	}
	return false
}

func toInt(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return -1
	}
	return int64(math.Round(f))
}
