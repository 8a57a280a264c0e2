package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"TradeYodha/internal/domain/models"
	applogger "TradeYodha/pkg/logger"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CHPrintStore reads dark-pool prints from ClickHouse.
type CHPrintStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHPrintStore(db *sql.DB, table string, l *applogger.Logger) (*CHPrintStore, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid prints table %q", table)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPrintStore{db: db, table: table, l: l}, nil
}

// PrintsTableDDL creates the table the ingest side writes to.
func PrintsTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    ts     DateTime64(3, 'UTC'),
    ticker LowCardinality(String),
    price  Float64,
    size   Int64,
    bid    Float64,
    ask    Float64
) ENGINE = MergeTree
PARTITION BY toDate(ts)
ORDER BY (ticker, ts)
TTL toDateTime(ts) + INTERVAL 30 DAY`, table)
}

// Prints returns up to limit prints for ticker at or after since, newest first.
// Rows that fail validation are skipped.
func (s *CHPrintStore) Prints(ctx context.Context, ticker string, since time.Time, limit int) ([]models.DarkPoolPrint, error) {
	start := time.Now()
	q := fmt.Sprintf(`SELECT ticker, ts, price, size, bid, ask FROM %s WHERE ticker = ? AND ts >= ? ORDER BY ts DESC LIMIT ?`, s.table)

	rows, err := s.db.QueryContext(ctx, q, ticker, since.UTC(), limit)
	if err != nil {
		return nil, s.fail("query", ticker, err)
	}
	defer rows.Close()

	out := make([]models.DarkPoolPrint, 0, 64)
	skipped := 0
	for rows.Next() {
		var (
			sym             string
			ts              time.Time
			price, bid, ask float64
			size            int64
		)
		if err := rows.Scan(&sym, &ts, &price, &size, &bid, &ask); err != nil {
			return nil, s.fail("scan", ticker, err)
		}
		p, err := models.NewDarkPoolPrint(sym, price, size, ts, bid, ask)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("rows", ticker, err)
	}

	s.l.Debug("clickhouse prints ok",
		applogger.String("table", s.table),
		applogger.String("ticker", ticker),
		applogger.Int("rows", len(out)),
		applogger.Int("skipped", skipped),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHPrintStore) fail(stage, ticker string, err error) error {
	s.l.Error("clickhouse prints "+stage+" error",
		applogger.String("table", s.table),
		applogger.String("ticker", ticker),
		applogger.Error(err),
	)
	kind := models.ErrUpstreamUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = models.ErrUpstreamTimeout
	}
	return &models.UpstreamError{Op: "darkpool_prints", Kind: kind, Err: fmt.Errorf("%s: %w", stage, err)}
}
