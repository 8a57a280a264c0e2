package service

import "context"

// InsightGenerator turns a rendered summary into prose. Implementations may fail
// or time out; callers recover locally.
type InsightGenerator interface {
	Generate(ctx context.Context, summary string) (string, error)
}
