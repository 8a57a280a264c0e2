package models

// InsightContext is the pre-aggregated payload a caller asks to have narrated.
type InsightContext struct {
	Scope    string           `json:"scope" validate:"required,max=64"`
	DarkPool *DarkPoolSummary `json:"darkPool" validate:"required"`
	Flow     *FlowSummary     `json:"flow,omitempty"`
	Gaps     *GapReport       `json:"gaps,omitempty"`
}

type InsightSource string

const (
	InsightFromModel    InsightSource = "model"
	InsightFromFallback InsightSource = "fallback"
)

type Insight struct {
	Text      string        `json:"insight"`
	Source    InsightSource `json:"source"`
	LatencyMs int64         `json:"latencyMs"`
}
