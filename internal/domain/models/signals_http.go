package models

// Query models for the signal endpoints.

type FlowSummaryRequest struct {
	Tickers string `query:"tickers" json:"tickers" validate:"max=512"`
}

type OvernightGapsRequest struct {
	Tickers   string `query:"tickers" json:"tickers" validate:"max=512"`
	TopMovers int    `query:"top_movers" json:"top_movers" default:"5" validate:"gte=0"`
}

type DarkPoolSummaryRequest struct {
	Tickers string `query:"tickers" json:"tickers" validate:"max=512"`
	Window  string `query:"window" json:"window" default:"1h" validate:"window"`
}
