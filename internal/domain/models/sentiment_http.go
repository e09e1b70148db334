package models

// Requests and responses for the sentiment HTTP endpoints. Defined in domain
// for consistency and reuse.

type AnalyzeRequest struct {
	Text string `json:"text" validate:"required,min=1,max=512"`
}

type AnalyzeResponse struct {
	Sentiment  Label   `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

type HealthResponse struct {
	Status               string `json:"status"`
	Service              string `json:"service"`
	ModelLoaded          bool   `json:"model_loaded"`
	SentimentHistorySize int    `json:"sentiment_history_size"`
}
