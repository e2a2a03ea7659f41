package dto

import "time"

type HistoryEntry struct {
	ID           string    `json:"id"`
	IPCount      int       `json:"ip_count"`
	SuccessCount int       `json:"success_count"`
	ErrorCount   int       `json:"error_count"`
	TopCountry   string    `json:"top_country,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}
