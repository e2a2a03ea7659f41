package model

import "time"

// AnalysisRecord is the persisted summary of one analyze call. The per-IP
// results themselves are ephemeral; only the aggregate survives.
type AnalysisRecord struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"index;not null"`
	IPCount      int    `gorm:"not null"`
	SuccessCount int
	ErrorCount   int
	TopCountry   string
	DurationMs   int64
	CreatedAt    time.Time
}

func (AnalysisRecord) TableName() string {
	return "analysis_records"
}
