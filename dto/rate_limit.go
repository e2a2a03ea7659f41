package dto

import "time"

type RateLimitInfo struct {
	Allowed    bool       `json:"allowed"`
	Limit      int        `json:"limit"`
	Remaining  int        `json:"remaining"`
	RetryAfter int        `json:"retry_after,omitempty"`
	ResetTime  *time.Time `json:"reset_time,omitempty"`
}
