package models

import "time"

// DateLayout is the UTC calendar-date key format used by the ledger.
const DateLayout = "2006-01-02"

// DailyStats aggregates ledger activity for one UTC calendar date.
// TotalSpent equals the sum of Cost over charged transactions for that
// date; a fresh zero record starts at each UTC midnight under a new key.
type DailyStats struct {
	Date            string  `db:"date" json:"date"`
	TotalSpent      float64 `db:"total_spent" json:"totalSpent"`
	RequestsToday   int     `db:"requests_today" json:"requestsToday"`
	ChargedRequests int     `db:"charged_requests" json:"chargedRequests"`
	FreeRequests    int     `db:"free_requests" json:"freeRequests"`
}

// DateKey formats a point in time as the ledger's UTC date key.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
