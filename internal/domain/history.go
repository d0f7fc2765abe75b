package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateHistoryEntry is one sampled exchange rate.
type RateHistoryEntry struct {
	ID        string          `json:"id"`
	Pair      CurrencyPair    `json:"pair"`
	Rate      decimal.Decimal `json:"rate"`
	Source    string          `json:"source,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// AlertHistoryEntry records one allowed alert trigger. Name, pair and
// condition are snapshots: editing or deleting the alert later must not
// rewrite its history.
type AlertHistoryEntry struct {
	ID           string           `json:"id"`
	AlertID      string           `json:"alertId"`
	AlertName    string           `json:"alertName"`
	Pair         CurrencyPair     `json:"pair"`
	Condition    Condition        `json:"condition"`
	Rate         decimal.Decimal  `json:"rate"`
	PreviousRate *decimal.Decimal `json:"previousRate,omitempty"`
	Message      string           `json:"message"`
	Notified     bool             `json:"notified"`
	TriggeredAt  time.Time        `json:"triggeredAt"`
}
