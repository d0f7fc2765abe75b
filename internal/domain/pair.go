package domain

import (
	"fmt"
	"strings"
)

// CurrencyPair identifies a quoted exchange rate: one unit of From priced in To.
type CurrencyPair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NewCurrencyPair validates and normalises two ISO 4217 style codes.
func NewCurrencyPair(from, to string) (CurrencyPair, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if !validCurrencyCode(from) {
		return CurrencyPair{}, ValidationError{Field: "fromCurrency", Reason: "must be a 3-letter currency code"}
	}
	if !validCurrencyCode(to) {
		return CurrencyPair{}, ValidationError{Field: "toCurrency", Reason: "must be a 3-letter currency code"}
	}
	if from == to {
		return CurrencyPair{}, ValidationError{Field: "toCurrency", Reason: "must differ from fromCurrency"}
	}

	return CurrencyPair{From: from, To: to}, nil
}

// ParsePairKey parses the "FROM/TO" form produced by Key.
func ParsePairKey(key string) (CurrencyPair, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 2 {
		return CurrencyPair{}, fmt.Errorf("invalid currency pair %q, expected FROM/TO", key)
	}
	return NewCurrencyPair(parts[0], parts[1])
}

// Key returns the canonical "FROM/TO" form used to group history entries.
func (p CurrencyPair) Key() string {
	return p.From + "/" + p.To
}

func (p CurrencyPair) String() string {
	return p.Key()
}

// IsZero reports whether the pair is unset.
func (p CurrencyPair) IsZero() bool {
	return p.From == "" && p.To == ""
}

func validCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
