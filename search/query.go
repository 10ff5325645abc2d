package search

import (
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Query represents the structured parameters of a profile search.
// It decouples the raw user input from the actual index requirements.
type Query struct {
	RawInput  string // The original input from the user
	Terms     string // Lowercased text, wildcard characters removed
	ExcludeID string // Profile never returned, usually the caller
	Limit     int
}

// NewQuery normalizes the raw input. A limit <= 0 falls back to
// DefaultLimit and is capped at MaxLimit.
func NewQuery(input, excludeID string, limit int) Query {
	terms := strings.Map(func(r rune) rune {
		if r == '*' || r == '?' || r == '\\' {
			return -1
		}
		return r
	}, strings.ToLower(input))

	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return Query{
		RawInput:  input,
		Terms:     strings.Join(strings.Fields(terms), " "),
		ExcludeID: excludeID,
		Limit:     limit,
	}
}

func (q Query) IsEmpty() bool {
	return q.Terms == ""
}
