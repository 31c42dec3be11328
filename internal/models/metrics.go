// Package models defines the data structures exchanged by the query service,
// the collection scheduler and the HTTP API. They are serialized to JSON.
package models

import "time"

// Query is the collector query contract: a registry key plus the decode
// field selection and the get parameters.
type Query struct {
	Module  string `json:"module"`
	Purpose string `json:"purpose"`
	Field   string `json:"field"`
	Para    string `json:"para"`
}

// Result is the projected output of one query.
type Result struct {
	Module   string        `json:"module"`
	Purpose  string        `json:"purpose"`
	Value    string        `json:"value"`
	Duration time.Duration `json:"duration_ns"`
}

// Sample is one round of a collection session: every query run once.
type Sample struct {
	Round     int          `json:"round"`
	Timestamp time.Time    `json:"timestamp"`
	Results   []Result     `json:"results"`
	Errors    []QueryError `json:"errors,omitempty"`
}

// QueryError records a failed query inside a Sample.
type QueryError struct {
	Module  string `json:"module"`
	Purpose string `json:"purpose"`
	Error   string `json:"error"`
}

// MonitorInfo describes a registered monitor.
type MonitorInfo struct {
	Module  string   `json:"module"`
	Purpose string   `json:"purpose"`
	Fields  []string `json:"fields"`
}
