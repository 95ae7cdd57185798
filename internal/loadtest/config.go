// Package loadtest drives a running prediction server with concurrent
// matchups and checks every answer for consistency.
package loadtest

import (
	"errors"
	"time"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultRequests = 500
	DefaultWorkers  = 8
	DefaultTimeout  = 10 * time.Second
)

// ErrTooFewFighters is returned when the server knows fewer than two fighters.
var ErrTooFewFighters = errors.New("loadtest: need at least two fighters")

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // base URL of the server, e.g. http://localhost:3000
	Requests int           // number of predictions to send
	Workers  int           // concurrent in-flight requests
	Timeout  time.Duration // per-request timeout
	QPS      float64       // overall request rate; 0 means unlimited

	// UnknownRatio is the share of matchups sent with a misspelled first
	// fighter, to exercise the not-found path.
	UnknownRatio float64

	// Seed makes matchup generation reproducible.
	Seed uint64
}

func (c Config) withDefaults() Config {
	if c.Requests <= 0 {
		c.Requests = DefaultRequests
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UnknownRatio < 0 {
		c.UnknownRatio = 0
	}
	return c
}

// Matchup is one generated request.
type Matchup struct {
	Fighter1 string `json:"fighter1"`
	Fighter2 string `json:"fighter2"`
	Unknown  bool   `json:"-"`
}

// Outcome is what happened to one matchup.
type Outcome struct {
	Matchup Matchup
	Status  int
	Latency time.Duration
	// Problem is empty when the response passed verification.
	Problem string
}
