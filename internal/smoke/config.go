// Package smoke drives a running site over HTTP and checks every route
// behaves as documented.
package smoke

import (
	"errors"
	"time"
)

// ErrCheckFailed is returned by Run when at least one check failed.
var ErrCheckFailed = errors.New("smoke check failed")

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL     string        // Base URL of the site
	Submissions int           // Number of concurrent JSON contact submissions
	Workers     int           // Number of concurrent workers for submissions
	Timeout     time.Duration // HTTP request timeout
	Verbose     bool          // Log every passing check
}

// Result is the outcome of one check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Duration time.Duration
}

// Report summarises a run.
type Report struct {
	Results   []Result
	Submitted int64
	Failed    int64
	Duration  time.Duration
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return r.Failed == 0
}
