package smoke

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/auscript/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Run executes every route check, then a burst of concurrent submissions.
// It returns ErrCheckFailed when anything failed; the report is always filled.
func Run(ctx context.Context, config *Config) (*Report, error) {
	log := logger.Named("smoke")
	start := time.Now()
	client := NewHTTPClient(config.BaseURL, config.Timeout)
	report := &Report{}

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("submissions", config.Submissions),
		logger.Int("workers", config.Workers),
	)

	for _, c := range checks() {
		began := time.Now()
		err := c.run(ctx, client)
		res := Result{Name: c.name, Passed: err == nil, Duration: time.Since(began)}
		if err != nil {
			res.Detail = err.Error()
			log.Error(ctx, "check failed", logger.String("check", c.name), logger.Error(err))
		} else if config.Verbose {
			log.Info(ctx, "check passed", logger.String("check", c.name))
		}
		report.Results = append(report.Results, res)
	}

	submitConcurrently(ctx, client, config, report)
	report.Duration = time.Since(start)

	log.Info(ctx, "smoke run finished",
		logger.Int("checks", len(report.Results)),
		logger.Int("submitted", int(report.Submitted)),
		logger.Int("failed", int(report.Failed)),
		logger.String("duration", report.Duration.String()),
	)
	if !report.Passed() {
		return report, ErrCheckFailed
	}
	return report, nil
}

// submitConcurrently posts config.Submissions JSON messages, at most
// config.Workers at a time.
func submitConcurrently(ctx context.Context, client *HTTPClient, config *Config, report *Report) {
	if config.Submissions <= 0 {
		return
	}
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}

	var (
		g         errgroup.Group
		submitted atomic.Int64
		failed    atomic.Int64
	)
	g.SetLimit(workers)
	for n := 0; n < config.Submissions && ctx.Err() == nil; n++ {
		g.Go(func() error {
			resp, err := client.PostJSON(ctx, "/contact", map[string]string{
				"name":    "smoke-" + strconv.Itoa(n),
				"message": fmt.Sprintf("burst message %d", n),
			})
			submitted.Add(1)
			if err != nil || resp.Status != http.StatusOK {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Submitted = submitted.Load()
	report.Failed = failed.Load()
}
