package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/fatih/color"
	flags "github.com/jessevdk/go-flags"
	"github.com/okian/auscript/internal/smoke"
	"github.com/okian/auscript/pkg/logger"
)

// Default configuration constants.
const (
	defaultRunTimeout = 2 * time.Minute
)

type options struct {
	URL         string        `short:"u" long:"url" default:"http://localhost:5555" description:"Base URL of the site"`
	Submissions int           `short:"n" long:"submissions" default:"100" description:"Number of concurrent JSON contact submissions"`
	Workers     int           `short:"w" long:"workers" description:"Number of concurrent workers (default CPU cores * 2)"`
	Timeout     time.Duration `short:"t" long:"timeout" default:"10s" description:"HTTP request timeout"`
	Verbose     bool          `short:"v" long:"verbose" description:"Log passing checks too"`
	JSON        bool          `long:"json" description:"Emit JSON logs"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU() * 2
	}

	format := logger.FormatText
	if opts.JSON {
		format = logger.FormatJSON
	}
	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	report, err := smoke.Run(ctx, &smoke.Config{
		BaseURL:     opts.URL,
		Submissions: opts.Submissions,
		Workers:     opts.Workers,
		Timeout:     opts.Timeout,
		Verbose:     opts.Verbose,
	})
	cancel()

	printReport(report)
	if err != nil {
		os.Exit(1)
	}
}

func printReport(report *smoke.Report) {
	if report == nil {
		return
	}
	pass := color.New(color.FgGreen, color.Bold).SprintFunc()
	fail := color.New(color.FgRed, color.Bold).SprintFunc()

	for _, res := range report.Results {
		if res.Passed {
			fmt.Printf("%s  %-36s %s\n", pass("PASS"), res.Name, res.Duration.Round(time.Millisecond))
			continue
		}
		fmt.Printf("%s  %-36s %s\n", fail("FAIL"), res.Name, res.Detail)
	}
	fmt.Printf("\nsubmissions: %d sent, %d failed in %s\n",
		report.Submitted, report.Failed, report.Duration.Round(time.Millisecond))
	if report.Passed() {
		fmt.Println(pass("smoke run passed"))
		return
	}
	fmt.Println(fail("smoke run failed"))
}
