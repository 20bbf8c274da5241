package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	app "github.com/okian/auscript/internal/app"
	"github.com/okian/auscript/internal/config"
	"github.com/okian/auscript/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given the assembled handler", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New()
		svc := app.New(app.WithWorkerCount(1), app.WithQueueSize(8))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		handler, err := newHandler(ctx, cfg, svc)
		convey.So(err, convey.ShouldBeNil)

		do := func(method, path, contentType, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(method, path, strings.NewReader(body))
			if contentType != "" {
				req.Header.Set("Content-Type", contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			return rec
		}

		convey.Convey("When every page route is requested", func() {
			for _, path := range []string{"/", "/home", "/contact", "/about", "/pictures", "/static/css/site.css"} {
				rec := do(http.MethodGet, path, "", "")
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("When a JSON contact message is posted", func() {
			rec := do(http.MethodPost, "/contact", "application/json", `{"name":"a"}`)

			convey.Convey("Then it is acknowledged and counted by the observer", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "Thanks! we have your message now!")
				convey.So(svc.GetStats()["observed"], convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When the operational endpoints are requested", func() {
			convey.So(do(http.MethodGet, "/healthz", "", "").Code, convey.ShouldEqual, http.StatusOK)
			stats := do(http.MethodGet, "/stats", "", "")
			convey.So(stats.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(stats.Body.String(), convey.ShouldContainSubstring, `"workerCount":1`)
		})

		convey.Convey("When debug is on", func() {
			rec := do(http.MethodGet, "/about", "", "")

			convey.Convey("Then pages carry the debug marker", func() {
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, `data-debug="true"`)
			})
		})
	})

	convey.Convey("Given a production config", t, func() {
		cfg := config.New()
		cfg.Env = "production"
		handler, err := newHandler(context.Background(), cfg, app.New())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then pages render without the debug marker", func() {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldNotContainSubstring, `data-debug`)
		})
	})
}

func TestUpdateMetrics(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("Then they run without a started service", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})

		convey.Convey("And the tickers stop with their context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, app.New())
				close(done)
			}()
			cancel()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("metrics updaters did not stop")
			}
		})
	})
}
