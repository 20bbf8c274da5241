package smoke_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/auscript/internal/adapters/http/api"
	"github.com/okian/auscript/internal/adapters/http/site"
	service "github.com/okian/auscript/internal/app"
	"github.com/okian/auscript/internal/smoke"
	"github.com/okian/auscript/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running site", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(256))
		So(svc.Start(ctx), ShouldBeNil)

		renderer, err := site.NewRenderer()
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		site.NewServer(renderer, site.WithObserver(svc)).Register(ctx, mux)
		api.NewServer(svc, nil).Register(ctx, mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		Convey("When the smoke run targets it", func() {
			report, err := smoke.Run(ctx, &smoke.Config{
				BaseURL:     ts.URL,
				Submissions: 20,
				Workers:     4,
				Timeout:     5 * time.Second,
			})
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then every check passes", func() {
				So(err, ShouldBeNil)
				for _, res := range report.Results {
					So(res.Detail, ShouldBeEmpty)
				}
				So(report.Passed(), ShouldBeTrue)
				So(report.Submitted, ShouldEqual, 20)
			})

			Convey("And each accepted submission is observed exactly once", func() {
				// 20 burst posts plus the json, form and empty checks
				So(svc.GetStats()["processed"], ShouldEqual, int64(23))
			})
		})
	})

	Convey("Given a server that answers 404 everywhere", t, func() {
		ts := httptest.NewServer(http.NotFoundHandler())
		defer ts.Close()

		Convey("When the smoke run targets it", func() {
			report, err := smoke.Run(context.Background(), &smoke.Config{BaseURL: ts.URL, Timeout: time.Second})

			Convey("Then it reports failure", func() {
				So(errors.Is(err, smoke.ErrCheckFailed), ShouldBeTrue)
				So(report.Passed(), ShouldBeFalse)
			})
		})
	})
}

func TestHTTPClient(t *testing.T) {
	Convey("Given a client against a fixed handler", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(r.Method + " " + r.URL.Path + " " + r.Header.Get("Content-Type")))
		}))
		defer ts.Close()
		client := smoke.NewHTTPClient(ts.URL+"/", time.Second)
		ctx := context.Background()

		Convey("When it issues a GET", func() {
			var resp smoke.Response
			resp, err := client.Get(ctx, "/about")

			Convey("Then the exported response carries status, type and body", func() {
				So(err, ShouldBeNil)
				So(resp.Status, ShouldEqual, http.StatusOK)
				So(resp.ContentType, ShouldEqual, "text/plain")
				So(resp.Body, ShouldEqual, "GET /about ")
			})
		})

		Convey("When it posts JSON and a raw body", func() {
			jsonResp, err := client.PostJSON(ctx, "/contact", map[string]string{"name": "x"})
			So(err, ShouldBeNil)
			rawResp, err := client.Post(ctx, "/contact", "text/plain", "hi")
			So(err, ShouldBeNil)

			Convey("Then each sets its content type", func() {
				So(jsonResp.Body, ShouldEqual, "POST /contact application/json")
				So(rawResp.Body, ShouldEqual, "POST /contact text/plain")
			})
		})
	})
}
