package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type check struct {
	name string
	run  func(ctx context.Context, c *HTTPClient) error
}

func expect(resp Response, status int, contains ...string) error {
	if resp.Status != status {
		return fmt.Errorf("status %d, want %d", resp.Status, status)
	}
	for _, s := range contains {
		if !strings.Contains(resp.Body, s) {
			return fmt.Errorf("body does not contain %q", s)
		}
	}
	return nil
}

func pageCheck(path string, contains ...string) check {
	return check{
		name: "GET " + path,
		run: func(ctx context.Context, c *HTTPClient) error {
			resp, err := c.Get(ctx, path)
			if err != nil {
				return err
			}
			if !strings.HasPrefix(resp.ContentType, "text/html") {
				return fmt.Errorf("content type %q, want text/html", resp.ContentType)
			}
			return expect(resp, http.StatusOK, contains...)
		},
	}
}

func checks() []check {
	return []check{
		pageCheck("/", "Home Page"),
		pageCheck("/home", "Home Page"),
		pageCheck("/contact", "A Form Example", "Powered by Aurelia Script and Aurelia Validation"),
		pageCheck("/about", "About", "Your application description page.", "AAAAAAA Prro trais el piton"),
		pageCheck("/pictures", "Pictures"),
		{
			name: "POST /contact json",
			run: func(ctx context.Context, c *HTTPClient) error {
				resp, err := c.PostJSON(ctx, "/contact", map[string]string{"name": "smoke", "message": "hello"})
				if err != nil {
					return err
				}
				if err := expect(resp, http.StatusOK); err != nil {
					return err
				}
				var ack struct {
					Message string `json:"message"`
				}
				if err := json.Unmarshal([]byte(resp.Body), &ack); err != nil {
					return fmt.Errorf("ack is not JSON: %w", err)
				}
				if ack.Message != "Thanks! we have your message now!" {
					return fmt.Errorf("ack message %q", ack.Message)
				}
				return nil
			},
		},
		{
			name: "POST /contact malformed json",
			run: func(ctx context.Context, c *HTTPClient) error {
				resp, err := c.Post(ctx, "/contact", "application/json", `{"name":`)
				if err != nil {
					return err
				}
				return expect(resp, http.StatusBadRequest)
			},
		},
		{
			name: "POST /contact form",
			run: func(ctx context.Context, c *HTTPClient) error {
				resp, err := c.Post(ctx, "/contact", "application/x-www-form-urlencoded", "name=smoke&message=hello")
				if err != nil {
					return err
				}
				return expect(resp, http.StatusOK, "I have been Sent thanks!", "If you have another inquiry you can contact us again")
			},
		},
		{
			name: "POST /contact empty",
			run: func(ctx context.Context, c *HTTPClient) error {
				resp, err := c.Post(ctx, "/contact", "", "")
				if err != nil {
					return err
				}
				return expect(resp, http.StatusOK, "I have been Sent thanks!")
			},
		},
		{
			name: "PUT /contact",
			run: func(ctx context.Context, c *HTTPClient) error {
				resp, err := c.do(ctx, http.MethodPut, "/contact", "", nil)
				if err != nil {
					return err
				}
				return expect(resp, http.StatusMethodNotAllowed)
			},
		},
		staticCheck("/static/scripts/contact.js"),
		{
			name: "GET unknown path",
			run: func(ctx context.Context, c *HTTPClient) error {
				resp, err := c.Get(ctx, "/does-not-exist")
				if err != nil {
					return err
				}
				return expect(resp, http.StatusNotFound)
			},
		},
	}
}

func staticCheck(path string) check {
	return check{
		name: "GET " + path,
		run: func(ctx context.Context, c *HTTPClient) error {
			resp, err := c.Get(ctx, path)
			if err != nil {
				return err
			}
			return expect(resp, http.StatusOK)
		},
	}
}
