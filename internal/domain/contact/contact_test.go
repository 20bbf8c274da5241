package contact_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/auscript/internal/domain/contact"
	. "github.com/smartystreets/goconvey/convey"
)

func newPost(body, contentType string) (*httptest.ResponseRecorder, *http.Request) {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return httptest.NewRecorder(), req
}

func TestKindOf(t *testing.T) {
	Convey("Given content type headers", t, func() {
		So(contact.KindOf("application/json"), ShouldEqual, contact.KindJSON)
		So(contact.KindOf("application/json; charset=utf-8"), ShouldEqual, contact.KindJSON)
		So(contact.KindOf("Application/JSON"), ShouldEqual, contact.KindJSON)
		So(contact.KindOf("application/merge-patch+json"), ShouldEqual, contact.KindJSON)
		So(contact.KindOf("application/x-www-form-urlencoded"), ShouldEqual, contact.KindForm)
		So(contact.KindOf("multipart/form-data; boundary=xyz"), ShouldEqual, contact.KindForm)
		So(contact.KindOf("text/plain"), ShouldEqual, contact.KindAbsent)
		So(contact.KindOf("text/json"), ShouldEqual, contact.KindAbsent)
		So(contact.KindOf(""), ShouldEqual, contact.KindAbsent)
		So(contact.KindOf(";;;"), ShouldEqual, contact.KindAbsent)
		So(contact.KindOf("application/json; charset"), ShouldEqual, contact.KindJSON)
		So(contact.KindOf("application/x-www-form-urlencoded; =bad"), ShouldEqual, contact.KindForm)
	})

	Convey("Given each kind", t, func() {
		So(contact.KindJSON.String(), ShouldEqual, "json")
		So(contact.KindForm.String(), ShouldEqual, "form")
		So(contact.KindAbsent.String(), ShouldEqual, "absent")
	})
}

func TestDecodeJSON(t *testing.T) {
	Convey("Given a JSON body", t, func() {
		Convey("When it is a flat object", func() {
			w, r := newPost(`{"name":"a","email":"b@c.d"}`, "application/json")
			sub, err := contact.Decode(w, r, 1024)

			Convey("Then every key should be kept", func() {
				So(err, ShouldBeNil)
				So(sub.Kind, ShouldEqual, contact.KindJSON)
				So(sub.Fields, ShouldResemble, map[string]string{"name": "a", "email": "b@c.d"})
				So(sub.ID, ShouldNotBeEmpty)
				So(sub.FieldNames(), ShouldResemble, []string{"email", "name"})
			})
		})

		Convey("When it holds non-string values", func() {
			w, r := newPost(`{"n": 1.50, "ok": true, "tags": [ "x", "y" ], "none": null}`, "application/json")
			sub, err := contact.Decode(w, r, 1024)

			Convey("Then they should be kept as compact JSON text", func() {
				So(err, ShouldBeNil)
				want := map[string]string{
					"n":    "1.50",
					"ok":   "true",
					"tags": `["x","y"]`,
					"none": "null",
				}
				So(cmp.Diff(want, sub.Fields), ShouldBeEmpty)
			})
		})

		Convey("When it is malformed", func() {
			for _, body := range []string{`{"name":`, ``, `[1,2]`, `null`, `"text"`, `{"a":"b"} {"c":"d"}`, `{"a":"b"}x`} {
				w, r := newPost(body, "application/json")
				_, err := contact.Decode(w, r, 1024)
				So(errors.Is(err, contact.ErrMalformedJSON), ShouldBeTrue)
			}
		})

		Convey("When it exceeds the size limit", func() {
			w, r := newPost(`{"message":"`+strings.Repeat("x", 200)+`"}`, "application/json")
			_, err := contact.Decode(w, r, 64)

			Convey("Then it should report a too large body", func() {
				So(errors.Is(err, contact.ErrBodyTooLarge), ShouldBeTrue)
			})
		})
	})
}

func TestDecodeForm(t *testing.T) {
	Convey("Given a form body", t, func() {
		Convey("When it is URL encoded", func() {
			w, r := newPost("name=a&email=b&name=second", "application/x-www-form-urlencoded")
			sub, err := contact.Decode(w, r, 1024)

			Convey("Then the first value of each key should be kept", func() {
				So(err, ShouldBeNil)
				So(sub.Kind, ShouldEqual, contact.KindForm)
				So(sub.Fields, ShouldResemble, map[string]string{"name": "a", "email": "b"})
			})
		})

		Convey("When it is multipart", func() {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			So(mw.WriteField("name", "a"), ShouldBeNil)
			So(mw.WriteField("message", "hello"), ShouldBeNil)
			So(mw.Close(), ShouldBeNil)

			w, r := newPost(buf.String(), mw.FormDataContentType())
			sub, err := contact.Decode(w, r, 1<<20)

			Convey("Then fields should be parsed", func() {
				So(err, ShouldBeNil)
				So(sub.Kind, ShouldEqual, contact.KindForm)
				So(sub.Fields, ShouldResemble, map[string]string{"name": "a", "message": "hello"})
			})
		})

		for _, tc := range []struct {
			name, body, contentType string
		}{
			{"the URL encoding is broken", "name=%zz&email=b", "application/x-www-form-urlencoded"},
			{"pairs are separated by semicolons", "name=a;b&email=b", "application/x-www-form-urlencoded"},
			{"multipart has no boundary", "whatever", "multipart/form-data"},
		} {
			Convey("When "+tc.name, func() {
				w, r := newPost(tc.body, tc.contentType)
				sub, err := contact.Decode(w, r, 1024)

				Convey("Then it should decode to an empty form", func() {
					So(err, ShouldBeNil)
					So(sub.Kind, ShouldEqual, contact.KindForm)
					So(sub.Fields, ShouldBeEmpty)
				})
			})
		}

		Convey("When a form is larger than the limit", func() {
			w, r := newPost("message="+strings.Repeat("x", 64), "application/x-www-form-urlencoded")
			_, err := contact.Decode(w, r, 16)

			Convey("Then it should still be rejected as too large", func() {
				So(errors.Is(err, contact.ErrBodyTooLarge), ShouldBeTrue)
			})
		})
	})
}

func TestDecodeAbsent(t *testing.T) {
	Convey("Given a body without a recognised content type", t, func() {
		w, r := newPost("name=a", "text/plain")
		sub, err := contact.Decode(w, r, 1024)

		Convey("Then it should decode to an empty absent submission", func() {
			So(err, ShouldBeNil)
			So(sub.Kind, ShouldEqual, contact.KindAbsent)
			So(sub.Fields, ShouldBeEmpty)
		})
	})
}
