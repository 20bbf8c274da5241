// Package contact models contact-form submissions and decodes them from
// HTTP requests according to the declared content type.
package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind tags how a submission body was sent.
type Kind int

// Body kinds. KindAbsent covers a missing or unrecognised content type.
const (
	KindAbsent Kind = iota
	KindJSON
	KindForm
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindForm:
		return "form"
	default:
		return "absent"
	}
}

const multipartMemory = 32 << 20

// Submission is one decoded contact request. It is never stored.
type Submission struct {
	ID         string
	Kind       Kind
	Fields     map[string]string
	ReceivedAt time.Time
}

// FieldNames returns the submitted field names in sorted order.
func (s Submission) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KindOf classifies a Content-Type header value.
func KindOf(contentType string) Kind {
	mediaType := mediaTypeOf(contentType)
	switch {
	case mediaType == "application/json":
		return KindJSON
	case strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"):
		return KindJSON
	case mediaType == "application/x-www-form-urlencoded", mediaType == "multipart/form-data":
		return KindForm
	default:
		return KindAbsent
	}
}

func mediaTypeOf(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	// A broken parameter still leaves a usable media type.
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return ""
	}
	return mediaType
}

// Decode reads the request body according to its content type. Bodies larger
// than maxBytes fail with ErrBodyTooLarge; maxBytes <= 0 disables the limit.
// Only JSON bodies can be malformed: a form that does not parse decodes to
// no fields.
func Decode(w http.ResponseWriter, r *http.Request, maxBytes int64) (Submission, error) {
	const op = "contact.decode"

	sub := Submission{
		ID:         uuid.NewString(),
		Kind:       KindOf(r.Header.Get("Content-Type")),
		Fields:     map[string]string{},
		ReceivedAt: time.Now(),
	}
	if maxBytes > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	var err error
	switch sub.Kind {
	case KindJSON:
		sub.Fields, err = decodeJSON(r.Body)
	case KindForm:
		sub.Fields, err = decodeForm(r)
		if errors.Is(err, ErrMalformedForm) {
			// An unparseable form reads as an empty one.
			sub.Fields, err = map[string]string{}, nil
		}
	case KindAbsent:
	}
	if err != nil {
		return Submission{}, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

func decodeJSON(body io.Reader) (map[string]string, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedJSON)
	}
	dec := json.NewDecoder(body)

	var obj map[string]json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		if tooLarge(err) {
			return nil, fmt.Errorf("%w: %w", ErrBodyTooLarge, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: top level value must be an object", ErrMalformedJSON)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if tooLarge(err) {
			return nil, fmt.Errorf("%w: %w", ErrBodyTooLarge, err)
		}
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedJSON)
	}

	fields := make(map[string]string, len(obj))
	for key, raw := range obj {
		fields[key] = jsonText(raw)
	}
	return fields, nil
}

// jsonText keeps strings as-is and any other value as compact JSON.
func jsonText(raw json.RawMessage) string {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func decodeForm(r *http.Request) (map[string]string, error) {
	var err error
	if mediaTypeOf(r.Header.Get("Content-Type")) == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		if tooLarge(err) {
			return nil, fmt.Errorf("%w: %w", ErrBodyTooLarge, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedForm, err)
	}

	fields := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}
	return fields, nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
