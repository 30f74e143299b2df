package fetch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/bytedance/sonic"
)

// PayloadType selects how a response body is materialized.
type PayloadType string

const (
	PayloadBinary  PayloadType = "binary"
	PayloadText    PayloadType = "text"
	PayloadDiscard PayloadType = "discard"
)

func (t PayloadType) valid() bool {
	switch t {
	case PayloadBinary, PayloadText, PayloadDiscard:
		return true
	}
	return false
}

// Options carries the caller's overrides for one fetch. ResponseType is
// required; everything else is optional. A nil *Options means a plain
// binary GET.
type Options struct {
	ResponseType PayloadType       `json:"responseType"`
	Method       string            `json:"method,omitempty"`
	Headers      HeaderMap         `json:"headers,omitempty"`
	Cookies      map[string]string `json:"cookies,omitempty"`
	Redirect     *Redirect         `json:"redirect,omitempty"`
	Body         *Body             `json:"body,omitempty"`
}

// HeaderMap is a multi-valued header map. On input a key may carry either
// a single string or an array of strings.
type HeaderMap map[string][]string

// UnmarshalJSON accepts {"k": "v"} and {"k": ["v1", "v2"]} forms, keys
// canonicalized.
func (h *HeaderMap) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(HeaderMap, len(raw))
	for k, v := range raw {
		key := textproto.CanonicalMIMEHeaderKey(k)
		switch val := v.(type) {
		case string:
			out[key] = append(out[key], val)
		case []interface{}:
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("header %q: values must be strings", k)
				}
				out[key] = append(out[key], s)
			}
		default:
			return fmt.Errorf("header %q: value must be a string or an array of strings", k)
		}
	}

	*h = out
	return nil
}

// Body is a tagged request or response payload, binary or text.
type Body struct {
	Type PayloadType
	Data []byte
}

// BinaryBody wraps raw bytes.
func BinaryBody(data []byte) *Body {
	return &Body{Type: PayloadBinary, Data: data}
}

// TextBody wraps a decoded string.
func TextBody(text string) *Body {
	return &Body{Type: PayloadText, Data: []byte(text)}
}

// Text returns the payload as a string.
func (b *Body) Text() string {
	return string(b.Data)
}

// UnmarshalJSON reads the {"type": ..., "payload": ...} form. Binary
// payloads may be base64 strings or arrays of byte values.
func (b *Body) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := sonic.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch PayloadType(wire.Type) {
	case PayloadBinary:
		var bin []byte
		if err := sonic.Unmarshal(wire.Payload, &bin); err != nil {
			var nums []int
			if err := sonic.Unmarshal(wire.Payload, &nums); err != nil {
				return fmt.Errorf("binary body: payload must be base64 or an array of bytes")
			}
			bin = make([]byte, len(nums))
			for i, n := range nums {
				if n < 0 || n > 255 {
					return fmt.Errorf("binary body: value %d is not a byte", n)
				}
				bin[i] = byte(n)
			}
		}
		b.Type, b.Data = PayloadBinary, bin
	case PayloadText:
		var s string
		if err := sonic.Unmarshal(wire.Payload, &s); err != nil {
			return fmt.Errorf("text body: payload must be a string")
		}
		b.Type, b.Data = PayloadText, []byte(s)
	default:
		return fmt.Errorf("body type must be %q or %q", PayloadBinary, PayloadText)
	}
	return nil
}

// MarshalJSON writes the tagged form; binary payloads encode as base64.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.Type == PayloadText {
		return sonic.Marshal(struct {
			Type    string `json:"type"`
			Payload string `json:"payload"`
		}{string(PayloadText), string(b.Data)})
	}
	return sonic.Marshal(struct {
		Type    string `json:"type"`
		Payload []byte `json:"payload"`
	}{string(PayloadBinary), b.Data})
}

// Redirect is the wire form of a redirect policy override:
// {"type":"none"} or {"type":"limited","max":N}.
type Redirect struct {
	policy RedirectPolicy
}

// RedirectOverride wraps a policy for use in Options.
func RedirectOverride(p RedirectPolicy) *Redirect {
	return &Redirect{policy: p}
}

// Policy returns the parsed policy.
func (r *Redirect) Policy() RedirectPolicy {
	return r.policy
}

// UnmarshalJSON parses the tagged override form.
func (r *Redirect) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type string `json:"type"`
		Max  *int   `json:"max"`
	}
	if err := sonic.Unmarshal(data, &wire); err != nil {
		return err
	}

	switch wire.Type {
	case "none":
		r.policy = NoRedirects()
	case "limited":
		if wire.Max == nil {
			return fmt.Errorf("limited redirect: max is required")
		}
		if *wire.Max < 0 {
			return fmt.Errorf("limited redirect: max must not be negative")
		}
		r.policy = LimitedRedirects(*wire.Max)
	default:
		return fmt.Errorf(`redirect type must be "none" or "limited"`)
	}
	return nil
}

// normalizeMethod uppercases and validates the method token, defaulting to
// GET when empty.
func normalizeMethod(method string) (string, error) {
	if method == "" {
		return http.MethodGet, nil
	}
	method = strings.ToUpper(method)
	for i := 0; i < len(method); i++ {
		b := method[i]
		switch {
		case 'A' <= b && b <= 'Z' || '0' <= b && b <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", b) >= 0:
		default:
			return "", fmt.Errorf("invalid method %q", method)
		}
	}
	return method, nil
}
