package fetch

import (
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/go-resty/resty/v2"
)

// acceptEncoding is advertised on every request, so responses may come
// back in any of these codings and are unwrapped here.
const acceptEncoding = "gzip, deflate, br, zstd"

// DefaultMaxBodyBytes caps how much of a response body is read into
// memory.
const DefaultMaxBodyBytes int64 = 512 << 20

// readBody materializes the response body according to the payload mode.
// Discard closes the body without reading it and yields no Body at all.
func readBody(resp *resty.Response, mode PayloadType, maxBytes int64) (*Body, error) {
	raw := resp.RawBody()
	if raw == nil {
		if mode == PayloadDiscard {
			return nil, nil
		}
		return &Body{Type: mode, Data: []byte{}}, nil
	}
	if mode == PayloadDiscard {
		raw.Close()
		return nil, nil
	}
	defer raw.Close()

	reader, err := decompressed(raw, resp.Header().Get("Content-Encoding"))
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("body exceeds %d byte limit", maxBytes)
	}

	if mode == PayloadText {
		text, err := decodeText(data, resp.Header().Get("Content-Type"))
		if err != nil {
			return nil, err
		}
		return TextBody(text), nil
	}
	return BinaryBody(data), nil
}

// decompressed unwraps Content-Encoding layers the transport left in
// place. Multiple codings are listed in the order applied, so they unwrap
// in reverse.
func decompressed(r io.Reader, encoding string) (io.Reader, error) {
	if encoding == "" {
		return r, nil
	}

	codings := strings.Split(encoding, ",")
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))
		var err error
		switch coding {
		case "gzip", "x-gzip":
			r, err = gzip.NewReader(r)
		case "deflate":
			r = flate.NewReader(r)
		case "br":
			r = brotli.NewReader(r)
		case "zstd":
			var zr *zstd.Decoder
			zr, err = zstd.NewReader(r)
			if err == nil {
				r = zr.IOReadCloser()
			}
		case "identity", "":
		default:
			return nil, fmt.Errorf("unsupported content encoding %q", coding)
		}
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", coding, err)
		}
	}
	return r, nil
}

// decodeText converts raw bytes to a UTF-8 string. The charset comes from
// the Content-Type parameter when present; otherwise UTF-8 is assumed,
// with byte-level detection as a fallback. Unknown labels and undecodable
// streams fail rather than silently replacing bytes.
func decodeText(data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	if label := charsetLabel(contentType); label != "" {
		return decodeWith(data, label)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return "", fmt.Errorf("text body: undecodable byte stream")
	}
	return decodeWith(data, best.Charset)
}

func decodeWith(data []byte, label string) (string, error) {
	enc, name := charset.Lookup(label)
	if enc == nil {
		return "", fmt.Errorf("unsupported charset %q", label)
	}
	if name == "utf-8" {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid utf-8 in text body")
		}
		return string(data), nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(decoded), nil
}

func charsetLabel(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
