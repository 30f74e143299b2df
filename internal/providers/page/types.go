package page

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/webdeckhq/webdeck/backend/internal/fetch"
	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// MaxHTMLSize limits HTML input to 10MB to prevent memory exhaustion
const MaxHTMLSize = 10 * 1024 * 1024

// PageOps provides shared parsing helpers
type PageOps struct {
	sanitizer *bluemonday.Policy
	fetcher   *fetch.Service
}

// NewPageOps creates ops with sanitizer and the shared fetch service
func NewPageOps(fetcher *fetch.Service) *PageOps {
	return &PageOps{
		sanitizer: bluemonday.UGCPolicy(),
		fetcher:   fetcher,
	}
}

// Source resolves a tool's HTML input: the inline html parameter when
// present, otherwise a text-mode fetch of the url parameter through the
// shared client pool.
func (p *PageOps) Source(ctx context.Context, params map[string]interface{}) (string, error) {
	if htmlStr, ok := GetString(params, "html"); ok && htmlStr != "" {
		return htmlStr, nil
	}

	rawURL, ok := GetString(params, "url")
	if !ok || rawURL == "" {
		return "", fmt.Errorf("html or url parameter required")
	}
	if p.fetcher == nil {
		return "", fmt.Errorf("no fetch service available for url parameter")
	}

	resp, err := p.fetcher.Fetch(ctx, rawURL, &fetch.Options{ResponseType: fetch.PayloadText})
	if err != nil {
		return "", err
	}
	if resp.Body == nil {
		return "", fmt.Errorf("fetch of %s returned no body", rawURL)
	}
	return resp.Body.Text(), nil
}

// Success creates successful result
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure creates failed result
func Failure(message string) (*types.Result, error) {
	return &types.Result{
		Success: false,
		Error:   &types.Error{Message: message},
	}, nil
}

// GetString extracts string from params with validation
func GetString(params map[string]interface{}, key string) (string, bool) {
	val, ok := params[key].(string)
	if !ok {
		return "", false
	}
	return val, true
}

// GetBool extracts bool from params with default
func GetBool(params map[string]interface{}, key string, defaultVal bool) bool {
	val, ok := params[key].(bool)
	if !ok {
		return defaultVal
	}
	return val
}

// GetInt extracts int from params with validation
func GetInt(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// ValidateHTML checks HTML size and returns error if too large
func ValidateHTML(html string) error {
	if len(html) == 0 {
		return fmt.Errorf("html content required")
	}
	if len(html) > MaxHTMLSize {
		return fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}
	return nil
}

// DetectCharset detects and returns charset from raw bytes
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// LoadHTML loads HTML with automatic charset detection
func LoadHTML(htmlStr string) (*goquery.Document, error) {
	if err := ValidateHTML(htmlStr); err != nil {
		return nil, err
	}

	data := []byte(htmlStr)
	detected := DetectCharset(data)

	utf8Reader, err := charset.NewReader(bytes.NewReader(data), detected)
	if err != nil {
		return goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	}

	return goquery.NewDocumentFromReader(utf8Reader)
}

// LoadHTMLNode loads HTML into an xpath-compatible node
func LoadHTMLNode(htmlStr string) (*html.Node, error) {
	if err := ValidateHTML(htmlStr); err != nil {
		return nil, err
	}

	data := []byte(htmlStr)
	detected := DetectCharset(data)

	utf8Reader, err := charset.NewReader(bytes.NewReader(data), detected)
	if err != nil {
		return htmlquery.Parse(strings.NewReader(htmlStr))
	}

	return htmlquery.Parse(utf8Reader)
}

// SanitizeHTML sanitizes HTML content
func (p *PageOps) SanitizeHTML(htmlStr string) string {
	return p.sanitizer.Sanitize(htmlStr)
}

// ExtractText safely extracts text from a node
func ExtractText(n *html.Node) string {
	var buf bytes.Buffer
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.TrimSpace(buf.String())
}

// NormalizeWhitespace collapses runs of whitespace into single spaces
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateText truncates text to max length with ellipsis
func TruncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
