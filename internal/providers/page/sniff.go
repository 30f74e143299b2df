package page

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"github.com/webdeckhq/webdeck/backend/internal/fetch"
	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// SniffOps handles content-type detection
type SniffOps struct {
	*PageOps
}

// GetTools returns sniff tool definitions
func (s *SniffOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "page.sniff",
			Name:        "Sniff Content Type",
			Description: "Detect MIME type and charset of raw content or a fetched URL",
			Parameters: []types.Parameter{
				{Name: "data", Type: "string", Description: "Base64-encoded content (or provide url)", Required: false},
				{Name: "url", Type: "string", Description: "URL fetched through the shared pool", Required: false},
			},
			Returns: "object",
		},
	}
}

// Sniff detects the MIME type of the given bytes. Detection looks at the
// bytes themselves, so it works when the server sent no Content-Type or a
// wrong one.
func (s *SniffOps) Sniff(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	data, declared, err := s.sniffSource(ctx, params)
	if err != nil {
		return Failure(err.Error())
	}

	detected := mimetype.Detect(data)

	result := map[string]interface{}{
		"mime":      detected.String(),
		"extension": detected.Extension(),
		"size":      len(data),
	}
	if declared != "" {
		result["declared"] = declared
	}
	if isTextual(detected) {
		result["charset"] = DetectCharset(data)
	}
	return Success(result)
}

// sniffSource yields the bytes to inspect plus the server-declared
// Content-Type when the input came over the wire.
func (s *SniffOps) sniffSource(ctx context.Context, params map[string]interface{}) ([]byte, string, error) {
	if encoded, ok := GetString(params, "data"); ok && encoded != "" {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("data must be base64: %v", err)
		}
		return data, "", nil
	}

	rawURL, ok := GetString(params, "url")
	if !ok || rawURL == "" {
		return nil, "", fmt.Errorf("data or url parameter required")
	}
	if s.fetcher == nil {
		return nil, "", fmt.Errorf("no fetch service available for url parameter")
	}

	resp, err := s.fetcher.Fetch(ctx, rawURL, &fetch.Options{ResponseType: fetch.PayloadBinary})
	if err != nil {
		return nil, "", err
	}

	var data []byte
	if resp.Body != nil {
		data = resp.Body.Data
	}
	var declared string
	if ct := resp.Headers["Content-Type"]; len(ct) > 0 {
		declared = ct[0]
	}
	return data, declared, nil
}

func isTextual(m *mimetype.MIME) bool {
	for cur := m; cur != nil; cur = cur.Parent() {
		if cur.Is("text/plain") {
			return true
		}
	}
	return false
}
