package net

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/webdeckhq/webdeck/backend/internal/fetch"
	"github.com/webdeckhq/webdeck/backend/internal/infrastructure/monitoring"
	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// FetchOps handles cookie-aware request execution
type FetchOps struct {
	service *fetch.Service
	metrics *monitoring.Metrics
}

// GetTools returns fetch tool definitions
func (f *FetchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "net.fetch",
			Name:        "Fetch",
			Description: "Execute an HTTP request with shared cookies and redirect control",
			Parameters: []types.Parameter{
				{Name: "url", Type: "string", Description: "Target URL", Required: true},
				{Name: "options", Type: "object", Description: "Request overrides: responseType, method, headers, cookies, redirect, body", Required: false},
			},
			Returns: "object",
		},
	}
}

// Fetch executes one exchange through the pooled client service
func (f *FetchOps) Fetch(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	rawURL, err := GetString(params, "url", true)
	if err != nil {
		return Failure(err.Error())
	}

	var opts *fetch.Options
	if raw := GetMap(params, "options"); raw != nil {
		data, err := sonic.Marshal(raw)
		if err != nil {
			return Failure(fmt.Sprintf("invalid options: %v", err))
		}
		opts = new(fetch.Options)
		if err := sonic.Unmarshal(data, opts); err != nil {
			return Failure(fmt.Sprintf("invalid options: %v", err))
		}
	}

	method := "GET"
	if opts != nil && opts.Method != "" {
		method = strings.ToUpper(opts.Method)
	}

	start := time.Now()
	resp, err := f.service.Fetch(ctx, rawURL, opts)
	if err != nil {
		if f.metrics != nil {
			f.metrics.RecordFetchError(method)
		}
		var fe *fetch.Error
		if errors.As(err, &fe) {
			return FailureAt(fe.URL, fe.Message)
		}
		return Failure(err.Error())
	}
	if f.metrics != nil {
		f.metrics.RecordFetch(method, strconv.Itoa(resp.Status), time.Since(start))
	}

	return Success(responseToMap(resp))
}

// responseToMap shapes a fetch response for the wire
func responseToMap(resp *fetch.Response) map[string]interface{} {
	result := map[string]interface{}{
		"url":     resp.URL,
		"status":  resp.Status,
		"headers": resp.Headers,
		"cookies": resp.Cookies,
	}
	if resp.Body != nil {
		result["body"] = resp.Body
	}
	return result
}
