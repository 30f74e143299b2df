package net

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// URLOps handles URL assembly and inspection
type URLOps struct{}

// GetTools returns URL tool definitions
func (u *URLOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "net.buildUrl",
			Name:        "Build URL",
			Description: "Construct a URL from components with proper encoding",
			Parameters: []types.Parameter{
				{Name: "base", Type: "string", Description: "Base URL", Required: true},
				{Name: "path", Type: "string", Description: "Path to append", Required: false},
				{Name: "params", Type: "object", Description: "Query parameters", Required: false},
				{Name: "fragment", Type: "string", Description: "URL fragment (#)", Required: false},
			},
			Returns: "string",
		},
		{
			ID:          "net.parseUrl",
			Name:        "Parse URL",
			Description: "Parse a URL into components",
			Parameters: []types.Parameter{
				{Name: "url", Type: "string", Description: "URL to parse", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "net.joinPath",
			Name:        "Join Path",
			Description: "Join URL path segments correctly",
			Parameters: []types.Parameter{
				{Name: "base", Type: "string", Description: "Base URL", Required: true},
				{Name: "segments", Type: "array", Description: "Path segments to join", Required: true},
			},
			Returns: "string",
		},
		{
			ID:          "net.encodeQuery",
			Name:        "Encode Query",
			Description: "Encode an object as a URL query string",
			Parameters: []types.Parameter{
				{Name: "params", Type: "object", Description: "Parameters to encode", Required: true},
			},
			Returns: "string",
		},
		{
			ID:          "net.decodeQuery",
			Name:        "Decode Query",
			Description: "Decode a query string to an object",
			Parameters: []types.Parameter{
				{Name: "query", Type: "string", Description: "Query string to decode", Required: true},
			},
			Returns: "object",
		},
	}
}

// BuildUrl constructs a URL from components
func (u *URLOps) BuildUrl(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	base, err := GetString(params, "base", true)
	if err != nil {
		return Failure(err.Error())
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return Failure(fmt.Sprintf("invalid base URL: %v", err))
	}

	if path, _ := GetString(params, "path", false); path != "" {
		joined, err := url.JoinPath(parsed.String(), path)
		if err != nil {
			return Failure(fmt.Sprintf("invalid path: %v", err))
		}
		if parsed, err = url.Parse(joined); err != nil {
			return Failure(fmt.Sprintf("invalid path: %v", err))
		}
	}

	if queryParams := GetMap(params, "params"); queryParams != nil {
		q := parsed.Query()
		addValues(q, queryParams)
		parsed.RawQuery = q.Encode()
	}

	if fragment, _ := GetString(params, "fragment", false); fragment != "" {
		parsed.Fragment = strings.TrimPrefix(fragment, "#")
	}

	return Success(map[string]interface{}{
		"url": parsed.String(),
	})
}

// ParseUrl splits a URL into structured components
func (u *URLOps) ParseUrl(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	raw, err := GetString(params, "url", true)
	if err != nil {
		return Failure(err.Error())
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Failure(fmt.Sprintf("invalid URL: %v", err))
	}

	result := map[string]interface{}{
		"scheme":   parsed.Scheme,
		"host":     parsed.Host,
		"path":     parsed.Path,
		"query":    flattenValues(parsed.Query()),
		"fragment": parsed.Fragment,
		"raw":      raw,
	}

	if parsed.Host != "" {
		result["hostname"] = parsed.Hostname()
		if port := parsed.Port(); port != "" {
			result["port"] = port
		}
	}

	if parsed.User != nil {
		result["username"] = parsed.User.Username()
		if _, ok := parsed.User.Password(); ok {
			// Flag its presence; never expose the value.
			result["has_password"] = true
		}
	}

	return Success(result)
}

// JoinPath appends path segments to a base URL
func (u *URLOps) JoinPath(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	base, err := GetString(params, "base", true)
	if err != nil {
		return Failure(err.Error())
	}

	segments := GetArray(params, "segments")
	if len(segments) == 0 {
		return Failure("segments array required")
	}

	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, fmt.Sprint(seg))
	}

	joined, err := url.JoinPath(base, parts...)
	if err != nil {
		return Failure(fmt.Sprintf("invalid base: %v", err))
	}

	return Success(map[string]interface{}{
		"url": joined,
	})
}

// EncodeQuery encodes params as a query string
func (u *URLOps) EncodeQuery(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	queryParams := GetMap(params, "params")
	if queryParams == nil {
		return Failure("params object required")
	}

	q := url.Values{}
	addValues(q, queryParams)
	encoded := q.Encode()

	return Success(map[string]interface{}{
		"query":  encoded,
		"length": len(encoded),
	})
}

// DecodeQuery decodes a query string to an object
func (u *URLOps) DecodeQuery(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	queryStr, err := GetString(params, "query", true)
	if err != nil {
		return Failure(err.Error())
	}

	queryStr = strings.TrimPrefix(queryStr, "?")
	parsed, err := url.ParseQuery(queryStr)
	if err != nil {
		return Failure(fmt.Sprintf("invalid query string: %v", err))
	}

	result := flattenValues(parsed)
	return Success(map[string]interface{}{
		"params": result,
		"count":  len(result),
	})
}

// addValues merges a params object into url.Values, spreading arrays.
func addValues(q url.Values, params map[string]interface{}) {
	for k, v := range params {
		if arr, ok := v.([]interface{}); ok {
			for _, item := range arr {
				q.Add(k, fmt.Sprint(item))
			}
		} else {
			q.Set(k, fmt.Sprint(v))
		}
	}
}

// flattenValues collapses single-valued keys to plain strings.
func flattenValues(values url.Values) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
		} else {
			out[k] = v
		}
	}
	return out
}
