package net

import (
	"context"
	"fmt"

	"github.com/webdeckhq/webdeck/backend/internal/fetch"
	"github.com/webdeckhq/webdeck/backend/internal/infrastructure/monitoring"
	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// Provider exposes outbound network capabilities to applets
type Provider struct {
	fetchOps *FetchOps
	urlOps   *URLOps
}

// NewProvider wires the network provider around the shared fetch service
func NewProvider(service *fetch.Service) *Provider {
	return &Provider{
		fetchOps: &FetchOps{service: service},
		urlOps:   &URLOps{},
	}
}

// WithMetrics enables per-fetch metric recording
func (p *Provider) WithMetrics(m *monitoring.Metrics) *Provider {
	p.fetchOps.metrics = m
	return p
}

// Definition returns service metadata with all module tools
func (p *Provider) Definition() types.Service {
	tools := []types.Tool{}
	tools = append(tools, p.fetchOps.GetTools()...)
	tools = append(tools, p.urlOps.GetTools()...)

	return types.Service{
		ID:          "net",
		Name:        "Network Service",
		Description: "Cookie-aware HTTP fetching with pooled clients plus URL utilities",
		Category:    types.CategoryNetwork,
		Capabilities: []string{
			"fetch", "cookies", "redirects",
			"url", "building", "parsing", "encoding",
		},
		Tools: tools,
	}
}

// Execute routes to the appropriate module
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "net.fetch":
		return p.fetchOps.Fetch(ctx, params, reqCtx)

	case "net.buildUrl":
		return p.urlOps.BuildUrl(ctx, params, reqCtx)
	case "net.parseUrl":
		return p.urlOps.ParseUrl(ctx, params, reqCtx)
	case "net.joinPath":
		return p.urlOps.JoinPath(ctx, params, reqCtx)
	case "net.encodeQuery":
		return p.urlOps.EncodeQuery(ctx, params, reqCtx)
	case "net.decodeQuery":
		return p.urlOps.DecodeQuery(ctx, params, reqCtx)

	default:
		return &types.Result{
			Success: false,
			Error:   &types.Error{Message: fmt.Sprintf("unknown tool: %s", toolID)},
		}, nil
	}
}
