package page

import (
	"context"
	"fmt"

	"github.com/webdeckhq/webdeck/backend/internal/fetch"
	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// Provider exposes read-only page utilities to applets
type Provider struct {
	selectOps *SelectOps
	textOps   *TextOps
	xpathOps  *XPathOps
	sniffOps  *SniffOps
}

// NewProvider wires the page provider around the shared fetch service.
// Tools that accept a url parameter fetch it through the same pooled
// clients every other fetch uses.
func NewProvider(fetcher *fetch.Service) *Provider {
	ops := NewPageOps(fetcher)
	return &Provider{
		selectOps: &SelectOps{ops},
		textOps:   &TextOps{ops},
		xpathOps:  &XPathOps{ops},
		sniffOps:  &SniffOps{ops},
	}
}

// Definition returns service metadata with all module tools
func (p *Provider) Definition() types.Service {
	tools := []types.Tool{}
	tools = append(tools, p.selectOps.GetTools()...)
	tools = append(tools, p.textOps.GetTools()...)
	tools = append(tools, p.xpathOps.GetTools()...)
	tools = append(tools, p.sniffOps.GetTools()...)

	return types.Service{
		ID:          "page",
		Name:        "Page Service",
		Description: "HTML querying, readable-text extraction and content sniffing",
		Category:    types.CategoryPage,
		Capabilities: []string{
			"select", "links", "xpath",
			"text", "clean", "metadata", "sniff",
		},
		Tools: tools,
	}
}

// Execute routes to the appropriate module
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "page.select":
		return p.selectOps.Select(ctx, params, reqCtx)
	case "page.links":
		return p.selectOps.Links(ctx, params, reqCtx)
	case "page.xpath":
		return p.xpathOps.Query(ctx, params, reqCtx)

	case "page.text":
		return p.textOps.Text(ctx, params, reqCtx)
	case "page.clean":
		return p.textOps.Clean(ctx, params, reqCtx)
	case "page.meta":
		return p.textOps.Meta(ctx, params, reqCtx)

	case "page.sniff":
		return p.sniffOps.Sniff(ctx, params, reqCtx)

	default:
		return &types.Result{
			Success: false,
			Error:   &types.Error{Message: fmt.Sprintf("unknown tool: %s", toolID)},
		}, nil
	}
}
