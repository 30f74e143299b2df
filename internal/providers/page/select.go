package page

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// SelectOps handles CSS selector queries
type SelectOps struct {
	*PageOps
}

// GetTools returns selector tool definitions
func (s *SelectOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "page.select",
			Name:        "Select Elements",
			Description: "Query HTML using CSS selectors",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content (or provide url)", Required: false},
				{Name: "url", Type: "string", Description: "Page URL fetched through the shared pool", Required: false},
				{Name: "selector", Type: "string", Description: "CSS selector", Required: true},
				{Name: "all", Type: "boolean", Description: "Return all matches (default: false)", Required: false},
				{Name: "attribute", Type: "string", Description: "Attribute to extract instead of text", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "page.links",
			Name:        "Extract Links",
			Description: "Collect hyperlinks, optionally resolved against a base URL",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content (or provide url)", Required: false},
				{Name: "url", Type: "string", Description: "Page URL fetched through the shared pool", Required: false},
				{Name: "base", Type: "string", Description: "Base URL for resolving relative links", Required: false},
			},
			Returns: "object",
		},
	}
}

// Select runs a CSS selector query
func (s *SelectOps) Select(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	htmlStr, err := s.Source(ctx, params)
	if err != nil {
		return Failure(err.Error())
	}

	selector, ok := GetString(params, "selector")
	if !ok || selector == "" {
		return Failure("selector parameter required")
	}

	doc, err := LoadHTML(htmlStr)
	if err != nil {
		return Failure(fmt.Sprintf("parse failed: %v", err))
	}

	attribute, _ := GetString(params, "attribute")

	if GetBool(params, "all", false) {
		elements := make([]map[string]interface{}, 0)
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			elements = append(elements, selectionToMap(sel, attribute))
		})
		return Success(map[string]interface{}{
			"elements": elements,
			"count":    len(elements),
		})
	}

	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return Success(map[string]interface{}{
			"found": false,
		})
	}

	result := selectionToMap(sel, attribute)
	result["found"] = true
	return Success(result)
}

// Links collects anchor targets from the document
func (s *SelectOps) Links(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	htmlStr, err := s.Source(ctx, params)
	if err != nil {
		return Failure(err.Error())
	}

	doc, err := LoadHTML(htmlStr)
	if err != nil {
		return Failure(fmt.Sprintf("parse failed: %v", err))
	}

	var base *url.URL
	if baseStr, _ := GetString(params, "base"); baseStr != "" {
		base, err = url.Parse(baseStr)
		if err != nil {
			return Failure(fmt.Sprintf("invalid base URL: %v", err))
		}
	}

	seen := make(map[string]bool)
	links := make([]string, 0)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href := strings.TrimSpace(sel.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if base != nil {
			ref, err := url.Parse(href)
			if err != nil {
				return
			}
			href = base.ResolveReference(ref).String()
		}
		if !seen[href] {
			seen[href] = true
			links = append(links, href)
		}
	})

	return Success(map[string]interface{}{
		"links": links,
		"count": len(links),
	})
}

func selectionToMap(sel *goquery.Selection, attribute string) map[string]interface{} {
	out := map[string]interface{}{
		"text": NormalizeWhitespace(sel.Text()),
	}
	if html, err := sel.Html(); err == nil {
		out["html"] = html
	}
	if attribute != "" {
		out["attribute"] = sel.AttrOr(attribute, "")
	}
	return out
}
