package page

import (
	"context"
	"fmt"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// XPathOps handles XPath queries
type XPathOps struct {
	*PageOps
}

// GetTools returns XPath tool definitions
func (x *XPathOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "page.xpath",
			Name:        "XPath Query",
			Description: "Query HTML using XPath expressions",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content (or provide url)", Required: false},
				{Name: "url", Type: "string", Description: "Page URL fetched through the shared pool", Required: false},
				{Name: "xpath", Type: "string", Description: "XPath expression", Required: true},
				{Name: "all", Type: "boolean", Description: "Return all matches (default: false)", Required: false},
				{Name: "attribute", Type: "string", Description: "Attribute to extract instead of text", Required: false},
			},
			Returns: "object",
		},
	}
}

// Query executes an XPath query
func (x *XPathOps) Query(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	htmlStr, err := x.Source(ctx, params)
	if err != nil {
		return Failure(err.Error())
	}

	xpath, ok := GetString(params, "xpath")
	if !ok || xpath == "" {
		return Failure("xpath parameter required")
	}

	doc, err := LoadHTMLNode(htmlStr)
	if err != nil {
		return Failure(fmt.Sprintf("parse failed: %v", err))
	}

	attribute, _ := GetString(params, "attribute")

	if GetBool(params, "all", false) {
		nodes, err := htmlquery.QueryAll(doc, xpath)
		if err != nil {
			return Failure(fmt.Sprintf("xpath query failed: %v", err))
		}

		matches := make([]map[string]interface{}, 0, len(nodes))
		for _, node := range nodes {
			matches = append(matches, nodeToMap(node, attribute))
		}
		return Success(map[string]interface{}{
			"matches": matches,
			"count":   len(matches),
		})
	}

	node, err := htmlquery.Query(doc, xpath)
	if err != nil {
		return Failure(fmt.Sprintf("xpath query failed: %v", err))
	}
	if node == nil {
		return Success(map[string]interface{}{
			"found": false,
		})
	}

	result := nodeToMap(node, attribute)
	result["found"] = true
	return Success(result)
}

func nodeToMap(node *html.Node, attribute string) map[string]interface{} {
	out := map[string]interface{}{
		"text": NormalizeWhitespace(ExtractText(node)),
	}
	if attribute != "" {
		out["attribute"] = htmlquery.SelectAttr(node, attribute)
	}
	return out
}
