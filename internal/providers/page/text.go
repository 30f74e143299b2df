package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// TextOps handles readable-content extraction
type TextOps struct {
	*PageOps
}

// GetTools returns text tool definitions
func (t *TextOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "page.text",
			Name:        "Extract Text",
			Description: "Extract main readable content, dropping nav, ads and scripts",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content (or provide url)", Required: false},
				{Name: "url", Type: "string", Description: "Page URL fetched through the shared pool", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "page.clean",
			Name:        "Clean HTML",
			Description: "Sanitize HTML, removing scripts and unsafe markup",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content (or provide url)", Required: false},
				{Name: "url", Type: "string", Description: "Page URL fetched through the shared pool", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "page.meta",
			Name:        "Page Metadata",
			Description: "Extract title, description and OpenGraph fields",
			Parameters: []types.Parameter{
				{Name: "html", Type: "string", Description: "HTML content (or provide url)", Required: false},
				{Name: "url", Type: "string", Description: "Page URL fetched through the shared pool", Required: false},
			},
			Returns: "object",
		},
	}
}

// Text extracts the main readable content using heuristics
func (t *TextOps) Text(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	htmlStr, err := t.Source(ctx, params)
	if err != nil {
		return Failure(err.Error())
	}

	doc, err := LoadHTML(htmlStr)
	if err != nil {
		return Failure(fmt.Sprintf("parse failed: %v", err))
	}

	doc.Find("script, style, nav, header, footer, aside, iframe, .ad, .advertisement, .sidebar").Remove()

	var main *goquery.Selection
	if sel := doc.Find("main, article").First(); sel.Length() > 0 {
		main = sel
	} else if sel := doc.Find("[role='main'], [role='article']").First(); sel.Length() > 0 {
		main = sel
	} else if sel := doc.Find("#content, #main, .content, .main, .article").First(); sel.Length() > 0 {
		main = sel
	} else {
		main = doc.Find("body")
	}

	text := NormalizeWhitespace(strings.TrimSpace(main.Text()))

	return Success(map[string]interface{}{
		"text":       text,
		"length":     len(text),
		"word_count": len(strings.Fields(text)),
	})
}

// Clean sanitizes HTML content
func (t *TextOps) Clean(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	htmlStr, err := t.Source(ctx, params)
	if err != nil {
		return Failure(err.Error())
	}

	if err := ValidateHTML(htmlStr); err != nil {
		return Failure(err.Error())
	}

	cleaned := t.SanitizeHTML(htmlStr)

	return Success(map[string]interface{}{
		"html":          cleaned,
		"original_size": len(htmlStr),
		"cleaned_size":  len(cleaned),
	})
}

// Meta extracts document metadata
func (t *TextOps) Meta(ctx context.Context, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	htmlStr, err := t.Source(ctx, params)
	if err != nil {
		return Failure(err.Error())
	}

	doc, err := LoadHTML(htmlStr)
	if err != nil {
		return Failure(fmt.Sprintf("parse failed: %v", err))
	}

	result := map[string]interface{}{
		"title": strings.TrimSpace(doc.Find("title").First().Text()),
	}

	if desc := doc.Find("meta[name='description']").First(); desc.Length() > 0 {
		result["description"] = desc.AttrOr("content", "")
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		result["lang"] = lang
	}
	if canonical := doc.Find("link[rel='canonical']").First(); canonical.Length() > 0 {
		result["canonical"] = canonical.AttrOr("href", "")
	}

	og := make(map[string]interface{})
	doc.Find("meta[property^='og:']").Each(func(_ int, sel *goquery.Selection) {
		prop := strings.TrimPrefix(sel.AttrOr("property", ""), "og:")
		if prop != "" {
			og[prop] = sel.AttrOr("content", "")
		}
	})
	if len(og) > 0 {
		result["og"] = og
	}

	return Success(result)
}
