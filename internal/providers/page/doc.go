// Package page provides read-only page utilities: CSS and XPath queries,
// readable-text extraction, HTML sanitization, metadata extraction and
// content-type sniffing. Tools accept inline HTML or a URL; URLs are
// fetched through the shared cookie-aware client pool, never a private
// client.
package page
