// Package service provides the capability registry for applet-facing providers.
//
// The registry keeps a catalog of capability providers and routes tool
// invocations from applets to the provider that owns them. Tool IDs are
// dotted: the part before the first dot names the service, the rest names
// the tool within it.
//
// Components:
//   - Registry: central provider catalog
//   - Provider: interface for capability implementations
//
// Features:
//   - Thread-safe registration and lookup
//   - Category-based listing
//   - Keyword discovery with relevance scoring
//   - Tool execution with request context passing
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(netProvider)
//	services := registry.Discover("fetch url", 5)
//	result, err := registry.Execute(ctx, "net.fetch", params, reqCtx)
package service
