package service

import (
	"context"
	"testing"

	"github.com/webdeckhq/webdeck/backend/internal/types"
)

type mockProvider struct {
	id string
}

func (m *mockProvider) Definition() types.Service {
	return types.Service{
		ID:           m.id,
		Name:         "Mock Service",
		Description:  "A mock service for testing",
		Category:     types.CategoryNetwork,
		Capabilities: []string{"fetch", "parse"},
		Tools: []types.Tool{
			{
				ID:          m.id + ".test",
				Name:        "Test Tool",
				Description: "A test tool",
				Returns:     "string",
			},
		},
	}
}

func (m *mockProvider) Execute(ctx context.Context, toolID string, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	return &types.Result{
		Success: true,
		Data:    map[string]interface{}{"result": "success"},
	}, nil
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	p := &mockProvider{id: "test"}

	if err := r.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, ok := r.Get("test"); !ok {
		t.Error("Service should be registered")
	}
}

func TestRegisterRejectsBadIDs(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&mockProvider{id: ""}); err == nil {
		t.Error("Empty service ID should be rejected")
	}
	if err := r.Register(&mockProvider{id: "a.b"}); err == nil {
		t.Error("Dotted service ID should be rejected")
	}
}

func TestList(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "test1"})
	r.Register(&mockProvider{id: "test2"})

	services := r.List(nil)
	if len(services) != 2 {
		t.Errorf("Expected 2 services, got %d", len(services))
	}
	if services[0].ID != "test1" || services[1].ID != "test2" {
		t.Errorf("Expected sorted IDs, got %s, %s", services[0].ID, services[1].ID)
	}

	cat := types.CategoryNetwork
	filtered := r.List(&cat)
	if len(filtered) != 2 {
		t.Errorf("Expected 2 network services, got %d", len(filtered))
	}

	other := types.CategoryPage
	if got := r.List(&other); len(got) != 0 {
		t.Errorf("Expected 0 page services, got %d", len(got))
	}
}

func TestDiscover(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "net"})

	results := r.Discover("net fetch parse", 5)
	if len(results) == 0 {
		t.Fatal("Should discover net service")
	}

	if results[0].ID != "net" {
		t.Errorf("Expected net service, got %s", results[0].ID)
	}
}

func TestExecute(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "test"})

	ctx := context.Background()
	result, err := r.Execute(ctx, "test.test", map[string]interface{}{}, nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !result.Success {
		t.Error("Expected successful execution")
	}
}

func TestExecuteRouting(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "test"})
	ctx := context.Background()

	result, err := r.Execute(ctx, "nodot", nil, nil)
	if err == nil {
		t.Error("Undotted tool ID should fail")
	}
	if result == nil || result.Error == nil || result.Error.Message == "" {
		t.Error("Failure should carry an error message")
	}

	result, err = r.Execute(ctx, "missing.tool", nil, nil)
	if err == nil {
		t.Error("Unknown service should fail")
	}
	if result == nil || result.Error == nil {
		t.Error("Failure should carry an error")
	}
}

func TestStats(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockProvider{id: "test1"})
	r.Register(&mockProvider{id: "test2"})

	stats := r.Stats()
	totalServices := stats["total_services"].(int)
	if totalServices != 2 {
		t.Errorf("Expected 2 total services, got %d", totalServices)
	}

	totalTools := stats["total_tools"].(int)
	if totalTools != 2 {
		t.Errorf("Expected 2 total tools, got %d", totalTools)
	}
}
