package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdeckhq/webdeck/backend/internal/applets"
	"github.com/webdeckhq/webdeck/backend/internal/infrastructure/monitoring"
	"github.com/webdeckhq/webdeck/backend/internal/logging"
	"github.com/webdeckhq/webdeck/backend/internal/service"
	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// Collectors register on the default Prometheus registry, so the whole
// package shares one instance.
var testMetrics = monitoring.NewMetrics()

type echoProvider struct{}

func (echoProvider) Definition() types.Service {
	return types.Service{
		ID:       "echo",
		Name:     "Echo",
		Category: types.CategorySystem,
		Tools: []types.Tool{
			{ID: "echo.say", Name: "say", Returns: "text"},
		},
	}
}

func (echoProvider) Execute(_ context.Context, toolID string, params map[string]interface{}, reqCtx *types.Context) (*types.Result, error) {
	if toolID != "echo.say" {
		return &types.Result{Success: false, Error: &types.Error{Message: "unknown tool"}}, nil
	}
	data := map[string]interface{}{"text": params["text"]}
	if reqCtx != nil && reqCtx.AppletID != nil {
		data["applet_id"] = *reqCtx.AppletID
	}
	return &types.Result{Success: true, Data: data}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *applets.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := service.NewRegistry()
	require.NoError(t, registry.Register(echoProvider{}))

	appletReg := applets.NewRegistry()
	handler := NewHandler(registry, appletReg, testMetrics, logging.NewDefault())

	router := gin.New()
	router.GET("/stream", handler.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, appletReg
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Consume the system welcome frame
	var welcome types.WSReply
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, "system", welcome.Type)
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg types.WSMessage) types.WSReply {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var reply types.WSReply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestInvoke(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")

	reply := roundTrip(t, conn, types.WSMessage{
		Type:   "invoke",
		ID:     "42",
		Tool:   "echo.say",
		Params: map[string]interface{}{"text": "hello"},
	})

	assert.Equal(t, "result", reply.Type)
	assert.Equal(t, "42", reply.ID)
	require.NotNil(t, reply.Result)
	assert.True(t, reply.Result.Success)
	assert.Equal(t, "hello", reply.Result.Data["text"])
}

func TestInvokeUnknownService(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")

	reply := roundTrip(t, conn, types.WSMessage{
		Type: "invoke",
		ID:   "1",
		Tool: "missing.tool",
	})

	assert.Equal(t, "result", reply.Type)
	require.NotNil(t, reply.Result)
	assert.False(t, reply.Result.Success)
	assert.Contains(t, reply.Result.Error.Message, "service not found")
}

func TestInvokeMissingTool(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")

	reply := roundTrip(t, conn, types.WSMessage{Type: "invoke", ID: "1"})

	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "1", reply.ID)
	assert.Contains(t, reply.Message, "tool is required")
}

func TestAppletScopedConnection(t *testing.T) {
	srv, appletReg := newTestServer(t)
	require.NoError(t, appletReg.Save(&applets.Manifest{
		ID:          "notes",
		Title:       "Notes",
		Version:     "1.0.0",
		Entry:       "index.html",
		Permissions: []string{"echo"},
	}))

	conn := dial(t, srv, "?applet=notes")

	reply := roundTrip(t, conn, types.WSMessage{
		Type:   "invoke",
		ID:     "a",
		Tool:   "echo.say",
		Params: map[string]interface{}{"text": "hi"},
	})
	assert.Equal(t, "result", reply.Type)
	require.NotNil(t, reply.Result)
	assert.True(t, reply.Result.Success)
	assert.Equal(t, "notes", reply.Result.Data["applet_id"])

	// Tool outside the manifest's permitted services is denied
	reply = roundTrip(t, conn, types.WSMessage{
		Type: "invoke",
		ID:   "b",
		Tool: "net.fetch",
	})
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, "b", reply.ID)
	assert.Contains(t, reply.Message, "no permission")
}

func TestUnknownAppletDeniedEverything(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "?applet=ghost")

	reply := roundTrip(t, conn, types.WSMessage{
		Type: "invoke",
		ID:   "1",
		Tool: "echo.say",
	})

	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, reply.Message, "unknown applet")
}

func TestInvokeRecordsServiceMetrics(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")

	okBefore := testutil.ToFloat64(testMetrics.ServiceCalls.WithLabelValues("echo", "echo.say", "success"))
	errBefore := testutil.ToFloat64(testMetrics.ServiceErrors.WithLabelValues("echo", "echo.bad"))

	reply := roundTrip(t, conn, types.WSMessage{
		Type:   "invoke",
		ID:     "1",
		Tool:   "echo.say",
		Params: map[string]interface{}{"text": "hi"},
	})
	require.Equal(t, "result", reply.Type)

	// A tool the provider rejects counts as a failed call
	reply = roundTrip(t, conn, types.WSMessage{Type: "invoke", ID: "2", Tool: "echo.bad"})
	require.Equal(t, "result", reply.Type)
	require.False(t, reply.Result.Success)

	okAfter := testutil.ToFloat64(testMetrics.ServiceCalls.WithLabelValues("echo", "echo.say", "success"))
	errAfter := testutil.ToFloat64(testMetrics.ServiceErrors.WithLabelValues("echo", "echo.bad"))
	assert.Equal(t, okBefore+1, okAfter)
	assert.Equal(t, errBefore+1, errAfter)
}

func TestPingPong(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")

	reply := roundTrip(t, conn, types.WSMessage{Type: "ping", ID: "p1"})

	assert.Equal(t, "pong", reply.Type)
	assert.Equal(t, "p1", reply.ID)
}

func TestUnknownMessageType(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")

	reply := roundTrip(t, conn, types.WSMessage{Type: "bogus", ID: "x"})

	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, reply.Message, "unknown message type")
}

func TestMalformedFrame(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var reply types.WSReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	assert.Contains(t, reply.Message, "malformed")
}

func TestUpgradeRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
