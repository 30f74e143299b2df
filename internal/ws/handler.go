package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/webdeckhq/webdeck/backend/internal/applets"
	"github.com/webdeckhq/webdeck/backend/internal/infrastructure/monitoring"
	"github.com/webdeckhq/webdeck/backend/internal/logging"
	"github.com/webdeckhq/webdeck/backend/internal/service"
	"github.com/webdeckhq/webdeck/backend/internal/shared/id"
	"github.com/webdeckhq/webdeck/backend/internal/types"
)

// invokeTimeout bounds one tool call so a stalled fetch cannot pin the
// connection loop forever.
const invokeTimeout = 2 * time.Minute

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The backend binds to loopback; webview origins vary by platform.
		return true
	},
}

// Handler manages WebSocket connections from the deck shell and applets.
type Handler struct {
	registry *service.Registry
	applets  *applets.Registry
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(registry *service.Registry, appletReg *applets.Registry, metrics *monitoring.Metrics, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewDefault()
	}
	return &Handler{
		registry: registry,
		applets:  appletReg,
		metrics:  metrics,
		log:      log.With(zap.String("component", "ws")),
	}
}

// HandleConnection upgrades the request and serves the invoke loop.
//
// The connecting page identifies itself with an ?applet=<id> query
// parameter; invocations are then scoped to that applet's manifest
// permissions. The deck shell connects without the parameter and may
// invoke any registered tool.
func (h *Handler) HandleConnection(c *gin.Context) {
	appletID := c.Query("applet")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := id.ConnID(uuid.NewString())
	log := h.log.With(zap.String("conn_id", connID.String()))
	if appletID != "" {
		log = log.With(zap.String("applet_id", appletID))
	}

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	log.Info("connection opened")
	defer log.Info("connection closed")

	h.send(conn, &types.WSReply{
		Type:      "system",
		Message:   "connected",
		Timestamp: time.Now().Unix(),
	})

	reqCtx := c.Request.Context()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("read error", zap.Error(err))
			}
			return
		}

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.sendError(conn, "", "malformed frame")
			continue
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}

		switch msg.Type {
		case "invoke":
			h.handleInvoke(reqCtx, conn, msg, appletID, log)
		case "ping":
			h.send(conn, &types.WSReply{Type: "pong", ID: msg.ID, Timestamp: time.Now().Unix()})
		default:
			h.sendError(conn, msg.ID, "unknown message type")
		}
	}
}

func (h *Handler) handleInvoke(parent context.Context, conn *websocket.Conn, msg types.WSMessage, appletID string, log *logging.Logger) {
	if msg.Tool == "" {
		h.sendError(conn, msg.ID, "tool is required")
		return
	}

	// Applet-scoped connections are held to their manifest permissions;
	// the deck shell has no applet ID and no restriction.
	if appletID != "" {
		if err := h.applets.Allowed(appletID, msg.Tool); err != nil {
			log.Warn("invoke denied", zap.String("tool", msg.Tool), zap.Error(err))
			h.sendError(conn, msg.ID, err.Error())
			return
		}
	}

	reqID := id.NewRequestID().String()
	execCtx := &types.Context{RequestID: &reqID}
	if appletID != "" {
		execCtx.AppletID = &appletID
	}

	ctx, cancel := context.WithTimeout(parent, invokeTimeout)
	defer cancel()

	var timer *monitoring.Timer
	if h.metrics != nil {
		timer = monitoring.NewTimer(h.metrics, serviceOf(msg.Tool), msg.Tool)
	}

	start := time.Now()
	result, err := h.registry.Execute(ctx, msg.Tool, msg.Params, execCtx)
	if err != nil && result == nil {
		if timer != nil {
			h.metrics.RecordServiceError(serviceOf(msg.Tool), msg.Tool)
			timer.Stop("error")
		}
		h.sendError(conn, msg.ID, err.Error())
		return
	}

	if timer != nil {
		status := "success"
		if !result.Success {
			status = "error"
			h.metrics.RecordServiceError(serviceOf(msg.Tool), msg.Tool)
		}
		timer.Stop(status)
	}

	log.Debug("invoke completed",
		zap.String("tool", msg.Tool),
		zap.String("request_id", reqID),
		zap.Bool("success", result.Success),
		zap.Duration("duration", time.Since(start)),
	)

	h.send(conn, &types.WSReply{
		Type:      "result",
		ID:        msg.ID,
		Result:    result,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) send(conn *websocket.Conn, reply *types.WSReply) {
	buf, err := sonic.Marshal(reply)
	if err != nil {
		h.log.Error("reply encode failed", zap.Error(err))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
		h.log.Warn("write failed", zap.Error(err))
		return
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", reply.Type)
	}
}

// serviceOf returns the service prefix of a dotted tool ID.
func serviceOf(toolID string) string {
	if i := strings.IndexByte(toolID, '.'); i >= 0 {
		return toolID[:i]
	}
	return toolID
}

func (h *Handler) sendError(conn *websocket.Conn, msgID, message string) {
	h.send(conn, &types.WSReply{
		Type:      "error",
		ID:        msgID,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
}
