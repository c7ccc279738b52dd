package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logrus "github.com/sirupsen/logrus"

	"bus_tracker/internal/gateway"
	"bus_tracker/internal/hub"
)

// Inbound push-channel event names. Part of the wire protocol.
const (
	eventLocationUpdate = "location_update"
	eventEditName       = "edit_name"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// locationUpdateEvent mirrors locationUpdateInput for the push channel.
type locationUpdateEvent struct {
	ID  *uint    `json:"id"`
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type editNameEvent struct {
	ID           *uint   `json:"id"`
	NewBusNumber *string `json:"new_bus_number"`
	NewRouteName *string `json:"new_route_name"`
}

// SocketController owns the push channel: every connection is an observer
// receiving broadcasts, and may also send location_update / edit_name events.
// Inbound events have no response slot, so their failures are swallowed —
// logged, never answered. That asymmetry with the HTTP channel is deliberate.
type SocketController struct {
	hub     *hub.Hub
	gateway *gateway.Gateway
}

func NewSocketController(h *hub.Hub, gw *gateway.Gateway) *SocketController {
	return &SocketController{hub: h, gateway: gw}
}

// HandleWebSocket upgrades GET /ws/location and pumps inbound events until
// the client goes away.
func (sc *SocketController) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}

	sc.hub.Register(conn)
	defer func() {
		sc.hub.Unregister(conn)
		conn.Close()
	}()

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("WebSocket closed normally or abnormally.")
			} else {
				logrus.WithError(err).Warn("Error reading WebSocket message.")
			}
			break
		}
		if messageType == websocket.TextMessage {
			sc.dispatch(c.Request.Context(), p)
		}
	}
}

// dispatch routes one inbound envelope. Anything malformed is dropped.
func (sc *SocketController) dispatch(ctx context.Context, raw []byte) {
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		logrus.WithError(err).Debug("Dropping malformed push-channel message.")
		return
	}

	switch env.Event {
	case eventLocationUpdate:
		sc.handleLocationUpdate(ctx, env.Data)
	case eventEditName:
		sc.handleEditName(ctx, env.Data)
	default:
		logrus.WithField("event", env.Event).Debug("Ignoring unknown push-channel event.")
	}
}

func (sc *SocketController) handleLocationUpdate(ctx context.Context, data json.RawMessage) {
	var ev locationUpdateEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.ID == nil || ev.Lat == nil || ev.Lng == nil {
		logrus.WithError(gateway.ErrMissingField).Debug("Dropping location_update event.")
		return
	}

	if _, err := sc.gateway.HandleCoordinateUpdate(ctx, *ev.ID, *ev.Lat, *ev.Lng); err != nil {
		logrus.WithError(err).WithField("bus_id", *ev.ID).Debug("Push-channel location_update rejected, dropping.")
	}
}

func (sc *SocketController) handleEditName(ctx context.Context, data json.RawMessage) {
	var ev editNameEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.ID == nil || ev.NewBusNumber == nil || ev.NewRouteName == nil {
		logrus.WithError(gateway.ErrMissingField).Debug("Dropping edit_name event.")
		return
	}

	if _, err := sc.gateway.HandleIdentityEdit(ctx, *ev.ID, *ev.NewBusNumber, *ev.NewRouteName); err != nil {
		if errors.Is(err, gateway.ErrLocked) {
			logrus.WithField("bus_id", *ev.ID).Debug("edit_name for locked bus ignored.")
		} else {
			logrus.WithError(err).WithField("bus_id", *ev.ID).Debug("Push-channel edit_name rejected, dropping.")
		}
	}
}
