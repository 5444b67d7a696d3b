package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"locamark/internal/geo"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled by the outer middleware
	},
}

// Message types exchanged over the position sockets.
const (
	msgRequestAuthorization = "request_authorization"
	msgAuthorization        = "authorization"
	msgPosition             = "position"
	msgAck                  = "ack"
	msgError                = "error"
)

type socketMessage struct {
	Type   string                   `json:"type"`
	Status *geo.AuthorizationStatus `json:"status,omitempty"`
}

type positionMessage struct {
	Type string `json:"type"`
	geo.Position
}

// PositionController feeds device fixes into the tracker and streams them to viewers.
type PositionController struct {
	tracker *geo.Tracker
}

func NewPositionController(tracker *geo.Tracker) *PositionController {
	return &PositionController{tracker: tracker}
}

// Push accepts a single fix over plain HTTP.
func (pc *PositionController) Push(c *gin.Context) {
	var pos geo.Position
	if err := c.ShouldBindJSON(&pos); err != nil {
		badRequest(c, err)
		return
	}
	if err := pc.tracker.Update(pos); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": pc.tracker.Status()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": pc.tracker.Status()})
}

// SetAuthorization records the device's permission answer over plain HTTP.
func (pc *PositionController) SetAuthorization(c *gin.Context) {
	var body socketMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if body.Status == nil {
		badRequest(c, fmt.Errorf("missing status"))
		return
	}
	pc.tracker.SetAuthorization(*body.Status)
	c.JSON(http.StatusOK, gin.H{"status": pc.tracker.Status()})
}

// Current returns the cached fix.
func (pc *PositionController) Current(c *gin.Context) {
	pos, err := pc.tracker.CurrentPosition()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "status": pc.tracker.Status()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": pos, "status": pc.tracker.Status()})
}

// DeviceSocket runs the authorization handshake and then reads fixes from the device.
func (pc *PositionController) DeviceSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	log := logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn))
	log.Info("Device WebSocket connection established.")

	status := pc.tracker.RequestAuthorization()
	if status == geo.NotDetermined {
		err = conn.WriteJSON(socketMessage{Type: msgRequestAuthorization})
	} else {
		err = conn.WriteJSON(socketMessage{Type: msgAuthorization, Status: &status})
	}
	if err != nil {
		log.WithError(err).Warn("Failed to send authorization handshake.")
		return
	}

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Info("Device WebSocket closed normally or abnormally.")
			} else {
				log.WithError(err).Error("Error reading WebSocket message from device")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := conn.WriteJSON(pc.handleDeviceMessage(p)); err != nil {
			log.WithError(err).Warn("Failed to reply to device.")
			break
		}
	}
	log.Info("Device WebSocket connection closed.")
}

func (pc *PositionController) handleDeviceMessage(p []byte) interface{} {
	var msg socketMessage
	if err := json.Unmarshal(p, &msg); err != nil {
		logrus.WithError(err).WithField("payload", string(p)).Warn("Malformed device message.")
		return gin.H{"type": msgError, "error": "invalid message"}
	}

	switch msg.Type {
	case msgAuthorization:
		if msg.Status == nil {
			return gin.H{"type": msgError, "error": "missing status"}
		}
		pc.tracker.SetAuthorization(*msg.Status)
		status := pc.tracker.Status()
		return socketMessage{Type: msgAuthorization, Status: &status}

	case msgPosition:
		var pos geo.Position
		if err := json.Unmarshal(p, &pos); err != nil {
			logrus.WithError(err).WithField("payload", string(p)).Error("Error unmarshaling position from device.")
			return gin.H{"type": msgError, "error": "Invalid location data format. Check timestamp format."}
		}
		if err := pc.tracker.Update(pos); err != nil {
			return gin.H{"type": msgError, "error": err.Error()}
		}
		return gin.H{"type": msgAck, "received_at": time.Now().UTC().Format(time.RFC3339Nano)}

	default:
		return gin.H{"type": msgError, "error": fmt.Sprintf("unknown message type %q", msg.Type)}
	}
}

// WatchSocket streams every accepted fix to a viewer until either side goes away.
func (pc *PositionController) WatchSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	log := logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn))
	log.Info("Viewer WebSocket connection established.")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Viewers only listen; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if pos, err := pc.tracker.CurrentPosition(); err == nil {
		if err := conn.WriteJSON(positionMessage{Type: msgPosition, Position: pos}); err != nil {
			return
		}
	}

	for pos := range pc.tracker.Subscribe(ctx) {
		if err := conn.WriteJSON(positionMessage{Type: msgPosition, Position: pos}); err != nil {
			log.WithError(err).Warn("Failed to send position to viewer.")
			return
		}
	}
	log.Info("Viewer WebSocket connection closed.")
}
