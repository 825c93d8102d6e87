package schedule

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomreserve/internal/pkg/jwt"
	"roomreserve/internal/repository"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins once the frontend host is fixed
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades GET /ws/schedule?token=JWT into a watcher connection.
// Browsers cannot set headers on websocket dials, so auth rides the query.
type WSHandler struct {
	hub        *Hub
	jwtService *jwt.Service
	users      *repository.UserRepository
	log        zerolog.Logger
}

func NewWSHandler(hub *Hub, jwtService *jwt.Service, users *repository.UserRepository, log zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, jwtService: jwtService, users: users, log: log}
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	// tokens outlive account changes, so check the user is still active
	user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
	if err != nil || !user.Active {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "account is not active"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	w := h.hub.Register(claims.UserID, conn)
	h.log.Info().Int64("user_id", claims.UserID).Msg("schedule watcher connected")

	// detach by handle: a reconnect may already have displaced this watcher
	defer func() {
		h.hub.detach(claims.UserID, w)
		h.log.Info().Int64("user_id", claims.UserID).Msg("schedule watcher disconnected")
	}()

	// the hub's write pump sends the pings; this side only tracks pongs
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	h.readLoop(conn, claims.UserID)
}

// readLoop drains the connection. Watchers are receive-only; anything they
// send is discarded, and a read error ends the session.
func (h *WSHandler) readLoop(conn *websocket.Conn, userID int64) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure) {
				h.log.Debug().Int64("user_id", userID).Err(err).Msg("websocket read error")
			}
			return
		}
	}
}
