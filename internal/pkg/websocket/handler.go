package websocket

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/middleware"
)

// Handler for WebSocket connections
type Handler struct {
	hub         *Hub
	students    services.StudentService
	dashboard   services.DashboardService
	corrections services.CorrectionService
	logger      zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(
	hub *Hub,
	students services.StudentService,
	dashboard services.DashboardService,
	corrections services.CorrectionService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		hub:         hub,
		students:    students,
		dashboard:   dashboard,
		corrections: corrections,
		logger:      logger,
	}
}

// DashboardStream godoc
// @Summary Live dashboard stats
// @Description Upgrades to a WebSocket that pushes the dashboard stats of the active academic year on every change
// @Tags dashboard, websocket
// @Security BearerAuth
// @Param token query string false "Access token, for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 428 {object} dto.ErrorResponse "No academic year selected"
// @Router /ws/dashboard [get]
func (h *Handler) DashboardStream(c *gin.Context) {
	year := middleware.GetAcademicYear(c)
	serve(h, c, StreamDashboard, func(ctx context.Context) (<-chan models.DashboardStats, func(), error) {
		return h.dashboard.WatchStats(ctx, year)
	})
}

// StudentCountStream godoc
// @Summary Live student count
// @Description Upgrades to a WebSocket that pushes the number of students in the active academic year on every change
// @Tags students, websocket
// @Security BearerAuth
// @Param token query string false "Access token, for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 428 {object} dto.ErrorResponse "No academic year selected"
// @Router /ws/students/count [get]
func (h *Handler) StudentCountStream(c *gin.Context) {
	year := middleware.GetAcademicYear(c)
	serve(h, c, StreamCount, func(ctx context.Context) (<-chan int, func(), error) {
		return h.students.WatchCount(ctx, year)
	})
}

// RequestsStream godoc
// @Summary Live pending corrections
// @Description Upgrades to a WebSocket that pushes the pending correction list on every change
// @Tags corrections, websocket
// @Security BearerAuth
// @Param token query string false "Access token, for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Router /ws/requests [get]
func (h *Handler) RequestsStream(c *gin.Context) {
	serve(h, c, StreamRequests, h.corrections.ListPending)
}

// serve subscribes before upgrading so that subscription errors still get a
// JSON error response.
func serve[T any](h *Handler, c *gin.Context, stream Stream, subscribe func(ctx context.Context) (<-chan T, func(), error)) {
	identity, _ := middleware.GetIdentity(c)

	// The request context ends when this handler returns, the subscription
	// lives until the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	updates, cancel, err := subscribe(ctx)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cancel()
		h.logger.Error().
			Err(err).
			Str("stream", string(stream)).
			Str("userID", identity.UserID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
		cancel: cancel,
		userID: identity.UserID,
		stream: stream,
		logger: h.logger,
	}
	if !h.hub.join(client) {
		cancel()
		conn.Close()
		return
	}

	go forward(client, updates)
	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Str("stream", string(stream)).
		Str("userID", identity.UserID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
