package game

import (
	"charades/entitlement"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidRequestFormatStr = "bad-request-format"
	ErrServerTimeoutStr        = "server-timeout"
	ErrUnknownStr              = "unknown-error"
)

type SessionStore interface {
	CreateSession(ctx context.Context, deviceId string, cfg Config, ent entitlement.Entitlement) (*Session, error)
	Session(ctx context.Context, id string) (*Session, error)
	RemoveSession(ctx context.Context, id string) error
}

type GameHandler struct {
	sessions SessionStore
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewGameHandler(sessions SessionStore, logger zerolog.Logger) *GameHandler {
	return &GameHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are enforced by the server middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *GameHandler) CreateSessionHandler(ctx *gin.Context) {
	var body struct {
		Config   *Config `json:"config"`
		DeviceId string  `json:"deviceId"`
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}
	if body.Config == nil {
		ctx.String(http.StatusBadRequest, ErrMissingConfig.Error())
		ctx.Abort()
		return
	}

	ent := entitlement.FromContext(ctx)
	deviceId := body.DeviceId
	if ent.DeviceId != "" {
		deviceId = ent.DeviceId
	}

	s, err := h.sessions.CreateSession(ctx.Request.Context(), deviceId, *body.Config, ent)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"id": s.Id(), "state": s.State()})
}

func (h *GameHandler) GetSessionHandler(ctx *gin.Context) {
	s, err := h.sessions.Session(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, s.State())
}

func (h *GameHandler) DeleteSessionHandler(ctx *gin.Context) {
	if err := h.sessions.RemoveSession(ctx.Request.Context(), ctx.Param("id")); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (h *GameHandler) ActionHandler(ctx *gin.Context) {
	var req ActionRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
			ctx.Abort()
			return
		}
	}

	s, err := h.sessions.Session(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	st, err := s.Apply(ctx.Param("action"), req, entitlement.FromContext(ctx))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, st)
}

func (h *GameHandler) SubscribeHandler(ctx *gin.Context) {
	s, err := h.sessions.Session(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("session", s.Id()).Msg("websocket upgrade failed")
		return
	}

	s.Subscribe(NewGorillaWebsocketConnection(conn), entitlement.FromContext(ctx))
}

func (h *GameHandler) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		ctx.String(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnknownAction),
		errors.Is(err, ErrMissingConfig),
		errors.Is(err, ErrInvalidTimerLength),
		errors.Is(err, ErrInvalidRounds),
		errors.Is(err, ErrInvalidMode),
		errors.Is(err, ErrNoCategories),
		errors.Is(err, ErrNoTeams),
		errors.Is(err, ErrInvalidTeamName):
		ctx.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTimeExtensionNotAllowed):
		ctx.String(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, ErrLobbyClosed):
		ctx.String(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		ctx.String(http.StatusGatewayTimeout, ErrServerTimeoutStr)
	case errors.Is(err, context.Canceled):
		ctx.Status(499)
	default:
		h.logger.Error().Err(err).Str("path", ctx.FullPath()).Msg("request failed")
		ctx.String(http.StatusInternalServerError, ErrUnknownStr)
	}
	ctx.Abort()
}
