package storage

import (
	"charades/domain"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

var (
	ErrInvalidRequestFormatStr = "bad-request-format"
	ErrServerTimeoutStr        = "server-timeout"
	ErrUnknownStr              = "unknown-error"
)

type HistoryRepo interface {
	GameHistory(ctx context.Context, limit int) ([]domain.GameRecord, error)
	TeamsByGameId(ctx context.Context, gameId int64) ([]domain.TeamRecord, error)
}

type HistoryHandler struct {
	repo   HistoryRepo
	logger zerolog.Logger
}

func NewHistoryHandler(repo HistoryRepo, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{repo: repo, logger: logger}
}

func (h *HistoryHandler) GameHistoryHandler(ctx *gin.Context) {
	limit := defaultHistoryLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
			ctx.Abort()
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	games, err := h.repo.GameHistory(ctx.Request.Context(), limit)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, games)
}

func (h *HistoryHandler) TeamsHandler(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	teams, err := h.repo.TeamsByGameId(ctx.Request.Context(), id)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, teams)
}

func (h *HistoryHandler) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		ctx.String(http.StatusNotFound, err.Error())
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
