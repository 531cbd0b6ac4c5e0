package wordbank

import (
	"charades/domain"
	"charades/entitlement"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidRequestFormatStr = "bad-request-format"
	ErrMissingDeviceIdStr      = "missing-device-id"
	ErrServerTimeoutStr        = "server-timeout"
	ErrUnknownStr              = "unknown-error"
)

type CategoryService interface {
	Categories(ctx context.Context, deviceId string) ([]domain.Category, error)
	CreateCustom(ctx context.Context, c domain.CustomCategory) (domain.CustomCategory, error)
	UpdateCustom(ctx context.Context, owner string, id int64, patch domain.CustomCategoryPatch) (domain.CustomCategory, error)
	DeleteCustom(ctx context.Context, owner string, id int64) error
}

type CategoryHandler struct {
	service CategoryService
	logger  zerolog.Logger
}

func NewCategoryHandler(service CategoryService, logger zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{service: service, logger: logger}
}

func (h *CategoryHandler) ListHandler(ctx *gin.Context) {
	deviceId := deviceIdOf(ctx, ctx.Query("deviceId"))

	categories, err := h.service.Categories(ctx.Request.Context(), deviceId)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCustomHandler(ctx *gin.Context) {
	var body struct {
		Name     string   `json:"name"`
		Words    []string `json:"words"`
		Icon     string   `json:"icon"`
		Color    string   `json:"color"`
		DeviceId string   `json:"deviceId"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	deviceId := deviceIdOf(ctx, body.DeviceId)
	if deviceId == "" {
		ctx.String(http.StatusBadRequest, ErrMissingDeviceIdStr)
		ctx.Abort()
		return
	}

	created, err := h.service.CreateCustom(ctx.Request.Context(), domain.CustomCategory{
		Name:     body.Name,
		Words:    body.Words,
		Icon:     body.Icon,
		Color:    body.Color,
		DeviceId: deviceId,
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}

func (h *CategoryHandler) UpdateCustomHandler(ctx *gin.Context) {
	id, ok := customIdParam(ctx)
	if !ok {
		return
	}

	var patch domain.CustomCategoryPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	owner := entitlement.FromContext(ctx).DeviceId
	updated, err := h.service.UpdateCustom(ctx.Request.Context(), owner, id, patch)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, updated)
}

func (h *CategoryHandler) DeleteCustomHandler(ctx *gin.Context) {
	id, ok := customIdParam(ctx)
	if !ok {
		return
	}

	owner := entitlement.FromContext(ctx).DeviceId
	if err := h.service.DeleteCustom(ctx.Request.Context(), owner, id); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// customIdParam accepts both the raw database id and the "custom-<id>" form.
func customIdParam(ctx *gin.Context) (int64, bool) {
	raw := ctx.Param("id")
	if id, ok := ParseCustomId(raw); ok {
		return id, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return 0, false
	}
	return id, true
}

func deviceIdOf(ctx *gin.Context, fallback string) string {
	if ent := entitlement.FromContext(ctx); ent.DeviceId != "" {
		return ent.DeviceId
	}
	return fallback
}

func (h *CategoryHandler) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		ctx.String(http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidCategory):
		ctx.String(http.StatusBadRequest, err.Error())
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
