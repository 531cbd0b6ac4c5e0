package entitlement

import (
	"charades/domain"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const contextKey = "entitlement"

var ErrExpiredTokenStr = "expired-token"

// Middleware attaches the caller's entitlement to the request. Requests
// without a token, or with one that does not verify, play as anonymous free
// players. Expired tokens are rejected so the client knows to refresh.
// Websocket clients may pass the token as ?token= since browsers cannot set
// headers on the upgrade request.
func Middleware(verifier TokenVerifier, logger zerolog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			ctx.Set(contextKey, Entitlement{})
			ctx.Next()
			return
		}

		ent, err := verifier.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrExpiredToken):
				ctx.String(http.StatusUnauthorized, ErrExpiredTokenStr)
				ctx.Abort()
				return
			case errors.Is(err, domain.ErrInvalidSigningAlg), errors.Is(err, domain.ErrInvalidTokenSignature), errors.Is(err, domain.ErrCorruptedToken):
				logger.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("rejected entitlement token")
			default:
				logger.Error().Err(err).Msg("entitlement verification failed")
			}
			ent = Entitlement{}
		}

		ctx.Set(contextKey, ent)
		ctx.Next()
	}
}

func FromContext(ctx *gin.Context) Entitlement {
	v, ok := ctx.Get(contextKey)
	if !ok {
		return Entitlement{}
	}
	ent, _ := v.(Entitlement)
	return ent
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ctx.Query("token")
}
