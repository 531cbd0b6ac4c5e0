package main

import (
	"charades/config"
	"charades/crypto"
	"charades/entitlement"
	"charades/game"
	applog "charades/logger"
	"charades/migrations"
	"charades/storage"
	"charades/wordbank"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

type Handlers struct {
	Verifier   entitlement.TokenVerifier
	Games      *game.GameHandler
	Categories *wordbank.CategoryHandler
	History    *storage.HistoryHandler
	Logger     zerolog.Logger
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	api := r.Group("/api")
	api.Use(entitlement.Middleware(h.Verifier, h.Logger))

	{
		sessions := api.Group("/sessions")
		sessions.POST("", h.Games.CreateSessionHandler)
		sessions.GET("/:id", h.Games.GetSessionHandler)
		sessions.DELETE("/:id", h.Games.DeleteSessionHandler)
		sessions.POST("/:id/actions/:action", h.Games.ActionHandler)
		sessions.GET("/:id/ws", h.Games.SubscribeHandler)
	}

	{
		categories := api.Group("/categories")
		categories.GET("", h.Categories.ListHandler)
		categories.POST("/custom", h.Categories.CreateCustomHandler)
		categories.PATCH("/custom/:id", h.Categories.UpdateCustomHandler)
		categories.DELETE("/custom/:id", h.Categories.DeleteCustomHandler)
	}

	{
		games := api.Group("/games")
		games.GET("/history", h.History.GameHistoryHandler)
		games.GET("/:id/teams", h.History.TeamsHandler)
	}
}

// catalogBanks lets the lobby draw words from the catalog.
type catalogBanks struct {
	catalog *wordbank.Catalog
}

func (cb catalogBanks) BankFor(ctx context.Context, deviceId string) (game.WordBank, error) {
	bank, err := cb.catalog.BankFor(ctx, deviceId)
	if err != nil {
		return nil, err
	}
	return bank, nil
}

func serve(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := applog.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	if err := migrations.Migrate(cfg.Postgres.URL); err != nil {
		return err
	}

	pgRepo, err := storage.NewPostgresRepo(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pgRepo.Close()

	builtins, err := wordbank.LoadBuiltins()
	if err != nil {
		return err
	}
	catalog, err := wordbank.NewCatalog(builtins, pgRepo, cfg.Wordbank.CacheTTL, logger.With().Str("component", "wordbank").Logger())
	if err != nil {
		return err
	}
	defer catalog.Close()

	tokenManager := crypto.NewJWTManager(cfg.Entitlement.JWTKey, cfg.Entitlement.TokenAge)

	lobby := game.NewLobby(game.LobbyDeps{
		Banks:    catalogBanks{catalog: catalog},
		Recorder: pgRepo,
		Policy: entitlement.Policy{
			FreeExtensions:   cfg.Session.FreeExtensions,
			ExtensionSeconds: cfg.Session.ExtensionSeconds,
		},
		IdleTTL: cfg.Session.IdleTTL,
		Logger:  logger.With().Str("component", "lobby").Logger(),
	})
	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(ctx, lobbyStarted)
	<-lobbyStarted

	r := CreateServer(cfg.HTTP.AllowedOrigins)
	r.Use(gin.Recovery())
	RegisterRoutes(r, Handlers{
		Verifier:   tokenManager,
		Games:      game.NewGameHandler(lobby, logger),
		Categories: wordbank.NewCategoryHandler(catalog, logger),
		History:    storage.NewHistoryHandler(pgRepo, logger),
		Logger:     logger,
	})

	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: r}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()
	logger.Info().Str("addr", cfg.HTTP.Addr).Msg("server started")

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info().Msg("SIGTERM or SIGINT received, closing sessions before shutting down")
	}

	<-lobby.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("shutting down now")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
