package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"roomreserve/internal/config"
	"roomreserve/internal/database"
	"roomreserve/internal/middleware"
	"roomreserve/internal/modules/booking"
	"roomreserve/internal/modules/catalog"
	"roomreserve/internal/modules/schedule"
	jwtsvc "roomreserve/internal/pkg/jwt"
	"roomreserve/internal/repository"
)

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := schedule.NewHub(log)
	wsHandler := schedule.NewWSHandler(hub, j, userRepo, log)

	bookingService := booking.NewService(bookingRepo, roomRepo, schedule.NewSink(hub), booking.Policy{
		Completion: cfg.CompletionPolicy,
		DayStart:   cfg.DayStart,
		DayEnd:     cfg.DayEnd,
	})
	bookingHandler := booking.NewHandler(bookingService)

	catalogService := catalog.NewService(roomRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(log))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(j))
	{
		bookingHandler.RegisterRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
	}

	r.GET("/ws/schedule", wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped cleanly")
}
