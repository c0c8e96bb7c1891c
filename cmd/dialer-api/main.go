package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	internal_campaign "github.com/callwiseai/api/dialer-api/internals/campaign"
	internal_history "github.com/callwiseai/api/dialer-api/internals/history"
	internal_leads "github.com/callwiseai/api/dialer-api/internals/leads"
	internal_session "github.com/callwiseai/api/dialer-api/internals/session"
	internal_telephony "github.com/callwiseai/api/dialer-api/internals/telephony"
	dialer_routers "github.com/callwiseai/api/routers"
	"github.com/callwiseai/config"
	"github.com/callwiseai/pkg/commons"
	"github.com/callwiseai/pkg/connectors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

var defaultCampaigns = []internal_campaign.Campaign{
	{Key: "welcome", Label: "Welcome call"},
	{Key: "follow_up", Label: "Follow up"},
	{Key: "win_back", Label: "Win back"},
}

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("unable to init config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("unable to read config: %v", err)
	}

	logger, err := commons.NewServiceLogger(cfg.Name, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("unable to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgres, err := connectors.NewPostgresConnector(cfg.PostgresConfig, logger)
	if err != nil {
		logger.Fatalf("unable to connect postgres: %v", err)
	}
	defer postgres.Close()

	if err := internal_history.Migrate(ctx, postgres); err != nil {
		logger.Fatalf("unable to migrate call records: %v", err)
	}

	registry := internal_campaign.NewRegistry(postgres, logger)
	if err := registry.EnsureDefaults(ctx, defaultCampaigns); err != nil {
		logger.Fatalf("unable to seed campaigns: %v", err)
	}

	leadSource, err := internal_leads.NewCSVSource(logger, cfg.DialerConfig.LeadsFile)
	if err != nil {
		logger.Fatalf("unable to load leads: %v", err)
	}

	dialer, err := internal_telephony.NewDialer(cfg.TelephonyConfig, logger)
	if err != nil {
		logger.Fatalf("unable to create telephony dialer: %v", err)
	}

	store := internal_session.NewStore()
	history := internal_history.NewStore(postgres, logger)
	controller := internal_session.NewController(logger, store, leadSource, dialer,
		internal_session.WithConnectImmediately(cfg.DialerConfig.ConnectImmediately),
		internal_session.WithHistory(history),
	)
	publisher := internal_session.NewPublisher(logger, store, registry)
	defer publisher.Close()

	if cfg.RedisConfig.Enabled() {
		redis, err := connectors.NewRedisConnector(cfg.RedisConfig, logger)
		if err != nil {
			logger.Fatalf("unable to connect redis: %v", err)
		}
		defer redis.Close()
		publisher.PublishToRedis(redis.Client(), cfg.DialerConfig.StatusChannel)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
	}))

	dialer_routers.HealthCheckRoutes(cfg, engine, logger, postgres)
	dialer_routers.DialerApiRoutes(cfg, engine, logger, controller, publisher, registry, history)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("%s %s listening on %s", cfg.Name, cfg.Version, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}
