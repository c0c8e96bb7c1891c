package dialer_routers

import (
	dialerApi "github.com/callwiseai/api/dialer-api/api/dialer"
	internal_campaign "github.com/callwiseai/api/dialer-api/internals/campaign"
	internal_history "github.com/callwiseai/api/dialer-api/internals/history"
	internal_session "github.com/callwiseai/api/dialer-api/internals/session"
	healthCheckApi "github.com/callwiseai/api/health-check-api"
	"github.com/callwiseai/config"
	"github.com/callwiseai/pkg/commons"
	"github.com/callwiseai/pkg/connectors"
	"github.com/gin-gonic/gin"
)

func DialerApiRoutes(
	cfg *config.AppConfig,
	engine *gin.Engine,
	logger commons.Logger,
	controller *internal_session.Controller,
	publisher *internal_session.Publisher,
	registry internal_campaign.Registry,
	history internal_history.Store,
) {
	logger.Info("DialerApiRoutes added to engine.")
	apiv1 := engine.Group("v1/dialer")
	dApi := dialerApi.New(cfg, logger, controller, publisher, registry, history)
	{
		apiv1.GET("/status", dApi.Status)
		apiv1.GET("/status/stream", dApi.StatusStream)
		apiv1.POST("/select_campaign", dApi.SelectCampaign)
		apiv1.POST("/start_call", dApi.StartCall)
		apiv1.POST("/end_call", dApi.EndCall)
		apiv1.POST("/auto_next", dApi.AutoNext)
		apiv1.POST("/stop_all", dApi.StopAll)
		apiv1.GET("/campaigns", dApi.Campaigns)
		apiv1.GET("/history", dApi.History)

		// gateway-facing progress webhook
		apiv1.POST("/callbacks/progress", dApi.Progress)
	}
}

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, postgres connectors.PostgresConnector) {
	logger.Info("Internal HealthCheckRoutes and Connectors added to engine.")
	apiv1 := engine.Group("")
	hcApi := healthCheckApi.New(cfg, logger, postgres)
	{
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}
