package dialer_api

import (
	"errors"
	"net/http"
	"strconv"

	internal_campaign "github.com/callwiseai/api/dialer-api/internals/campaign"
	internal_history "github.com/callwiseai/api/dialer-api/internals/history"
	internal_session "github.com/callwiseai/api/dialer-api/internals/session"
	"github.com/callwiseai/config"
	"github.com/callwiseai/pkg/commons"
	"github.com/callwiseai/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// DialerApi serves the dashboard's polling and call-control endpoints.
// Mutating endpoints accept form-encoded bodies, matching what the dashboard
// sends; responses are JSON envelopes around the status view.
type DialerApi struct {
	cfg        *config.AppConfig
	logger     commons.Logger
	controller *internal_session.Controller
	publisher  *internal_session.Publisher
	registry   internal_campaign.Registry
	history    internal_history.Store
	upgrader   websocket.Upgrader
}

func New(
	cfg *config.AppConfig,
	logger commons.Logger,
	controller *internal_session.Controller,
	publisher *internal_session.Publisher,
	registry internal_campaign.Registry,
	history internal_history.Store,
) *DialerApi {
	return &DialerApi{
		cfg:        cfg,
		logger:     logger,
		controller: controller,
		publisher:  publisher,
		registry:   registry,
		history:    history,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Status answers the dashboard's ~1s poll.
func (api *DialerApi) Status(c *gin.Context) {
	utils.Success(c, api.publisher.Status())
}

// SelectCampaign sets the session's campaign; an omitted or empty value
// clears it.
func (api *DialerApi) SelectCampaign(c *gin.Context) {
	key := c.PostForm("campaign")
	if utils.IsEmpty(key) {
		utils.Success(c, api.publisher.View(api.controller.SelectCampaign(nil)))
		return
	}
	if _, err := api.registry.Get(c.Request.Context(), key); err != nil {
		if errors.Is(err, internal_campaign.ErrNotFound) {
			utils.Failure(c, http.StatusNotFound, "unknown campaign")
			return
		}
		api.logger.Errorf("campaign lookup failed: %v", err)
		utils.Failure(c, http.StatusBadGateway, "campaign registry unavailable")
		return
	}
	utils.Success(c, api.publisher.View(api.controller.SelectCampaign(&key)))
}

// StartCall starts a call to the 1-based lead_global_index.
func (api *DialerApi) StartCall(c *gin.Context) {
	rawIndex := c.PostForm("lead_global_index")
	leadIndex, err := strconv.Atoi(rawIndex)
	if err != nil {
		utils.Failure(c, http.StatusBadRequest, "lead_global_index must be an integer")
		return
	}

	var campaign *string
	if key, ok := c.GetPostForm("campaign"); ok && !utils.IsEmpty(key) {
		campaign = &key
	}

	session, err := api.controller.StartCall(c.Request.Context(), leadIndex, campaign)
	if err != nil {
		api.failure(c, err)
		return
	}
	utils.Success(c, api.publisher.View(session))
}

// EndCall ends the current call; idempotent when nothing is active.
func (api *DialerApi) EndCall(c *gin.Context) {
	autoNext := utils.ParseBool(c.PostForm("auto_next"))
	session, err := api.controller.EndCall(c.Request.Context(), autoNext)
	if err != nil {
		api.failure(c, err)
		return
	}
	utils.Success(c, api.publisher.View(session))
}

// AutoNext sets the persistent auto-advance flag.
func (api *DialerApi) AutoNext(c *gin.Context) {
	enabled := utils.ParseBool(c.PostForm("enabled"))
	utils.Success(c, api.publisher.View(api.controller.SetAutoNext(enabled)))
}

// StopAll hard-resets the dialer to idle.
func (api *DialerApi) StopAll(c *gin.Context) {
	utils.Success(c, api.publisher.View(api.controller.StopAll(c.Request.Context())))
}

// Campaigns lists the campaign registry for the dashboard's selector.
func (api *DialerApi) Campaigns(c *gin.Context) {
	campaigns, err := api.registry.List(c.Request.Context())
	if err != nil {
		api.logger.Errorf("campaign list failed: %v", err)
		utils.Failure(c, http.StatusBadGateway, "campaign registry unavailable")
		return
	}
	utils.Success(c, campaigns)
}

// History returns the most recent call records.
func (api *DialerApi) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := api.history.Recent(c.Request.Context(), limit)
	if err != nil {
		api.logger.Errorf("call history read failed: %v", err)
		utils.Failure(c, http.StatusBadGateway, "call history unavailable")
		return
	}
	utils.Success(c, records)
}

// Progress receives dial-progress callbacks from the telephony gateway.
// Stale call ids are ignored on purpose; the gateway retries blindly.
func (api *DialerApi) Progress(c *gin.Context) {
	callID := c.PostForm("call_id")
	if utils.IsEmpty(callID) {
		utils.Failure(c, http.StatusBadRequest, "call_id is required")
		return
	}
	status := internal_session.Status(c.PostForm("status"))
	if status != internal_session.StatusRinging && status != internal_session.StatusRunning {
		utils.Failure(c, http.StatusBadRequest, "status must be ringing or running")
		return
	}
	api.controller.Progress(callID, status)
	c.Status(http.StatusNoContent)
}

// StatusStream pushes a status snapshot per transition over a websocket.
// Polling /status stays the baseline contract; this is for dashboards that
// opt in.
func (api *DialerApi) StatusStream(c *gin.Context) {
	conn, err := api.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.logger.Errorf("status stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Buffered so the commit hook never blocks on a slow client; overflow
	// drops intermediate snapshots, the client converges on the next one.
	updates := make(chan internal_session.StatusView, 16)
	cancel := api.publisher.Subscribe(func(view internal_session.StatusView) {
		select {
		case updates <- view:
		default:
		}
	})
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(api.publisher.Status()); err != nil {
		return
	}
	for {
		select {
		case view := <-updates:
			if err := conn.WriteJSON(view); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func (api *DialerApi) failure(c *gin.Context, err error) {
	switch {
	case errors.Is(err, internal_session.ErrCallActive):
		utils.Failure(c, http.StatusConflict, "a call is already active")
	case errors.Is(err, internal_session.ErrLeadNotFound):
		utils.Failure(c, http.StatusNotFound, "lead not found")
	default:
		api.logger.Errorf("dialer operation failed: %v", err)
		utils.Failure(c, http.StatusInternalServerError, "unable to complete the operation, please try again")
	}
}
