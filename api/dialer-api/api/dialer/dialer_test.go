package dialer_api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	internal_campaign "github.com/callwiseai/api/dialer-api/internals/campaign"
	internal_history "github.com/callwiseai/api/dialer-api/internals/history"
	internal_leads "github.com/callwiseai/api/dialer-api/internals/leads"
	internal_session "github.com/callwiseai/api/dialer-api/internals/session"
	internal_telephony "github.com/callwiseai/api/dialer-api/internals/telephony"
	"github.com/callwiseai/config"
	"github.com/callwiseai/pkg/commons"
	"github.com/callwiseai/pkg/connectors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type statusEnvelope struct {
	Success bool                         `json:"success"`
	Data    *internal_session.StatusView `json:"data"`
	Error   string                       `json:"error"`
}

func newTestRouter(t *testing.T, leadCount int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger, _ := commons.NewApplicationLogger()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a :memory: database exists per connection; keep the pool at one
	sqlDB.SetMaxOpenConns(1)
	postgres := connectors.NewPostgresConnectorWithDB(db, logger)

	registry := internal_campaign.NewRegistry(postgres, logger)
	require.NoError(t, registry.EnsureDefaults(context.Background(), []internal_campaign.Campaign{
		{Key: "welcome", Label: "Welcome call"},
		{Key: "follow_up", Label: "Follow up"},
	}))
	require.NoError(t, internal_history.Migrate(context.Background(), postgres))
	history := internal_history.NewStore(postgres, logger)

	leads := make([]internal_leads.Lead, leadCount)
	for i := range leads {
		leads[i] = internal_leads.Lead{
			ProspectName: "Prospect",
			Phone:        "+15550000000",
		}
	}

	store := internal_session.NewStore()
	controller := internal_session.NewController(logger, store,
		internal_leads.NewStaticSource(leads),
		internal_telephony.NewNoopDialer(logger),
		internal_session.WithHistory(history),
	)
	publisher := internal_session.NewPublisher(logger, store, registry)

	cfg := &config.AppConfig{Name: "dialer-api", Version: "test"}
	api := New(cfg, logger, controller, publisher, registry, history)

	engine := gin.New()
	v1 := engine.Group("v1/dialer")
	v1.GET("/status", api.Status)
	v1.POST("/select_campaign", api.SelectCampaign)
	v1.POST("/start_call", api.StartCall)
	v1.POST("/end_call", api.EndCall)
	v1.POST("/auto_next", api.AutoNext)
	v1.POST("/stop_all", api.StopAll)
	v1.GET("/campaigns", api.Campaigns)
	v1.GET("/history", api.History)
	v1.POST("/callbacks/progress", api.Progress)
	return engine
}

func postForm(t *testing.T, engine *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func getStatus(t *testing.T, engine *gin.Engine) internal_session.StatusView {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/dialer/status", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var envelope statusEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	return *envelope.Data
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) internal_session.StatusView {
	t.Helper()
	var envelope statusEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
	return *envelope.Data
}

func TestStatusEndpoint(t *testing.T) {
	engine := newTestRouter(t, 3)
	view := getStatus(t, engine)
	assert.Equal(t, "idle", view.Status)
	assert.False(t, view.Running)
	assert.Nil(t, view.LeadIndex)
}

func TestCallLifecycleOverHTTP(t *testing.T) {
	engine := newTestRouter(t, 3)

	w := postForm(t, engine, "/v1/dialer/select_campaign", url.Values{"campaign": {"welcome"}})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeStatus(t, w)
	require.NotNil(t, view.Campaign)
	assert.Equal(t, "welcome", *view.Campaign)
	assert.Equal(t, "Welcome call", view.CampaignLabel)

	w = postForm(t, engine, "/v1/dialer/start_call", url.Values{"lead_global_index": {"1"}})
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeStatus(t, w)
	assert.Equal(t, "dialing", view.Status)
	require.NotNil(t, view.LeadIndex)
	assert.Equal(t, 1, *view.LeadIndex)
	require.NotNil(t, view.Lead)

	w = postForm(t, engine, "/v1/dialer/end_call", url.Values{"auto_next": {"false"}})
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeStatus(t, w)
	assert.Equal(t, "ended", view.Status)
	assert.Nil(t, view.LeadIndex)
}

func TestStartCallValidation(t *testing.T) {
	engine := newTestRouter(t, 3)

	w := postForm(t, engine, "/v1/dialer/start_call", url.Values{"lead_global_index": {"not-a-number"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(t, engine, "/v1/dialer/start_call", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartCallUnknownLead(t *testing.T) {
	engine := newTestRouter(t, 5)
	w := postForm(t, engine, "/v1/dialer/start_call", url.Values{"lead_global_index": {"99"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	view := getStatus(t, engine)
	assert.Equal(t, "idle", view.Status)
}

func TestStartCallConflict(t *testing.T) {
	engine := newTestRouter(t, 3)

	w := postForm(t, engine, "/v1/dialer/start_call", url.Values{"lead_global_index": {"1"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = postForm(t, engine, "/v1/dialer/start_call", url.Values{"lead_global_index": {"2"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	view := getStatus(t, engine)
	require.NotNil(t, view.LeadIndex)
	assert.Equal(t, 1, *view.LeadIndex)
}

func TestAutoNextFlow(t *testing.T) {
	engine := newTestRouter(t, 3)

	w := postForm(t, engine, "/v1/dialer/auto_next", url.Values{"enabled": {"true"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeStatus(t, w).AutoNext)

	w = postForm(t, engine, "/v1/dialer/start_call", url.Values{"lead_global_index": {"1"}})
	require.Equal(t, http.StatusOK, w.Code)

	w = postForm(t, engine, "/v1/dialer/end_call", url.Values{"auto_next": {"true"}})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeStatus(t, w)
	require.NotNil(t, view.LeadIndex)
	assert.Equal(t, 2, *view.LeadIndex)
}

func TestEndCallWhenIdle(t *testing.T) {
	engine := newTestRouter(t, 3)
	w := postForm(t, engine, "/v1/dialer/end_call", url.Values{"auto_next": {"false"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decodeStatus(t, w).Status)
}

func TestStopAllEndpoint(t *testing.T) {
	engine := newTestRouter(t, 3)

	postForm(t, engine, "/v1/dialer/auto_next", url.Values{"enabled": {"true"}})
	postForm(t, engine, "/v1/dialer/select_campaign", url.Values{"campaign": {"welcome"}})
	postForm(t, engine, "/v1/dialer/start_call", url.Values{"lead_global_index": {"2"}})

	w := postForm(t, engine, "/v1/dialer/stop_all", url.Values{})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeStatus(t, w)
	assert.Equal(t, "idle", view.Status)
	assert.Nil(t, view.LeadIndex)
	assert.False(t, view.AutoNext)
	require.NotNil(t, view.Campaign)
	assert.Equal(t, "welcome", *view.Campaign)
}

func TestSelectUnknownCampaign(t *testing.T) {
	engine := newTestRouter(t, 3)
	w := postForm(t, engine, "/v1/dialer/select_campaign", url.Values{"campaign": {"missing"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelectCampaignClears(t *testing.T) {
	engine := newTestRouter(t, 3)
	postForm(t, engine, "/v1/dialer/select_campaign", url.Values{"campaign": {"welcome"}})

	w := postForm(t, engine, "/v1/dialer/select_campaign", url.Values{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeStatus(t, w).Campaign)
}

func TestCampaignsEndpoint(t *testing.T) {
	engine := newTestRouter(t, 3)
	req := httptest.NewRequest(http.MethodGet, "/v1/dialer/campaigns", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Success bool                         `json:"success"`
		Data    []internal_campaign.Campaign `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)
}

func TestProgressCallback(t *testing.T) {
	engine := newTestRouter(t, 3)

	w := postForm(t, engine, "/v1/dialer/start_call", url.Values{"lead_global_index": {"1"}})
	require.Equal(t, http.StatusOK, w.Code)

	// The handler cannot know the gateway's call id here, so a stale id is
	// the interesting case: accepted and ignored.
	w = postForm(t, engine, "/v1/dialer/callbacks/progress", url.Values{
		"call_id": {"stale"}, "status": {"running"},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "dialing", getStatus(t, engine).Status)

	w = postForm(t, engine, "/v1/dialer/callbacks/progress", url.Values{
		"call_id": {"x"}, "status": {"exploded"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postForm(t, engine, "/v1/dialer/callbacks/progress", url.Values{"status": {"running"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
