package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phleb-loss-tracker/internal/domain"
	"github.com/phleb-loss-tracker/internal/service"
	"github.com/phleb-loss-tracker/internal/session"
	"github.com/phleb-loss-tracker/internal/storage"
	"github.com/phleb-loss-tracker/internal/view"
)

type stubConfigManager struct {
	cfg *domain.AppConfig
}

func (m *stubConfigManager) GetConfig() *domain.AppConfig              { return m.cfg }
func (m *stubConfigManager) GetServerConfig() *domain.ServerConfig     { return &m.cfg.Server }
func (m *stubConfigManager) GetStorageConfig() *domain.StorageConfig   { return &m.cfg.Storage }
func (m *stubConfigManager) GetDatabaseConfig() *domain.DatabaseConfig { return &m.cfg.Database }
func (m *stubConfigManager) Reload() error                             { return nil }
func (m *stubConfigManager) Validate() error                           { return nil }
func (m *stubConfigManager) GetDatabaseConnectionString() string       { return "" }
func (m *stubConfigManager) GetDatabaseURL() string                    { return "" }

func newTestServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := storage.NewMemoryStore()
	calc := service.NewCalculator(logger)
	sess, err := session.New(context.Background(),
		storage.NewConfigRepository(store, logger),
		storage.NewStateRepository(store, logger),
		calc,
		logger,
		session.WithClock(func() time.Time { return time.Date(2026, time.January, 13, 9, 0, 0, 0, time.Local) }),
	)
	require.NoError(t, err)

	cm := &stubConfigManager{cfg: &domain.AppConfig{MCP: domain.MCPConfig{Name: "phleb-test", Version: "0.0.1"}}}
	server, err := NewServer(cm, sess, session.NewEvaluator(calc, logger), logger)
	require.NoError(t, err)
	return server, sess
}

func text(t *testing.T, result *mcp.CallToolResult, i int) string {
	t.Helper()
	require.Greater(t, len(result.Content), i)
	tc, ok := result.Content[i].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func payload(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	require.False(t, result.IsError, text(t, result, 0))
	require.NoError(t, json.Unmarshal([]byte(text(t, result, 1)), out))
}

func TestNewServer_RegistersTools(t *testing.T) {
	server, _ := newTestServer(t)

	assert.Equal(t, []string{
		"calculate_blood_loss", "get_session_report", "update_patient", "add_day",
		"remove_day", "set_day_orderables", "set_line_waste", "apply_bundle",
		"list_orderables", "set_tube_volume", "export_state", "import_state",
		"export_config", "import_config",
	}, server.ToolNames())
	assert.NotEmpty(t, server.instanceID)
}

func TestCalculateBloodLoss(t *testing.T) {
	server, sess := newTestServer(t)
	ctx := context.Background()

	var state any
	require.NoError(t, json.Unmarshal([]byte(`{"patient":{"weightKg":10,"ebvPresetId":"child"},"days":[{"hd":1,"orderables":["cbc","bmp"]}]}`), &state))

	result, _, err := server.handleCalculateBloodLoss(ctx, nil, CalculateParams{State: state})
	require.NoError(t, err)

	var out CalculateResult
	payload(t, result, &out)
	assert.Equal(t, 6.5, out.Report.CumulativeMl)
	assert.Equal(t, "Cumulative loss 6.5 mL over 1 days (0.9% EBV)", text(t, result, 0))

	// The live session is untouched.
	assert.Empty(t, sess.State().Days[0].Orderables)

	result, _, err = server.handleCalculateBloodLoss(ctx, nil, CalculateParams{State: []any{1}})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result, 0), "Invalid state")
}

func TestSessionTools(t *testing.T) {
	server, sess := newTestServer(t)
	ctx := context.Background()

	weight := 3.0
	preset := "term"
	result, _, err := server.handleUpdatePatient(ctx, nil, UpdatePatientParams{WeightKg: &weight, EBVPresetID: &preset})
	require.NoError(t, err)
	var vm view.ViewModel
	payload(t, result, &vm)
	assert.Equal(t, "255 mL", vm.PatientMetrics[0].Value)

	result, _, err = server.handleSetDayOrderables(ctx, nil, SetDayOrderablesParams{DayIndex: 0, Orderables: []string{"cbc", "cbc"}})
	require.NoError(t, err)
	payload(t, result, &vm)
	assert.Equal(t, []string{"cbc"}, sess.State().Days[0].Orderables)

	result, _, err = server.handleSetLineWaste(ctx, nil, SetLineWasteParams{DayIndex: 0, LineWasteMl: 2})
	require.NoError(t, err)
	payload(t, result, &vm)
	assert.Equal(t, "5.0", vm.Days[0].DailyMl)

	result, _, err = server.handleAddDay(ctx, nil, EmptyParams{})
	require.NoError(t, err)
	var added AddDayResult
	payload(t, result, &added)
	assert.Equal(t, "2026-01-14", added.Day.DateISO)
	assert.Equal(t, "Added HD 2 (2026-01-14)", text(t, result, 0))

	result, _, err = server.handleApplyBundle(ctx, nil, ApplyBundleParams{DayIndex: 1, BundleID: "daily_am_basic"})
	require.NoError(t, err)
	payload(t, result, &vm)
	assert.Equal(t, []string{"cbc", "bmp"}, sess.State().Days[1].Orderables)

	result, _, err = server.handleRemoveDay(ctx, nil, DayParams{DayIndex: 0})
	require.NoError(t, err)
	payload(t, result, &vm)
	require.Len(t, vm.Days, 1)
	assert.Equal(t, 1, vm.Days[0].HD)

	result, _, err = server.handleGetSessionReport(ctx, nil, EmptyParams{})
	require.NoError(t, err)
	assert.Contains(t, text(t, result, 0), "Current session. Cumulative loss 6.5 mL")
}

func TestToolErrors(t *testing.T) {
	server, _ := newTestServer(t)
	ctx := context.Background()

	result, _, err := server.handleRemoveDay(ctx, nil, DayParams{DayIndex: 9})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result, 0), "Day not found")

	result, _, err = server.handleApplyBundle(ctx, nil, ApplyBundleParams{DayIndex: 0, BundleID: "nope"})
	require.NoError(t, err)
	assert.Contains(t, text(t, result, 0), "Bundle not found")

	result, _, err = server.handleSetTubeVolume(ctx, nil, SetTubeVolumeParams{TubeID: "nope", Ml: 1})
	require.NoError(t, err)
	assert.Contains(t, text(t, result, 0), "Tube not found")

	result, _, err = server.handleImportConfig(ctx, nil, ImportConfigParams{Config: map[string]any{"tubes": []any{}}})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result, 0), "Invalid config")
}

func TestListOrderables(t *testing.T) {
	server, sess := newTestServer(t)
	ctx := context.Background()

	result, _, err := server.handleListOrderables(ctx, nil, ListOrderablesParams{})
	require.NoError(t, err)
	var listing CatalogListing
	payload(t, result, &listing)
	assert.NotEmpty(t, listing.Groups)
	assert.Len(t, listing.Bundles, len(sess.Config().Bundles))

	require.NoError(t, sess.ToggleOrderable(ctx, 0, "cbc", true))
	day := 0
	result, _, err = server.handleListOrderables(ctx, nil, ListOrderablesParams{DayIndex: &day})
	require.NoError(t, err)
	var panel view.PanelView
	payload(t, result, &panel)

	checked := 0
	for _, g := range panel.Groups {
		for _, item := range g.Items {
			if item.Checked {
				checked++
				assert.Equal(t, "cbc", item.ID)
			}
		}
	}
	assert.Equal(t, 1, checked)
}

func TestStateAndConfigRoundTrip(t *testing.T) {
	server, sess := newTestServer(t)
	ctx := context.Background()

	result, _, err := server.handleSetTubeVolume(ctx, nil, SetTubeVolumeParams{TubeID: "edta_3", Ml: 4})
	require.NoError(t, err)
	require.False(t, result.IsError)

	result, _, err = server.handleExportConfig(ctx, nil, EmptyParams{})
	require.NoError(t, err)
	exported := text(t, result, 0)

	result, _, err = server.handleImportConfig(ctx, nil, ImportConfigParams{Config: exported})
	require.NoError(t, err)
	require.False(t, result.IsError, text(t, result, 0))

	tube, ok := findTube(sess.Config(), "edta_3")
	require.True(t, ok)
	assert.Equal(t, 4.0, tube.Ml.Float())

	require.NoError(t, sess.SetWeight(ctx, 42))
	result, _, err = server.handleExportState(ctx, nil, EmptyParams{})
	require.NoError(t, err)
	state := text(t, result, 0)

	require.NoError(t, sess.ResetState(ctx))
	assert.Equal(t, 10.0, sess.State().Patient.Weight())

	result, _, err = server.handleImportState(ctx, nil, ImportStateParams{State: state})
	require.NoError(t, err)
	require.False(t, result.IsError, text(t, result, 0))
	assert.Equal(t, 42.0, sess.State().Patient.Weight())
}

func findTube(cfg *domain.Config, id string) (domain.Tube, bool) {
	for _, t := range cfg.Tubes {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Tube{}, false
}

func TestResources(t *testing.T) {
	server, sess := newTestServer(t)
	ctx := context.Background()

	assert.Equal(t, []string{StateResourceURI, ConfigResourceURI, ViewResourceURI}, server.ResourceURIs())
	require.NoError(t, sess.SetWeight(ctx, 12))

	stateText, err := server.readResource(ctx, StateResourceURI)
	require.NoError(t, err)
	var st domain.State
	require.NoError(t, json.Unmarshal([]byte(stateText), &st))
	assert.Equal(t, 12.0, st.Patient.Weight())

	configText, err := server.readResource(ctx, ConfigResourceURI)
	require.NoError(t, err)
	assert.Contains(t, configText, `"tubes"`)

	viewText, err := server.readResource(ctx, ViewResourceURI)
	require.NoError(t, err)
	var vm view.ViewModel
	require.NoError(t, json.Unmarshal([]byte(viewText), &vm))
	assert.Len(t, vm.Days, 1)

	_, err = server.readResource(ctx, "phleb://session/unknown")
	assert.Error(t, err)
}
