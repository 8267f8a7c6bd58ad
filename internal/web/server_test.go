package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stagewatch/internal/app/dashboard"
	"github.com/slok/stagewatch/internal/app/inject"
	"github.com/slok/stagewatch/internal/app/refresh"
	"github.com/slok/stagewatch/internal/app/shutdown"
	"github.com/slok/stagewatch/internal/backend/fake"
	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/storage/memory"
	"github.com/slok/stagewatch/internal/uistate"
	"github.com/slok/stagewatch/internal/view"
	"github.com/slok/stagewatch/internal/web"
)

type testEnv struct {
	server  *web.Server
	backend *fake.Backend
	ui      *uistate.State
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	require := require.New(t)
	ctx := context.Background()

	status := model.NewStatusSnapshot()
	status.Set("A", model.NodeStatus{State: model.NodeStateRunning, Mode: "serial", TasksProcessed: 8, TasksPending: 2})
	status.Set("B", model.NodeStatus{State: model.NodeStateStopped, Mode: "thread", TasksFailed: 1})
	fb, err := fake.NewBackend(fake.BackendConfig{
		Structure: &model.StageNode{Name: "root", Mode: "serial", Next: []model.StageNode{{Name: "leaf", Mode: "thread"}}},
		Status:    status,
		Errors:    []model.ErrorRecord{{Error: "boom", Node: "A", TaskID: "t1", Timestamp: 10}},
	})
	require.NoError(err)

	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(err)
	ui, err := uistate.Load(ctx, uistate.Config{Repository: repo})
	require.NoError(err)

	refreshSvc, err := refresh.NewService(refresh.ServiceConfig{Backend: fb})
	require.NoError(err)
	refreshSvc.Tick(ctx)

	dashboardSvc, err := dashboard.NewService(dashboard.ServiceConfig{Refresh: refreshSvc, UIState: ui})
	require.NoError(err)
	shutdownSvc, err := shutdown.NewService(shutdown.ServiceConfig{Backend: fb})
	require.NoError(err)
	injectSvc, err := inject.NewService(inject.ServiceConfig{Backend: fb})
	require.NoError(err)

	srv, err := web.NewServer(web.ServerConfig{
		Refresh:   refreshSvc,
		Dashboard: dashboardSvc,
		UIState:   ui,
		Shutdown:  shutdownSvc,
		Inject:    injectSvc,
	})
	require.NoError(err)

	return testEnv{server: srv, backend: fb, ui: ui}
}

func TestNewServer(t *testing.T) {
	tests := map[string]struct {
		config func(cfg web.ServerConfig) web.ServerConfig
		expErr bool
	}{
		"valid config should create the server": {
			config: func(cfg web.ServerConfig) web.ServerConfig { return cfg },
		},
		"missing refresh service should fail": {
			config: func(cfg web.ServerConfig) web.ServerConfig { cfg.Refresh = nil; return cfg },
			expErr: true,
		},
		"missing dashboard service should fail": {
			config: func(cfg web.ServerConfig) web.ServerConfig { cfg.Dashboard = nil; return cfg },
			expErr: true,
		},
		"missing UI state should fail": {
			config: func(cfg web.ServerConfig) web.ServerConfig { cfg.UIState = nil; return cfg },
			expErr: true,
		},
		"missing shutdown service should fail": {
			config: func(cfg web.ServerConfig) web.ServerConfig { cfg.Shutdown = nil; return cfg },
			expErr: true,
		},
		"missing inject service should fail": {
			config: func(cfg web.ServerConfig) web.ServerConfig { cfg.Inject = nil; return cfg },
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			fb, err := fake.NewBackend(fake.BackendConfig{})
			require.NoError(t, err)
			repo, err := memory.NewRepository(memory.RepositoryConfig{})
			require.NoError(t, err)
			ui, err := uistate.Load(ctx, uistate.Config{Repository: repo})
			require.NoError(t, err)
			refreshSvc, err := refresh.NewService(refresh.ServiceConfig{Backend: fb})
			require.NoError(t, err)
			dashboardSvc, err := dashboard.NewService(dashboard.ServiceConfig{Refresh: refreshSvc, UIState: ui})
			require.NoError(t, err)
			shutdownSvc, err := shutdown.NewService(shutdown.ServiceConfig{Backend: fb})
			require.NoError(t, err)
			injectSvc, err := inject.NewService(inject.ServiceConfig{Backend: fb})
			require.NoError(t, err)

			cfg := test.config(web.ServerConfig{
				Refresh:   refreshSvc,
				Dashboard: dashboardSvc,
				UIState:   ui,
				Shutdown:  shutdownSvc,
				Inject:    injectSvc,
			})
			_, err = web.NewServer(cfg)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func doRequest(t *testing.T, h http.Handler, method, path string, form url.Values, accept string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer(t *testing.T) {
	tests := map[string]struct {
		prepare func(t *testing.T, env testEnv)
		method  string
		path    string
		form    url.Values
		accept  string
		expCode int
		check   func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder)
	}{
		"the page should render the whole dashboard": {
			method:  http.MethodGet,
			path:    "/",
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				body := rec.Body.String()
				assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
				assert.Contains(t, body, `class="theme-light"`)
				assert.Contains(t, body, `id="card-A"`)
				assert.Contains(t, body, `id="card-B"`)
				assert.Contains(t, body, "boom")
				assert.Contains(t, body, "root")
				assert.Contains(t, body, view.GlyphExpanded)
				assert.NotContains(t, body, `class="children" hidden`)
			},
		},

		"a collapsed node should render its descendants hidden": {
			prepare: func(t *testing.T, env testEnv) {
				env.ui.Collapse.Toggle(context.Background(), "/root")
			},
			method:  http.MethodGet,
			path:    "/",
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				body := rec.Body.String()
				assert.Contains(t, body, view.GlyphCollapsed)
				assert.Contains(t, body, `class="children" hidden`)
			},
		},

		"the dashboard API should return the view model with the request options": {
			method:  http.MethodGet,
			path:    "/api/dashboard?node=B&dragging=A",
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				var d view.Dashboard
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
				require.Len(t, d.Cards, 1)
				assert.Equal(t, "B", d.Cards[0].Name)
				assert.Equal(t, "B", d.NodeFilter)
				require.Len(t, d.Errors, 1)
				assert.True(t, d.Errors[0].Placeholder)
				assert.Equal(t, "light", d.Theme)
				assert.Equal(t, int64(5000), d.RefreshIntervalMS)
			},
		},

		"collapsing a node should persist it": {
			method:  http.MethodPost,
			path:    "/api/collapse",
			form:    url.Values{"id": {"/root"}},
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"id":"/root","collapsed":true}`, rec.Body.String())
				assert.True(t, env.ui.Collapse.IsCollapsed("/root"))
			},
		},

		"collapsing without node id should fail": {
			method:  http.MethodPost,
			path:    "/api/collapse",
			form:    url.Values{},
			expCode: http.StatusBadRequest,
		},

		"setting the order with a list should persist it": {
			method:  http.MethodPost,
			path:    "/api/order",
			form:    url.Values{"order[]": {"B", "A"}},
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.Equal(t, []string{"B", "A"}, env.ui.Order.Names())
			},
		},

		"setting the order with a comma separated value should persist it": {
			method:  http.MethodPost,
			path:    "/api/order",
			form:    url.Values{"order": {"B, A"}},
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.Equal(t, []string{"B", "A"}, env.ui.Order.Names())
			},
		},

		"hiding a series should persist it": {
			method:  http.MethodPost,
			path:    "/api/hidden",
			form:    url.Values{"node": {"A"}},
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.True(t, env.ui.Hidden.IsHidden("A"))
			},
		},

		"a valid theme should be persisted": {
			method:  http.MethodPost,
			path:    "/api/theme",
			form:    url.Values{"theme": {"dark"}},
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.Equal(t, uistate.ThemeDark, env.ui.Theme.Get())
			},
		},

		"an unknown theme should fail": {
			method:  http.MethodPost,
			path:    "/api/theme",
			form:    url.Values{"theme": {"pink"}},
			expCode: http.StatusBadRequest,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.Equal(t, uistate.ThemeLight, env.ui.Theme.Get())
			},
		},

		"an allowed interval should be accepted": {
			method:  http.MethodPost,
			path:    "/api/interval",
			form:    url.Values{"interval": {"10000"}},
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"interval":10000}`, rec.Body.String())
			},
		},

		"a not allowed interval should fail": {
			method:  http.MethodPost,
			path:    "/api/interval",
			form:    url.Values{"interval": {"3000"}},
			expCode: http.StatusBadRequest,
		},

		"a non numeric interval should fail": {
			method:  http.MethodPost,
			path:    "/api/interval",
			form:    url.Values{"interval": {"fast"}},
			expCode: http.StatusBadRequest,
		},

		"a manual refresh should return the refreshed dashboard": {
			prepare: func(t *testing.T, env testEnv) {
				st := model.NewStatusSnapshot()
				st.Set("C", model.NodeStatus{})
				env.backend.SetStatus(st)
			},
			method:  http.MethodPost,
			path:    "/api/refresh",
			form:    url.Values{},
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				var d view.Dashboard
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
				require.Len(t, d.Cards, 1)
				assert.Equal(t, "C", d.Cards[0].Name)
			},
		},

		"a shutdown without confirmation should be rejected": {
			method:  http.MethodPost,
			path:    "/api/shutdown",
			form:    url.Values{},
			expCode: http.StatusBadRequest,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.Equal(t, 0, env.backend.Shutdowns())
			},
		},

		"a confirmed shutdown should return the backend message": {
			method:  http.MethodPost,
			path:    "/api/shutdown",
			form:    url.Values{"confirm": {"yes"}},
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"message":"Server shutting down..."}`, rec.Body.String())
				assert.Equal(t, 1, env.backend.Shutdowns())
			},
		},

		"injecting a JSON object should reach the backend": {
			method:  http.MethodPost,
			path:    "/api/inject",
			form:    url.Values{"node": {"A"}, "data": {`{"x": 1}`}},
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				injs := env.backend.Injections()
				require.Len(t, injs, 1)
				assert.Equal(t, "A", injs[0].Node)
				assert.Equal(t, map[string]any{"x": float64(1)}, injs[0].TaskDatas)
			},
		},

		"injecting a non object should fail": {
			method:  http.MethodPost,
			path:    "/api/inject",
			form:    url.Values{"node": {"A"}, "data": {`[1, 2]`}},
			expCode: http.StatusBadRequest,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.Empty(t, env.backend.Injections())
			},
		},

		"injecting into an unknown node should fail": {
			method:  http.MethodPost,
			path:    "/api/inject",
			form:    url.Values{"node": {"Z"}, "data": {`{"x": 1}`}},
			expCode: http.StatusNotFound,
		},

		"browser form submissions should redirect to the page": {
			method:  http.MethodPost,
			path:    "/api/theme",
			form:    url.Values{"theme": {"dark"}},
			accept:  "text/html,application/xhtml+xml",
			expCode: http.StatusSeeOther,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.Equal(t, "/", rec.Header().Get("Location"))
			},
		},

		"the UI state should be exposed": {
			prepare: func(t *testing.T, env testEnv) {
				env.ui.Hidden.Toggle(context.Background(), "B")
			},
			method:  http.MethodGet,
			path:    "/api/state",
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				var st view.UIState
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
				assert.Equal(t, []string{"B"}, st.Hidden)
				assert.Equal(t, "light", st.Theme)
			},
		},

		"metrics should be exposed": {
			method:  http.MethodGet,
			path:    "/metrics",
			expCode: http.StatusOK,
			check: func(t *testing.T, env testEnv, rec *httptest.ResponseRecorder) {
				assert.Contains(t, rec.Body.String(), "stagewatch_refresh_interval_seconds")
			},
		},

		"wrong methods should not be allowed": {
			method:  http.MethodGet,
			path:    "/api/collapse",
			expCode: http.StatusMethodNotAllowed,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			if test.prepare != nil {
				test.prepare(t, env)
			}

			rec := doRequest(t, env.server.Handler(), test.method, test.path, test.form, test.accept)

			assert.Equal(t, test.expCode, rec.Code, rec.Body.String())
			if test.check != nil {
				test.check(t, env, rec)
			}
		})
	}
}
