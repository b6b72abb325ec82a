package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"property-maintenance-backend/config"
	"property-maintenance-backend/internal/auth"
	"property-maintenance-backend/internal/db"
	"property-maintenance-backend/internal/guestsync"
	"property-maintenance-backend/internal/lodgify"
	"property-maintenance-backend/internal/metrics"
	"property-maintenance-backend/internal/model"
	"property-maintenance-backend/internal/objectstore"
	"property-maintenance-backend/internal/repository"
	"property-maintenance-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router     *gin.Engine
	store      store.Store
	token      string
	uploadsDir string
}

type envOptions struct {
	lodgifyURL string
	lodgifyKey string
	cronSecret string
	apply      bool
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, envOptions{})
}

func newTestEnvWith(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	log := zap.NewNop()

	gormDB, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() { _ = db.Close(gormDB) })

	m := metrics.New("test")
	s := store.NewGormStore(gormDB, m)

	uploadsDir := t.TempDir()
	objects, err := objectstore.NewDisk(uploadsDir, "/uploads")
	require.NoError(t, err)

	lodgifyURL := opts.lodgifyURL
	if lodgifyURL == "" {
		lodgifyURL = "http://127.0.0.1:0"
	}
	bookings := lodgify.NewClient(config.LodgifyConfig{BaseURL: lodgifyURL, APIKey: opts.lodgifyKey, PageSize: 50, Timeout: 2 * time.Second}, log)

	authenticator, err := auth.New(config.AuthConfig{
		Mode:       "pin",
		SigningKey: "test-signing-key",
		SessionTTL: time.Hour,
		PINs:       []config.PINEntry{{PIN: "1234", UserID: "owner-1", DisplayName: "Aino"}},
	}, log)
	require.NoError(t, err)
	session, err := authenticator.Authenticate(context.Background(), auth.Credentials{PIN: "1234"})
	require.NoError(t, err)

	h := NewHandler(Deps{
		Auth:       authenticator,
		Properties: repository.NewProperties(s, bookings, 4, m, log),
		Tasks:      repository.NewTasks(s, objects, nil, log),
		Comments:   repository.NewComments(s, repository.StayDateEnricher(time.UTC), nil, log),
		Dashboard:  repository.NewDashboard(s, log),
		Sync:       guestsync.NewJob(s, bookings, opts.apply, m, log),
		Store:      s,
		Log:        log,
	})
	router := NewRouter(h, RouterOptions{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		CronSecret:      opts.cronSecret,
		Metrics:         m,
		UploadsDir:      uploadsDir,
		UploadsPrefix:   "/uploads",
	})

	return &testEnv{router: router, store: s, token: session.Token, uploadsDir: uploadsDir}
}

func (e *testEnv) request(t *testing.T, method, target string, body io.Reader, contentType, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// do sends an authenticated request.
func (e *testEnv) do(t *testing.T, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	return e.request(t, method, target, body, contentType, e.token)
}

func (e *testEnv) createProperty(t *testing.T, body string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/properties", bytes.NewBufferString(body), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Success  bool           `json:"success"`
		Property model.Property `json:"property"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	return resp.Property.ID
}

func taskForm(t *testing.T, data string, photos map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	require.NoError(t, mpw.WriteField("data", data))
	for name, content := range photos {
		part, err := mpw.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mpw.Close())
	return &buf, mpw.FormDataContentType()
}

type taskResponse struct {
	Success bool                  `json:"success"`
	Error   string                `json:"error"`
	Task    model.MaintenanceTask `json:"task"`
}

func TestRouter_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/api/properties", "/api/dashboard", "/api/tasks/x/comments"} {
		w := env.request(t, http.MethodGet, target, nil, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}

	w := env.request(t, http.MethodGet, "/healthz", nil, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.request(t, http.MethodGet, "/metrics", nil, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"pin":"0000"}`), "application/json", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.request(t, http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"pin":"1234"}`), "application/json", "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Success bool         `json:"success"`
		Session auth.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, "owner-1", login.Session.UserID)
	require.NotEmpty(t, login.Session.Token)
	assert.NotEmpty(t, w.Result().Cookies())

	w = env.request(t, http.MethodGet, "/api/auth/session", nil, "", login.Session.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"displayName":"Aino"`)

	w = env.request(t, http.MethodPost, "/api/auth/logout", nil, "", login.Session.Token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/properties", nil, "", login.Session.Token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPropertyEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/properties", bytes.NewBufferString(`{"address":"no name"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	id := env.createProperty(t, `{"name":"Lakeside Cabin","address":"Rantatie 1"}`)

	w = env.do(t, http.MethodGet, "/api/properties", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var properties []model.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &properties))
	require.Len(t, properties, 1)
	assert.Equal(t, "owner-1", properties[0].OwnerID)
	require.NotNil(t, properties[0].CurrentGuestCount)
	assert.Equal(t, 0, *properties[0].CurrentGuestCount)

	w = env.do(t, http.MethodGet, "/api/properties/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Lakeside Cabin"`)

	w = env.do(t, http.MethodGet, "/api/properties/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskEndpoints(t *testing.T) {
	env := newTestEnv(t)
	propertyID := env.createProperty(t, `{"name":"City Flat"}`)

	body, contentType := taskForm(t, `{"propertyId":"`+propertyID+`","title":"Broken window","deadline":"2024-08-15"}`, map[string]string{"window.jpg": "jpegdata"})
	w := env.do(t, http.MethodPost, "/api/tasks", body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Task.Photos, 1)
	assert.Equal(t, model.StatusOpen, created.Task.Status)

	onDisk, err := os.ReadFile(filepath.Join(env.uploadsDir, filepath.FromSlash(created.Task.Photos[0].Path)))
	require.NoError(t, err)
	assert.Equal(t, "jpegdata", string(onDisk))

	w = env.request(t, http.MethodGet, created.Task.Photos[0].URL, nil, "", "")
	assert.Equal(t, http.StatusOK, w.Code, "uploaded photos are served")

	body, contentType = taskForm(t, `{"id":"`+created.Task.ID+`","propertyId":"`+propertyID+`","title":"Broken window","status":"Completed"}`, map[string]string{"after.jpg": "fixed"})
	w = env.do(t, http.MethodPost, "/api/tasks", body, contentType)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Len(t, updated.Task.Photos, 2)
	assert.Equal(t, created.Task.Photos[0], updated.Task.Photos[0])
	assert.Equal(t, model.StatusCompleted, updated.Task.Status)

	body, contentType = taskForm(t, `{"id":"nope","propertyId":"`+propertyID+`","title":"x"}`, nil)
	w = env.do(t, http.MethodPost, "/api/tasks", body, contentType)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body, contentType = taskForm(t, `{"propertyId":"`+propertyID+`"}`, nil)
	w = env.do(t, http.MethodPost, "/api/tasks", body, contentType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = env.do(t, http.MethodGet, "/api/properties/"+propertyID+"/tasks", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []model.MaintenanceTask
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)

	w = env.do(t, http.MethodGet, "/api/properties/"+propertyID+"?include=tasks", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var withTasks model.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &withTasks))
	assert.Len(t, withTasks.Tasks, 1)

	w = env.do(t, http.MethodDelete, "/api/properties/"+propertyID+"/tasks/"+created.Task.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/properties/"+propertyID+"/tasks", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCommentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	task := &model.MaintenanceTask{PropertyID: "p1", Title: "Clean", Status: model.StatusOpen}
	require.NoError(t, env.store.CreateTask(context.Background(), task))

	w := env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/comments", bytes.NewBufferString(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/tasks/"+task.ID+"/comments", bytes.NewBufferString(`{"text":"check-in 2024-08-10 15:00"}`), "application/json")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var added struct {
		Success    bool              `json:"success"`
		NewComment model.TaskComment `json:"newComment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	assert.Equal(t, "owner-1", added.NewComment.UserID)
	assert.Equal(t, "Aino", added.NewComment.UserDisplayName)

	w = env.do(t, http.MethodGet, "/api/tasks/"+task.ID+"/comments", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var comments []model.TaskComment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, added.NewComment.ID, comments[0].ID)

	stored, err := env.store.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.CheckIn)
}

func TestDashboardEndpoint(t *testing.T) {
	env := newTestEnv(t)
	yesterday := time.Now().Add(-24 * time.Hour)
	for _, task := range []*model.MaintenanceTask{
		{PropertyID: "p1", Title: "a", Status: model.StatusOpen, Deadline: &yesterday},
		{PropertyID: "p1", Title: "b", Status: model.StatusCompleted, Deadline: &yesterday},
		{PropertyID: "p1", Title: "c", Status: model.StatusInProgress},
	} {
		require.NoError(t, env.store.CreateTask(context.Background(), task))
	}

	w := env.do(t, http.MethodGet, "/api/dashboard", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var data repository.DashboardData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &data))
	assert.Equal(t, 2, data.Stats.ActiveTasks)
	assert.Equal(t, 1, data.Stats.OverdueTasks)
	assert.Equal(t, int64(1), data.Stats.CompletedTasks)
	assert.Len(t, data.RecentTasks, 3)
}

func TestLodgifySyncEndpoint(t *testing.T) {
	t.Run("missing API key fails the pass", func(t *testing.T) {
		env := newTestEnv(t)
		w := env.request(t, http.MethodGet, "/api/cron/lodgify-sync", nil, "", "")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"lodgify API key not configured","status":"DRY_RUN_FAILED"}`, w.Body.String())
	})

	t.Run("applies changed counts behind the cron secret", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items":[{"guests":4,"property":{"id":77}}]}`))
		}))
		defer upstream.Close()

		env := newTestEnvWith(t, envOptions{lodgifyURL: upstream.URL, lodgifyKey: "key", cronSecret: "cron", apply: true})
		env.createProperty(t, `{"name":"Synced","lodgifyPropertyId":77}`)

		w := env.request(t, http.MethodGet, "/api/cron/lodgify-sync", nil, "", "")
		require.Equal(t, http.StatusUnauthorized, w.Code)

		w = env.request(t, http.MethodGet, "/api/cron/lodgify-sync", nil, "", "cron")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp struct {
			Success bool   `json:"success"`
			Status  string `json:"status"`
			Count   int    `json:"updated_properties_count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, guestsync.StatusApplied, resp.Status)
		assert.Equal(t, 1, resp.Count)

		w = env.do(t, http.MethodGet, "/api/properties", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"currentGuestCount":4`)
	})
}
