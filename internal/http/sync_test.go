package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readscout/readscout/internal/cloud"
	"github.com/readscout/readscout/internal/database/settings"
)

type testProvider struct {
	uid string
}

func (p *testProvider) CurrentUserID() string { return p.uid }
func (p *testProvider) IsSignedIn() bool      { return p.uid != "" }

type testRemoteStore struct {
	mu      sync.Mutex
	records []cloud.FavoriteRecord
}

func (s *testRemoteStore) Upsert(_ context.Context, _ string, record cloud.FavoriteRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *testRemoteStore) List(_ context.Context, _ string) ([]cloud.FavoriteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]cloud.FavoriteRecord(nil), s.records...), nil
}

func (s *testRemoteStore) Delete(_ context.Context, _, bookID string) error {
	return nil
}

func (s *testRemoteStore) Watch(_ context.Context, _ string) (<-chan cloud.WatchEvent, error) {
	return make(chan cloud.WatchEvent), nil
}

type recordingScheduler struct {
	enqueued int
}

func (r *recordingScheduler) EnqueueReconcile() { r.enqueued++ }

func syncRouter(env *testEnv, provider *testProvider, store *testRemoteStore, scheduler SyncScheduler) *gin.Engine {
	bridge := cloud.NewBridge(provider, store)
	controller := NewSyncController(bridge, env.ledger, settings.NewRepository(env.db.DB), scheduler)
	router := gin.New()
	router.POST("/api/sync/push", controller.Push)
	router.GET("/api/sync/pull", controller.Pull)
	router.POST("/api/sync/restore", controller.Restore)
	router.GET("/api/sync/status", controller.Status)
	return router
}

func TestSyncController_Push(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	scheduler := &recordingScheduler{}
	router := syncRouter(env, &testProvider{uid: "user-1"}, &testRemoteStore{}, scheduler)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/sync/push", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 1, scheduler.enqueued)
}

func TestSyncController_Pull(t *testing.T) {
	t.Run("requires a signed-in user", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		router := syncRouter(env, &testProvider{}, &testRemoteStore{}, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/sync/pull", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("returns the remote set", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		store := &testRemoteStore{records: []cloud.FavoriteRecord{
			{BookID: "dune", Title: "Dune", ReadingStatus: "READING"},
		}}
		router := syncRouter(env, &testProvider{uid: "user-1"}, store, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/sync/pull", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var got struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 1, got.Count)
	})
}

func TestSyncController_Restore(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	store := &testRemoteStore{records: []cloud.FavoriteRecord{
		{
			BookID:         "dune",
			Title:          "Dune",
			Author:         "Frank Herbert",
			ReadingStatus:  "READING",
			CurrentPage:    120,
			TotalPages:     412,
			AddedTimestamp: time.Now().Add(-24 * time.Hour).UnixMilli(),
			LastUpdated:    time.Now().UnixMilli(),
		},
	}}
	router := syncRouter(env, &testProvider{uid: "user-1"}, store, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/sync/restore", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	entry, err := env.ledger.GetFavorite("dune")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 120, entry.CurrentPage)

	cached, err := env.books.GetByID("dune")
	require.NoError(t, err)
	require.NotNil(t, cached, "restore recreates the cache row")
	assert.True(t, cached.IsFavorite)
}

func TestSyncController_Status(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	settingsRepo := settings.NewRepository(env.db.DB)
	require.NoError(t, settingsRepo.SetJobStatus("reaper", "success", "Purged 3 expired books"))

	router := syncRouter(env, &testProvider{uid: "user-1"}, &testRemoteStore{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/sync/status", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got map[string]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "success", got["reaper"]["last_status"])
	assert.NotEmpty(t, got["reaper"]["last_at"])
	assert.Empty(t, got["cloud_sync"]["last_status"])
}
