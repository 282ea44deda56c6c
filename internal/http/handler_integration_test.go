//go:build integration

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/packing-service/internal/circuitbreaker"
	"github.com/guttosm/packing-service/internal/domain/dto"
	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/packer"
	"github.com/guttosm/packing-service/internal/repository"
	"github.com/guttosm/packing-service/internal/service"
	"github.com/guttosm/packing-service/internal/testutil"
)

type mongoStack struct {
	router    *gin.Engine
	db        *repository.MongoDB
	recorder  *service.AsyncDecisionRecorder
	apiCalls  *atomic.Int32
	stopRoute func()
}

func (s *mongoStack) close(ctx context.Context) {
	s.stopRoute()
	s.recorder.Stop()
	_ = s.db.Close(ctx)
}

func setupMongoStack(t *testing.T, packerBody string) *mongoStack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := repository.NewMongoDB(testutil.MongoURI(), testutil.DatabaseName(t))
	require.NoError(t, err)

	catalog := repository.NewPackagingRepositoryWithCircuitBreaker(
		repository.NewPackagingRepository(db),
		circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 5, SuccessThreshold: 1, Timeout: time.Second, Name: "it-catalog"}),
	)
	_, err = repository.SeedPackaging(ctx, catalog, repository.DefaultPackagings)
	require.NoError(t, err)

	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(packerBody))
	}))
	t.Cleanup(server.Close)

	decisionRepo := repository.NewDecisionLogRepository(db)
	recorder := service.NewAsyncDecisionRecorder(decisionRepo, service.DecisionRecorderConfig{
		BufferSize:   16,
		NumWorkers:   1,
		BatchSize:    1,
		WriteTimeout: 5 * time.Second,
	})

	svc := service.NewPackingService(
		catalog,
		service.NewPackingCache(repository.NewPackingCacheRepository(db)),
		packer.NewClient(packer.Config{BaseURL: server.URL, Timeout: 2 * time.Second}),
		service.WithDecisionRecorder(recorder),
	)

	health := NewHealthHandler()
	health.RegisterChecker("mongodb", db)

	router, stop := NewRouter(NewHandler(svc, service.NewDecisionLogService(decisionRepo)), health, DefaultRouterConfig())
	return &mongoStack{router: router, db: db, recorder: recorder, apiCalls: calls, stopRoute: stop}
}

func TestHandler_PackProducts_WithMongoDB_Integration(t *testing.T) {
	ctx := context.Background()
	stack := setupMongoStack(t, `{"response":{"status":1,"errors":[],"bins_packed":[{"bin_data":{"id":"5"}}],"not_packed_items":[]}}`)
	defer stack.close(ctx)

	body := []byte(`{"products":[{"width":8,"height":8,"length":8,"weight":10}]}`)
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/pack", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		stack.router.ServeHTTP(w, req)
		return w
	}

	t.Run("first call asks the packer API", func(t *testing.T) {
		w := send()
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data dto.BoxResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(5), resp.Data.ID)
		assert.Equal(t, int32(1), stack.apiCalls.Load())
	})

	t.Run("second call is served from the cache", func(t *testing.T) {
		w := send()
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int32(1), stack.apiCalls.Load())
	})

	t.Run("decisions are queryable", func(t *testing.T) {
		hash := service.RequestHash([]model.Product{{Width: 8, Height: 8, Length: 8, Weight: 10}})

		assert.Eventually(t, func() bool {
			req := httptest.NewRequest(http.MethodGet, "/api/decisions?request_hash="+hash, nil)
			w := httptest.NewRecorder()
			stack.router.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				return false
			}
			var resp struct {
				Data dto.DecisionListResponse `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				return false
			}
			return resp.Data.Total == 2
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("readiness reports the store", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		w := httptest.NewRecorder()
		stack.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"mongodb":"ok"`)
	})
}

func TestHandler_PackProducts_LocalFallback_WithMongoDB_Integration(t *testing.T) {
	ctx := context.Background()
	stack := setupMongoStack(t, `{"response":{"status":-1,"errors":[{"level":"critical","message":"quota"}]}}`)
	defer stack.close(ctx)

	req := httptest.NewRequest(http.MethodPost, "/api/pack",
		bytes.NewBufferString(`{"products":[{"width":3,"height":3,"length":3,"weight":1}]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	stack.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data dto.BoxResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.ID)

	cached, err := repository.NewPackingCacheRepository(stack.db).Get(ctx,
		service.RequestHash([]model.Product{{Width: 3, Height: 3, Length: 3, Weight: 1}}))
	require.NoError(t, err)
	assert.Nil(t, cached, "local decisions are not cached")
}
