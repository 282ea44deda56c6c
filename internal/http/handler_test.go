package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/guttosm/packing-service/internal/domain/dto"
	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/mocks"
	"github.com/guttosm/packing-service/internal/packer"
	"github.com/guttosm/packing-service/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var box2 = model.Packaging{ID: 2, Width: 4, Height: 4, Length: 4, MaxWeight: 20}

func setupRouterWithMocks(t *testing.T) (*gin.Engine, *mocks.MockPackingService, *mocks.MockDecisionLogService) {
	t.Helper()
	packing := new(mocks.MockPackingService)
	decisions := new(mocks.MockDecisionLogService)
	router, stop := NewRouter(NewHandler(packing, decisions), NewHealthHandler(), DefaultRouterConfig())
	t.Cleanup(stop)
	return router, packing, decisions
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPackProducts(t *testing.T) {
	validBody := `{"products":[{"id":"p1","width":3,"height":3,"length":3,"weight":1}]}`

	tests := []struct {
		name           string
		body           string
		setupMock      func(*mocks.MockPackingService)
		expectedStatus int
		expectedCode   string
		checkResponse  func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name: "returns the chosen box",
			body: validBody,
			setupMock: func(m *mocks.MockPackingService) {
				m.On("GetOptimalBox", mock.Anything, []model.Product{{Width: 3, Height: 3, Length: 3, Weight: 1}}).
					Return(&box2, nil)
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp struct {
					Data      dto.BoxResponse `json:"data"`
					RequestID string          `json:"request_id"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, dto.NewBoxResponse(box2), resp.Data)
				assert.NotEmpty(t, resp.RequestID)
			},
		},
		{
			name:           "malformed JSON",
			body:           `{"products": [`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrCodeInvalidRequest,
		},
		{
			name:           "empty product list",
			body:           `{"products":[]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrCodeInvalidRequest,
			checkResponse: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Details)
			},
		},
		{
			name:           "negative weight",
			body:           `{"products":[{"width":3,"height":3,"length":3,"weight":-2}]}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrCodeInvalidRequest,
		},
		{
			name: "no box fits",
			body: validBody,
			setupMock: func(m *mocks.MockPackingService) {
				m.On("GetOptimalBox", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: %w", service.ErrNoAppropriatePackagingFound, packer.ErrNoAppropriatePackaging))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   dto.ErrCodeUnprocessable,
		},
		{
			name: "empty catalog",
			body: validBody,
			setupMock: func(m *mocks.MockPackingService) {
				m.On("GetOptimalBox", mock.Anything, mock.Anything).Return(nil, service.ErrNoPackagingInDatabase)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   dto.ErrCodeUnprocessable,
		},
		{
			name: "catalog unavailable",
			body: validBody,
			setupMock: func(m *mocks.MockPackingService) {
				m.On("GetOptimalBox", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("failed to load packaging catalog: %w", errors.New("connection reset")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrCodeInternal,
		},
		{
			name: "deadline exceeded",
			body: validBody,
			setupMock: func(m *mocks.MockPackingService) {
				m.On("GetOptimalBox", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)
			},
			expectedStatus: http.StatusGatewayTimeout,
			expectedCode:   dto.ErrCodeTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, packing, _ := setupRouterWithMocks(t)
			if tt.setupMock != nil {
				tt.setupMock(packing)
			}

			w := postJSON(router, "/api/pack", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var resp dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedCode, resp.Error)
				assert.NotEmpty(t, resp.Message)
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, w)
			}
			if tt.setupMock == nil {
				packing.AssertNumberOfCalls(t, "GetOptimalBox", 0)
			}
			packing.AssertExpectations(t)
		})
	}
}

func TestPackProducts_PassesRequestContext(t *testing.T) {
	router, packing, _ := setupRouterWithMocks(t)

	packing.On("GetOptimalBox", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(&box2, nil)

	w := postJSON(router, "/api/pack", `{"products":[{"width":1,"height":1,"length":1,"weight":1}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	packing.AssertExpectations(t)
}

func TestListPackaging(t *testing.T) {
	tests := []struct {
		name           string
		packagings     []model.Packaging
		err            error
		expectedStatus int
		expectedLen    int
	}{
		{
			name:           "lists the catalog",
			packagings:     []model.Packaging{{ID: 1, Width: 2.5, Height: 3, Length: 1, MaxWeight: 20}, box2},
			expectedStatus: http.StatusOK,
			expectedLen:    2,
		},
		{
			name:           "empty catalog is an empty list",
			packagings:     []model.Packaging{},
			expectedStatus: http.StatusOK,
			expectedLen:    0,
		},
		{
			name:           "store failure",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, packing, _ := setupRouterWithMocks(t)
			if tt.err != nil {
				packing.On("ListPackaging", mock.Anything).Return(nil, tt.err)
			} else {
				packing.On("ListPackaging", mock.Anything).Return(tt.packagings, nil)
			}

			w := get(router, "/api/packaging")

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var resp struct {
					Data []dto.BoxResponse `json:"data"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Len(t, resp.Data, tt.expectedLen)
			}
		})
	}
}

func TestListDecisions(t *testing.T) {
	from := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name           string
		query          string
		setupMock      func(*mocks.MockDecisionLogService)
		expectedStatus int
		check          func(*testing.T, dto.DecisionListResponse)
	}{
		{
			name:  "defaults",
			query: "",
			setupMock: func(m *mocks.MockDecisionLogService) {
				opts := model.DecisionQueryOptions{Limit: 50}
				m.On("QueryDecisions", mock.Anything, opts).Return(nil, nil)
				m.On("CountDecisions", mock.Anything, opts).Return(int64(0), nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, resp dto.DecisionListResponse) {
				assert.NotNil(t, resp.Decisions)
				assert.Empty(t, resp.Decisions)
				assert.Equal(t, 50, resp.Limit)
			},
		},
		{
			name:  "filters are forwarded",
			query: "?request_hash=abc&source=api&limit=10&skip=5&from=" + from.Format(time.RFC3339),
			setupMock: func(m *mocks.MockDecisionLogService) {
				match := mock.MatchedBy(func(opts model.DecisionQueryOptions) bool {
					return opts.RequestHash == "abc" && opts.Source == "api" &&
						opts.Limit == 10 && opts.Skip == 5 &&
						opts.StartTime != nil && opts.StartTime.Equal(from) && opts.EndTime == nil
				})
				m.On("QueryDecisions", mock.Anything, match).
					Return([]*model.DecisionRecord{{RequestHash: "abc", Source: model.SourceAPI, PackagingID: 2}}, nil)
				m.On("CountDecisions", mock.Anything, match).Return(int64(11), nil)
			},
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, resp dto.DecisionListResponse) {
				require.Len(t, resp.Decisions, 1)
				assert.Equal(t, int64(2), resp.Decisions[0].PackagingID)
				assert.Equal(t, int64(11), resp.Total)
				assert.Equal(t, 10, resp.Limit)
				assert.Equal(t, 5, resp.Skip)
			},
		},
		{
			name:           "bad limit",
			query:          "?limit=ten",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad time",
			query:          "?to=yesterday",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "store failure",
			query: "",
			setupMock: func(m *mocks.MockDecisionLogService) {
				m.On("QueryDecisions", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:  "count failure",
			query: "",
			setupMock: func(m *mocks.MockDecisionLogService) {
				m.On("QueryDecisions", mock.Anything, mock.Anything).Return([]*model.DecisionRecord{}, nil)
				m.On("CountDecisions", mock.Anything, mock.Anything).Return(int64(0), service.ErrRepositoryNotConfigured)
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, decisions := setupRouterWithMocks(t)
			if tt.setupMock != nil {
				tt.setupMock(decisions)
			}

			w := get(router, "/api/decisions"+tt.query)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.check != nil {
				var resp struct {
					Data dto.DecisionListResponse `json:"data"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				tt.check(t, resp.Data)
			}
			decisions.AssertExpectations(t)
		})
	}
}

// Without a decision log the router leaves /api/decisions unregistered; a
// handler mounted elsewhere still answers 503 instead of dereferencing nil.
func TestListDecisions_DisabledLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(new(mocks.MockPackingService), nil)

	t.Run("handler called directly", func(t *testing.T) {
		c, w := newTestContext(t, http.MethodGet, "/api/decisions")

		handler.ListDecisions(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeUnavailable, resp.Error)
	})

	t.Run("route not registered", func(t *testing.T) {
		router, stop := NewRouter(handler, NewHealthHandler(), DefaultRouterConfig())
		t.Cleanup(stop)

		assert.Equal(t, http.StatusNotFound, get(router, "/api/decisions").Code)
	})
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
	}{
		{service.ErrInvalidParameter, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", service.ErrNoAppropriatePackagingFound, packer.ErrNoAppropriatePackaging), http.StatusUnprocessableEntity},
		{service.ErrNoPackagingInDatabase, http.StatusUnprocessableEntity},
		{service.ErrRepositoryNotConfigured, http.StatusServiceUnavailable},
		{fmt.Errorf("packer call: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			status, key := errorStatus(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotEmpty(t, key)
		})
	}
}

func BenchmarkPackProducts(b *testing.B) {
	gin.SetMode(gin.TestMode)
	packing := new(mocks.MockPackingService)
	packing.On("GetOptimalBox", mock.Anything, mock.Anything).Return(&box2, nil)
	router, stop := NewRouter(NewHandler(packing, nil), NewHealthHandler(), RouterConfig{})
	defer stop()

	body := []byte(`{"products":[{"width":3,"height":3,"length":3,"weight":1},{"width":1,"height":2,"length":3,"weight":2}]}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/pack", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
}
