package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/packing-service/internal/domain/dto"
	"github.com/guttosm/packing-service/internal/domain/model"
	"github.com/guttosm/packing-service/internal/i18n"
	"github.com/guttosm/packing-service/internal/service"
)

// Handler provides HTTP handlers for the packing routes.
type Handler struct {
	packing   service.PackingService
	decisions service.DecisionLogService
}

// NewHandler creates a new Handler instance. decisions may be nil when the
// decision log is disabled.
func NewHandler(packing service.PackingService, decisions service.DecisionLogService) *Handler {
	return &Handler{
		packing:   packing,
		decisions: decisions,
	}
}

// PackProducts handles POST /api/pack requests.
// It returns the smallest catalog box that holds every product.
func (h *Handler) PackProducts(c *gin.Context) {
	builder := NewResponseBuilder(c)

	req, err := BuildRequestAndValidate[dto.PackRequest](c)
	if err != nil {
		if details := validationDetails(err); details != nil {
			builder.ErrorWithDetails(http.StatusBadRequest, i18n.ErrKeyValidationProducts, err, details)
			return
		}
		builder.Error(http.StatusBadRequest, i18n.ErrKeyInvalidRequestBody, err)
		return
	}

	pkg, err := h.packing.GetOptimalBox(c.Request.Context(), req.ToProducts())
	if err != nil {
		status, key := errorStatus(err)
		builder.Error(status, key, err)
		return
	}

	builder.SuccessOK(dto.NewBoxResponse(*pkg))
}

// ListPackaging handles GET /api/packaging requests.
func (h *Handler) ListPackaging(c *gin.Context) {
	builder := NewResponseBuilder(c)

	packagings, err := h.packing.ListPackaging(c.Request.Context())
	if err != nil {
		status, key := errorStatus(err)
		builder.Error(status, key, err)
		return
	}

	builder.SuccessOK(dto.NewBoxListResponse(packagings))
}

// ListDecisions handles GET /api/decisions requests.
// Query parameters: request_hash, source, from, to (RFC 3339), limit, skip.
func (h *Handler) ListDecisions(c *gin.Context) {
	builder := NewResponseBuilder(c)

	if h.decisions == nil {
		builder.Error(http.StatusServiceUnavailable, i18n.ErrKeyServiceUnavailable, nil)
		return
	}

	opts, err := parseDecisionQuery(c)
	if err != nil {
		builder.Error(http.StatusBadRequest, i18n.ErrKeyInvalidRequest, err)
		return
	}
	opts = service.NormalizeDecisionQuery(opts)

	ctx := c.Request.Context()
	records, err := h.decisions.QueryDecisions(ctx, opts)
	if err != nil {
		status, key := errorStatus(err)
		builder.Error(status, key, err)
		return
	}
	total, err := h.decisions.CountDecisions(ctx, opts)
	if err != nil {
		status, key := errorStatus(err)
		builder.Error(status, key, err)
		return
	}

	if records == nil {
		records = []*model.DecisionRecord{}
	}
	builder.SuccessOK(dto.DecisionListResponse{
		Decisions: records,
		Total:     total,
		Limit:     opts.Limit,
		Skip:      opts.Skip,
	})
}

func parseDecisionQuery(c *gin.Context) (model.DecisionQueryOptions, error) {
	opts := model.DecisionQueryOptions{
		RequestHash: c.Query("request_hash"),
		Source:      c.Query("source"),
	}

	var err error
	if opts.Limit, err = queryInt(c, "limit"); err != nil {
		return opts, err
	}
	if opts.Skip, err = queryInt(c, "skip"); err != nil {
		return opts, err
	}
	if opts.StartTime, err = queryTime(c, "from"); err != nil {
		return opts, err
	}
	if opts.EndTime, err = queryTime(c, "to"); err != nil {
		return opts, err
	}
	return opts, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// errorStatus maps service errors to an HTTP status and a message key.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidParameter):
		return http.StatusBadRequest, i18n.ErrKeyInvalidRequest
	case errors.Is(err, service.ErrNoAppropriatePackagingFound):
		return http.StatusUnprocessableEntity, i18n.ErrKeyNoAppropriatePackaging
	case errors.Is(err, service.ErrNoPackagingInDatabase):
		return http.StatusUnprocessableEntity, i18n.ErrKeyNoPackagingAvailable
	case errors.Is(err, service.ErrRepositoryNotConfigured):
		return http.StatusServiceUnavailable, i18n.ErrKeyServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, i18n.ErrKeyTimeout
	default:
		return http.StatusInternalServerError, i18n.ErrKeyInternalError
	}
}
