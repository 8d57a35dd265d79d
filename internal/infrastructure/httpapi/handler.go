// Package httpapi exposes the ingestion core over a small JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"NewsFetcher/internal/domain"
	"NewsFetcher/internal/usecase"
)

// Runner triggers one orchestrator run.
type Runner interface {
	Run(ctx context.Context, trigger string) (usecase.RunReport, error)
}

// Recoverer runs a recovery sweep on its own.
type Recoverer interface {
	Sweep(ctx context.Context) (usecase.SweepReport, error)
}

// HealthReporter summarises source health.
type HealthReporter interface {
	Report(ctx context.Context) (domain.HealthReport, error)
}

// Diagnoser answers ad-hoc source checks.
type Diagnoser interface {
	TestSourceByID(ctx context.Context, id int64) (domain.SourceTest, error)
	TestEnabled(ctx context.Context) (domain.TestSummary, error)
	ValidateFeedURL(ctx context.Context, rawURL string) domain.FeedValidation
}

// HandlerDeps wires the use cases behind the routes.
type HandlerDeps struct {
	Runner      Runner
	Recoverer   Recoverer
	Health      HealthReporter
	Diagnostics Diagnoser
	Version     string
}

// Handler serves the API routes.
type Handler struct {
	runner      Runner
	recoverer   Recoverer
	health      HealthReporter
	diagnostics Diagnoser
	version     string
}

type validateRequest struct {
	URL string `json:"url" binding:"required"`
}

// NewHandler creates the API handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		runner:      deps.Runner,
		recoverer:   deps.Recoverer,
		health:      deps.Health,
		diagnostics: deps.Diagnostics,
		version:     deps.Version,
	}
}

// Register mounts every route on router.
func (h *Handler) Register(router *gin.Engine) {
	router.GET("/healthz", h.Liveness)

	api := router.Group("/api")
	api.GET("/health", h.HealthReport)
	api.POST("/fetch", h.Fetch)
	api.POST("/recover", h.Recover)
	api.POST("/sources/test", h.TestAll)
	api.POST("/sources/:id/test", h.TestSource)
	api.POST("/validate", h.Validate)
}

// Liveness handles GET /healthz.
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

// HealthReport handles GET /api/health.
func (h *Handler) HealthReport(c *gin.Context) {
	report, err := h.health.Report(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Fetch handles POST /api/fetch. The run finishes even if the client goes away.
func (h *Handler) Fetch(c *gin.Context) {
	report, err := h.runner.Run(context.WithoutCancel(c.Request.Context()), "api")
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Recover handles POST /api/recover.
func (h *Handler) Recover(c *gin.Context) {
	report, err := h.recoverer.Sweep(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// TestSource handles POST /api/sources/:id/test.
func (h *Handler) TestSource(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "source id must be a positive integer"})
		return
	}

	result, err := h.diagnostics.TestSourceByID(c.Request.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err)
	case err != nil:
		abortWithError(c, http.StatusInternalServerError, err)
	default:
		c.JSON(http.StatusOK, result)
	}
}

// TestAll handles POST /api/sources/test.
func (h *Handler) TestAll(c *gin.Context) {
	summary, err := h.diagnostics.TestEnabled(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Validate handles POST /api/validate.
func (h *Handler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"url\": \"...\"}"})
		return
	}

	result := h.diagnostics.ValidateFeedURL(c.Request.Context(), strings.TrimSpace(req.URL))
	status := http.StatusOK
	if !result.IsValid {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

func abortWithError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
