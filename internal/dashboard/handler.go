package dashboard

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vidaplena/analytics/internal/catalog"
	"github.com/vidaplena/analytics/internal/generate"
	"github.com/vidaplena/analytics/internal/platform/telemetry"
)

// Report is the response envelope of every report endpoint.
type Report struct {
	ReportID    string              `json:"report_id"`
	ReportName  string              `json:"report_name"`
	GeneratedAt time.Time           `json:"generated_at"`
	Parameters  map[string][]string `json:"parameters,omitempty"`
	Data        any                 `json:"data"`
}

// DatasetStatus describes a dataset file on disk.
type DatasetStatus struct {
	Dataset    generate.Dataset `json:"dataset"`
	Path       string           `json:"path"`
	Generated  bool             `json:"generated"`
	SizeBytes  int64            `json:"size_bytes,omitempty"`
	ModifiedAt *time.Time       `json:"modified_at,omitempty"`
}

// Handler serves the reports and dataset management endpoints.
type Handler struct {
	store        *Store
	runner       *generate.Runner
	opts         generate.Options
	paths        generate.Paths
	lateStatuses []string
	metrics      *telemetry.Metrics

	mu      sync.Mutex
	running map[generate.Dataset]*sync.Mutex
}

// NewHandler returns a Handler. Regeneration uses opts; metrics may be nil.
func NewHandler(store *Store, runner *generate.Runner, opts generate.Options, cat catalog.Catalog, metrics *telemetry.Metrics) *Handler {
	return &Handler{
		store:        store,
		runner:       runner,
		opts:         opts,
		paths:        store.paths,
		lateStatuses: cat.Supply.LateStatuses(),
		metrics:      metrics,
		running:      make(map[generate.Dataset]*sync.Mutex),
	}
}

// RegisterRoutes registers the dashboard routes. guard is applied to the
// regeneration endpoint only.
func (h *Handler) RegisterRoutes(api *echo.Group, guard ...echo.MiddlewareFunc) {
	reports := api.Group("/reports")
	reports.GET("", h.ListReports)
	reports.GET("/overview", h.Overview)
	reports.GET("/financial", h.Financial)
	reports.GET("/supply-chain", h.SupplyChain)
	reports.GET("/people", h.People)

	datasets := api.Group("/datasets")
	datasets.GET("", h.ListDatasets)
	datasets.POST("/:name/generate", h.Generate, guard...)
}

// ListReports returns all report definitions.
func (h *Handler) ListReports(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedReports)
}

// Overview serves the clinical overview report.
func (h *Handler) Overview(c echo.Context) error {
	t, err := h.store.Clinical(c.Request().Context())
	if err != nil {
		return h.loadError(c, err)
	}
	return h.respond(c, "overview", nil, Overview(t))
}

// Financial serves the billing report for the insurers given as repeated
// insurer query parameters.
func (h *Handler) Financial(c echo.Context) error {
	t, err := h.store.Clinical(c.Request().Context())
	if err != nil {
		return h.loadError(c, err)
	}
	insurers := c.QueryParams()["insurer"]
	var params map[string][]string
	if len(insurers) > 0 {
		params = map[string][]string{"insurer": insurers}
	}
	return h.respond(c, "financial", params, Financial(t, insurers))
}

// SupplyChain serves the purchase-orders report.
func (h *Handler) SupplyChain(c echo.Context) error {
	t, err := h.store.Supply(c.Request().Context())
	if err != nil {
		return h.loadError(c, err)
	}
	return h.respond(c, "supply-chain", nil, SupplyChain(t, h.lateStatuses))
}

// People serves the HR report, optionally narrowed to one department.
func (h *Handler) People(c echo.Context) error {
	t, err := h.store.HR(c.Request().Context())
	if err != nil {
		return h.loadError(c, err)
	}
	dept := c.QueryParam("department")
	var params map[string][]string
	if dept != "" {
		params = map[string][]string{"department": {dept}}
	}
	return h.respond(c, "people", params, People(t, dept))
}

// ListDatasets reports which dataset files exist.
func (h *Handler) ListDatasets(c echo.Context) error {
	out := make([]DatasetStatus, 0, len(generate.Datasets))
	for _, d := range generate.Datasets {
		st, err := datasetStatus(d, h.paths.For(d))
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to stat dataset file")
		}
		out = append(out, st)
	}
	return c.JSON(http.StatusOK, out)
}

// Generate regenerates one dataset and drops its cached table. A dataset
// already being regenerated answers 409.
func (h *Handler) Generate(c echo.Context) error {
	d, err := generate.ParseDataset(c.Param("name"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	lock := h.lockFor(d)
	if !lock.TryLock() {
		return echo.NewHTTPError(http.StatusConflict, "dataset "+string(d)+" is already being generated")
	}
	defer lock.Unlock()

	ctx := c.Request().Context()
	res, err := h.runner.Run(ctx, d, h.opts)
	h.store.Invalidate(d)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("dataset", string(d)).Msg("regeneration failed")
		if errors.Is(err, context.Canceled) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "generation cancelled")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "generation failed: "+err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) lockFor(d generate.Dataset) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	l, ok := h.running[d]
	if !ok {
		l = &sync.Mutex{}
		h.running[d] = l
	}
	return l
}

func (h *Handler) respond(c echo.Context, id string, params map[string][]string, data any) error {
	def := FindReport(id)
	if h.metrics != nil {
		h.metrics.RecordReport(id)
	}
	return c.JSON(http.StatusOK, Report{
		ReportID:    def.ID,
		ReportName:  def.Name,
		GeneratedAt: time.Now().UTC(),
		Parameters:  params,
		Data:        data,
	})
}

func (h *Handler) loadError(c echo.Context, err error) error {
	var ng *NotGeneratedError
	if errors.As(err, &ng) {
		return echo.NewHTTPError(http.StatusNotFound, ng.Error())
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("dataset load failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "failed to load dataset")
}

func datasetStatus(d generate.Dataset, path string) (DatasetStatus, error) {
	st := DatasetStatus{Dataset: d, Path: path}
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	mod := fi.ModTime().UTC()
	st.Generated = true
	st.SizeBytes = fi.Size()
	st.ModifiedAt = &mod
	return st, nil
}
