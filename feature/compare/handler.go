package compare

import (
	"encoding/json"
	"errors"
	"strings"

	"criteria-diff/core/logger"
	"criteria-diff/feature/compare/source"
	"criteria-diff/feature/compare/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// InlineRequest is the body of POST /compare.
type InlineRequest struct {
	A      json.RawMessage `json:"a"`
	B      json.RawMessage `json:"b"`
	Fields []string        `json:"fields"`
	Order  string          `json:"order"`
	LabelA string          `json:"label_a"`
	LabelB string          `json:"label_b"`
}

// StorageRequest is the body of POST /compare/storage.
type StorageRequest struct {
	AObject      string   `json:"a_object"`
	BObject      string   `json:"b_object"`
	Fields       []string `json:"fields"`
	Order        string   `json:"order"`
	LabelA       string   `json:"label_a"`
	LabelB       string   `json:"label_b"`
	Publish      bool     `json:"publish"`
	ReportObject string   `json:"report_object"`
}

// Handler handles HTTP requests for comparisons.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the compare routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/compare")
	group.Post("/", h.HandleCompareInline)
	group.Post("/storage", h.HandleCompareStorage)
	group.Get("/sources", h.HandleListSources)
	group.Get("/runs", h.HandleListRuns)
	group.Get("/runs/:id", h.HandleGetRun)
}

// HandleCompareInline compares two documents sent in the request body.
// @Summary Compare Inline Documents
// @Description Reconciles the documents "a" and "b" of the body and returns the report.
// @Tags compare
// @Accept json
// @Produce json
// @Param request body InlineRequest true "Documents and options"
// @Success 200 {object} reconcile.Report
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /compare [post]
func (h *Handler) HandleCompareInline(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req InlineRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if len(req.A) == 0 || len(req.B) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "both a and b documents are required"})
	}

	docA, err := source.Decode(req.A, source.FormatJSON)
	if err != nil {
		return badRequest(c, "invalid document a", err)
	}
	docB, err := source.Decode(req.B, source.FormatJSON)
	if err != nil {
		return badRequest(c, "invalid document b", err)
	}

	report, err := h.service.CompareDocuments(c.UserContext(), docA, docB, Params{
		Fields: req.Fields,
		Order:  req.Order,
		LabelA: req.LabelA,
		LabelB: req.LabelB,
	})
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(report)
}

// HandleCompareStorage compares two objects of the bucket.
// @Summary Compare Stored Documents
// @Description Loads "a_object" and "b_object" from storage, reconciles them and optionally publishes the report.
// @Tags compare
// @Accept json
// @Produce json
// @Param request body StorageRequest true "Object keys and options"
// @Success 200 {object} reconcile.Report
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /compare/storage [post]
func (h *Handler) HandleCompareStorage(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req StorageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body", err)
	}
	if req.AObject == "" || req.BObject == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "both a_object and b_object are required"})
	}

	refA, err := objectRef(req.AObject)
	if err != nil {
		return badRequest(c, "invalid a_object", err)
	}
	refB, err := objectRef(req.BObject)
	if err != nil {
		return badRequest(c, "invalid b_object", err)
	}

	l.Info("Comparing stored documents", zap.String("a", refA.String()), zap.String("b", refB.String()))

	report, err := h.service.Compare(c.UserContext(), Request{
		Params: Params{
			Fields: req.Fields,
			Order:  req.Order,
			LabelA: req.LabelA,
			LabelB: req.LabelB,
		},
		A:            refA,
		B:            refB,
		Publish:      req.Publish,
		ReportObject: req.ReportObject,
	})
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(report)
}

// HandleListSources lists the documents available in the bucket.
// @Summary List Source Documents
// @Description Lists the JSON and YAML objects under the configured prefix.
// @Tags compare
// @Produce json
// @Success 200 {object} map[string]interface{} "Sources"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /compare/sources [get]
func (h *Handler) HandleListSources(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	keys, err := h.service.ListSources(c.UserContext())
	if err != nil {
		return h.fail(c, l, err)
	}
	if keys == nil {
		keys = []string{}
	}
	return c.JSON(fiber.Map{
		"bucket":  h.service.bucket,
		"sources": keys,
	})
}

// HandleListRuns lists the most recent comparison runs.
// @Summary List Comparison Runs
// @Description Lists persisted runs, newest first, without their reports.
// @Tags compare
// @Produce json
// @Param limit query int false "Maximum number of runs"
// @Success 200 {object} map[string]interface{} "Runs"
// @Failure 503 {object} map[string]string "Run history disabled"
// @Router /compare/runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	runs, err := h.service.ListRuns(c.UserContext(), c.QueryInt("limit", store.DefaultListLimit))
	if err != nil {
		return h.fail(c, l, err)
	}
	if runs == nil {
		runs = []store.Run{}
	}
	return c.JSON(fiber.Map{"runs": runs})
}

// HandleGetRun returns one comparison run with its report.
// @Summary Get Comparison Run
// @Description Returns a persisted run and its full report.
// @Tags compare
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} map[string]interface{} "Run and report"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /compare/runs/{id} [get]
func (h *Handler) HandleGetRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	run, report, err := h.service.GetRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, l, err)
	}
	return c.JSON(fiber.Map{
		"run":    run,
		"report": report,
	})
}

// fail maps service errors to HTTP responses.
func (h *Handler) fail(c *fiber.Ctx, l *zap.Logger, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidOptions):
		status = fiber.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrNoStore), errors.Is(err, ErrNoStorage):
		status = fiber.StatusServiceUnavailable
	}

	if status == fiber.StatusInternalServerError {
		l.Error("Comparison request failed", zap.Error(err))
	} else {
		l.Warn("Comparison request rejected", zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   msg,
		"details": err.Error(),
	})
}

// objectRef parses a bucket reference. Plain keys point into the default
// bucket; local files are never read over HTTP.
func objectRef(s string) (source.Ref, error) {
	if strings.HasPrefix(s, "s3://") || strings.HasPrefix(s, "storage:") {
		return source.ParseRef(s)
	}
	return source.ObjectRef(strings.TrimPrefix(s, "/")), nil
}
