package runs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/JaimeStill/advsynth/internal/pipeline"
	"github.com/JaimeStill/advsynth/pkg/handlers"
	"github.com/JaimeStill/advsynth/pkg/pagination"
	"github.com/JaimeStill/advsynth/pkg/routes"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	if err != nil {
		panic(fmt.Sprintf("runs: register finite validation: %v", err))
	}
	return v
}

// CreateRequest submits a batch of labeled logits for augmentation.
type CreateRequest struct {
	Labels []string    `json:"labels" validate:"required,min=1,dive,required"`
	Logits [][]float64 `json:"logits" validate:"required,min=1,dive,min=1,dive,finite"`
}

// Batch validates the request and converts it to a pipeline batch.
func (c CreateRequest) Batch() (pipeline.Batch, error) {
	if err := validate.Struct(c); err != nil {
		return pipeline.Batch{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if len(c.Labels) != len(c.Logits) {
		return pipeline.Batch{}, fmt.Errorf("%w: %d labels for %d logit rows", ErrInvalidRequest, len(c.Labels), len(c.Logits))
	}

	cols := len(c.Logits[0])
	data := make([]float64, 0, len(c.Logits)*cols)
	for i, row := range c.Logits {
		if len(row) != cols {
			return pipeline.Batch{}, fmt.Errorf("%w: logit row %d has %d classes, want %d", ErrInvalidRequest, i, len(row), cols)
		}
		data = append(data, row...)
	}

	return pipeline.Batch{
		Labels: c.Labels,
		Inputs: mat.NewDense(len(c.Logits), cols, data),
	}, nil
}

// FailedRun is returned when a run stops partway; Result holds what was persisted.
type FailedRun struct {
	Error  string           `json:"error"`
	Result *pipeline.Result `json:"result"`
}

// Handler provides HTTP endpoints for runs and their artifacts.
type Handler struct {
	sys        System
	exec       Executor
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, executor, logger, and pagination config.
func NewHandler(
	sys System,
	exec Executor,
	logger *slog.Logger,
	pagination pagination.Config,
) *Handler {
	return &Handler{
		sys:        sys,
		exec:       exec,
		logger:     logger.With("handler", "runs"),
		pagination: pagination,
	}
}

// Routes returns the route groups for run and artifact endpoints.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/runs",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.List},
				{Method: "POST", Pattern: "", Handler: h.Create},
				{Method: "GET", Pattern: "/{id}", Handler: h.Find},
				{Method: "GET", Pattern: "/{id}/artifacts", Handler: h.Artifacts},
			},
		},
		{
			Prefix: "/artifacts",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{id}", Handler: h.FindArtifact},
				{Method: "GET", Pattern: "/{id}/content", Handler: h.Content},
			},
		},
	}
}

// List returns a paginated list of runs filtered by the status and sort query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Create runs a submitted batch synchronously and returns its result.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, err)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %w", ErrInvalidRequest, err))
		return
	}

	batch, err := req.Batch()
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	res, err := h.exec.Run(r.Context(), batch)
	if err != nil {
		status := MapHTTPStatus(err)
		if res == nil {
			handlers.RespondError(w, h.logger, status, err)
			return
		}
		h.logger.Error("run failed", "run_id", res.RunID, "status", status, "error", err)
		handlers.RespondJSON(w, status, FailedRun{Error: err.Error(), Result: res})
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, res)
}

// Find returns a single run by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	run, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, run)
}

// Artifacts returns every artifact persisted by a run.
func (h *Handler) Artifacts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	items, err := h.sys.Artifacts(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, items)
}

// FindArtifact returns artifact metadata by its UUID path parameter.
func (h *Handler) FindArtifact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	a, err := h.sys.FindArtifact(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

// Content streams the stored image of an artifact.
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	a, rc, err := h.sys.OpenArtifact(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(a.SizeBytes, 10))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("artifact stream interrupted", "id", id, "error", err)
	}
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: invalid id", ErrInvalidRequest))
		return uuid.Nil, false
	}
	return id, true
}
