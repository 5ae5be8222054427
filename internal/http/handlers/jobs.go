package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"repurposer/internal/domain"
)

// CreateJobRequest is the submission payload.
type CreateJobRequest struct {
	Title        string                   `json:"title"`
	Content      string                   `json:"content"`
	ContentTypes []string                 `json:"content_types"`
	Options      domain.GenerationOptions `json:"options"`
}

// JobResponse is the job representation returned by the gateway.
type JobResponse struct {
	ID           string                   `json:"id"`
	Title        string                   `json:"title"`
	Status       domain.JobStatus         `json:"status"`
	ContentTypes []domain.ContentType     `json:"content_types"`
	Options      domain.GenerationOptions `json:"options"`
	ErrorMessage string                   `json:"error_message,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
	Outputs      []OutputResponse         `json:"outputs"`
}

// OutputResponse is one generated artifact.
type OutputResponse struct {
	ID          string             `json:"id"`
	ContentType domain.ContentType `json:"content_type"`
	Content     string             `json:"content,omitempty"`
	FilePath    string             `json:"file_path,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// CreateJob accepts a new repurposing request, writes the pending job record,
// and enqueues its identifier for the worker fleet.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		a.jsonError(w, http.StatusBadRequest, "title is required")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		a.jsonError(w, http.StatusBadRequest, "content is required")
		return
	}

	types := domain.DefaultContentTypes
	if len(req.ContentTypes) > 0 {
		types = types[:0:0]
		for _, raw := range req.ContentTypes {
			ct, err := domain.ParseContentType(raw)
			if err != nil {
				a.jsonError(w, http.StatusBadRequest, "unknown content type: "+raw)
				return
			}
			types = append(types, ct)
		}
	}

	job := &domain.Job{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(req.Title),
		OriginalContent: req.Content,
		ContentTypes:    types,
		Options:         req.Options,
		Status:          domain.JobStatusPending,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Log.Error().Err(err).Msg("create job failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to create job")
		return
	}
	if err := a.Tasks.Enqueue(r.Context(), job.ID); err != nil {
		a.Log.Error().Err(err).Str("job_id", job.ID).Msg("enqueue job failed")
		// Finalize the record so no pending job sits around with no task
		// behind it; the client retries with a fresh submission.
		if mfErr := a.Jobs.MarkFailed(r.Context(), job.ID, "failed to enqueue processing task"); mfErr != nil {
			a.Log.Warn().Err(mfErr).Str("job_id", job.ID).Msg("finalize unenqueued job failed")
		}
		a.jsonError(w, http.StatusInternalServerError, "failed to enqueue job")
		return
	}

	a.json(w, http.StatusAccepted, toJobResponse(job, nil))
}

// GetJob returns a job and every artifact produced so far. Callers must
// inspect the output set, not just the status, to know what exists.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "job not found")
			return
		}
		a.Log.Error().Err(err).Str("job_id", jobID).Msg("get job failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	outputs, err := a.Outputs.ListByJob(r.Context(), jobID)
	if err != nil {
		a.Log.Error().Err(err).Str("job_id", jobID).Msg("list outputs failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to load outputs")
		return
	}
	a.json(w, http.StatusOK, toJobResponse(job, outputs))
}

// GetJobStatus serves a lightweight status lookup through the Redis cache,
// falling back to the record store on a miss.
func (a *App) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if a.Status != nil {
		if status, err := a.Status.GetStatus(r.Context(), jobID); err == nil {
			a.json(w, http.StatusOK, map[string]any{"id": jobID, "status": status})
			return
		}
	}
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "job not found")
			return
		}
		a.Log.Error().Err(err).Str("job_id", jobID).Msg("get job status failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	if a.Status != nil {
		if err := a.Status.SetStatus(r.Context(), jobID, job.Status); err != nil {
			a.Log.Warn().Err(err).Str("job_id", jobID).Msg("status cache fill failed")
		}
	}
	a.json(w, http.StatusOK, map[string]any{"id": jobID, "status": job.Status})
}

func toJobResponse(job *domain.Job, outputs []domain.Output) JobResponse {
	resp := JobResponse{
		ID:           job.ID,
		Title:        job.Title,
		Status:       job.Status,
		ContentTypes: job.ContentTypes,
		Options:      job.Options,
		ErrorMessage: job.ErrorMessage,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		CompletedAt:  job.CompletedAt,
		Outputs:      []OutputResponse{},
	}
	for _, out := range outputs {
		resp.Outputs = append(resp.Outputs, OutputResponse{
			ID:          out.ID,
			ContentType: out.ContentType,
			Content:     out.Content,
			FilePath:    out.FilePath,
			CreatedAt:   out.CreatedAt,
		})
	}
	return resp
}
