package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"jamjob-backend/internal/models"
	"jamjob-backend/internal/services"
)

type JobHandler struct {
	jobs *services.JobService
	log  logrus.FieldLogger
}

func NewJobHandler(jobs *services.JobService, log logrus.FieldLogger) *JobHandler {
	return &JobHandler{jobs: jobs, log: log}
}

// --- POST /post-job ---

func (h *JobHandler) PostJob(w http.ResponseWriter, r *http.Request) {
	var job models.Job
	if err := decodeJSON(w, r, "Jobs.PostJob", &job); err != nil {
		writeError(w, h.log, err)
		return
	}

	res, err := h.jobs.PostJob(r.Context(), &job)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- GET /all-jobs ---

func (h *JobHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListAllJobs(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// --- GET /all-jobs/{id} ---

func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// --- GET /my-jobs/{email} ---

func (h *JobHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.ListJobsByPoster(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// --- DELETE /job/{id} ---

func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	res, err := h.jobs.DeleteJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- PATCH /update-job/{id} ---
// Upserts unless called with ?upsert=false.

func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := decodeJSON(w, r, "Jobs.UpdateJob", &fields); err != nil {
		writeError(w, h.log, err)
		return
	}

	mode := services.UpdateModeUpsert
	if r.URL.Query().Get("upsert") == "false" {
		mode = services.UpdateModeExisting
	}

	res, err := h.jobs.UpdateJob(r.Context(), chi.URLParam(r, "id"), fields, mode)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
