package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"jamjob-backend/internal/apperr"
	"jamjob-backend/internal/services"
)

type LogoHandler struct {
	logos    *services.LogoService
	log      logrus.FieldLogger
	maxBytes int64
}

func NewLogoHandler(logos *services.LogoService, log logrus.FieldLogger, maxBytes int64) *LogoHandler {
	return &LogoHandler{logos: logos, log: log, maxBytes: maxBytes}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// --- POST /upload-logo ---

func (h *LogoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "Logos.Upload"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.log, apperr.E(apperr.CodeBadRequest, op, "file too large", err))
			return
		}
		writeError(w, h.log, apperr.E(apperr.CodeBadRequest, op, "No file uploaded", err))
		return
	}
	defer file.Close()

	url, err := h.logos.StoreUpload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{URL: url})
}

// --- GET /get-logo/uploads/{filename} ---

func (h *LogoHandler) Get(w http.ResponseWriter, r *http.Request) {
	rc, ct, err := h.logos.OpenUpload(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=604800")
	if _, err := io.Copy(w, rc); err != nil {
		h.log.WithError(err).Warn("logo response interrupted")
	}
}
