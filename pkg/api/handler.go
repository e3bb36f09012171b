// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

// Package api exposes the asset pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/LeeDigitalWorks/landingpress/pkg/assets"
	"github.com/LeeDigitalWorks/landingpress/pkg/keyname"
	"github.com/LeeDigitalWorks/landingpress/pkg/logger"
	"github.com/LeeDigitalWorks/landingpress/pkg/types"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const DefaultMaxBodyBytes int64 = 64 << 20

// DocumentProcessor runs the whole-document pipeline.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, doc *assets.Node, project *types.ProjectContext) (*assets.Node, *assets.Report, error)
}

// AssetUploader persists a single reference.
type AssetUploader interface {
	Upload(ctx context.Context, ref string, project types.ProjectContext, role keyname.Role) (types.UploadResult, error)
}

// Handler serves the document and asset endpoints.
type Handler struct {
	processor    DocumentProcessor
	uploader     AssetUploader
	maxBodyBytes int64
	mux          *http.ServeMux
}

// NewHandler creates a Handler. maxBodyBytes <= 0 uses DefaultMaxBodyBytes.
func NewHandler(processor DocumentProcessor, uploader AssetUploader, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	h := &Handler{
		processor:    processor,
		uploader:     uploader,
		maxBodyBytes: maxBodyBytes,
		mux:          http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx, _ := logger.With(r.Context(), func(c zerolog.Context) zerolog.Context {
		return c.Str("request_id", requestID).Str("path", r.URL.Path)
	})
	w.Header().Set("X-Request-Id", requestID)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	h.mux.ServeHTTP(w, r.WithContext(ctx))
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /v1/documents/process", h.processDocument)
	h.mux.HandleFunc("POST /v1/assets", h.uploadAsset)
}

type processRequest struct {
	Document *assets.Node         `json:"document"`
	Context  *types.ProjectContext `json:"context,omitempty"`
}

type processResponse struct {
	Document *assets.Node  `json:"document"`
	Report   *assets.Report `json:"report"`
	Error    string         `json:"error,omitempty"`
}

func (h *Handler) processDocument(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Document == nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "document is required")
		return
	}

	doc, report, err := h.processor.ProcessDocument(r.Context(), req.Document, req.Context)
	if report != nil {
		w.Header().Set("X-Run-Id", report.RunID)
	}

	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, processResponse{Document: doc, Report: report})
	case errors.Is(err, assets.ErrProjectContextRequired):
		h.writeError(w, http.StatusUnprocessableEntity, "project_context_required", err.Error())
	case errors.Is(err, assets.ErrStorageUnavailable):
		// Partially processed; the caller may persist what was uploaded.
		captureException(r.Context(), err)
		h.writeJSON(w, http.StatusServiceUnavailable, processResponse{Document: doc, Report: report, Error: err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Ctx(r.Context()).Info().Err(err).Msg("document processing interrupted")
		h.writeJSON(w, http.StatusServiceUnavailable, processResponse{Document: doc, Report: report, Error: err.Error()})
	default:
		captureException(r.Context(), err)
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

type uploadRequest struct {
	Reference string               `json:"reference"`
	Role      string               `json:"role"`
	Context   types.ProjectContext `json:"context"`
}

func (h *Handler) uploadAsset(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Context.Validate(); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, "project_context_required", err.Error())
		return
	}

	res, err := h.uploader.Upload(r.Context(), req.Reference, req.Context, keyname.ParseRole(req.Role))
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, res)
	case errors.Is(err, assets.ErrStorageUnavailable):
		captureException(r.Context(), err)
		h.writeError(w, http.StatusServiceUnavailable, "storage_unavailable", err.Error())
	case errors.Is(err, assets.ErrFetchFailed):
		h.writeError(w, http.StatusBadGateway, "fetch_failed", err.Error())
	default:
		h.writeError(w, http.StatusUnprocessableEntity, "invalid_asset", err.Error())
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		logger.Warn().Err(err).Msg("failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	h.writeJSON(w, status, errorResponse{
		Error:   errType,
		Message: message,
	})
}

func captureException(ctx context.Context, err error) {
	logger.Ctx(ctx).Error().Err(err).Msg("document pipeline failed")
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
