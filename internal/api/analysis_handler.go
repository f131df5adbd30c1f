package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/unalkalkan/la5asni/internal/planner"
	"github.com/unalkalkan/la5asni/internal/provider"
	"github.com/unalkalkan/la5asni/internal/telemetry"
	"github.com/unalkalkan/la5asni/pkg/types"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in RAM
const multipartMemory = 8 << 20

// Analyze answers POST /api/v1/analyze/ with a multipart upload
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFor(r)

	limit := h.maxUploadBytes()
	if r.ContentLength > limit {
		writeError(w, logger, &http.MaxBytesError{Limit: limit})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, logger, err)
			return
		}
		badRequest(w, "expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	providerName := strings.TrimSpace(r.FormValue("provider"))
	logger.Info("analyzing upload", "filename", header.Filename, "bytes", len(data), "provider", providerName)

	result, err := h.service.AnalyzeFile(r.Context(), header.Filename, data, providerName)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	telemetry.WithAnalysisID(logger, result.ID).Info("analysis stored", "modules", len(result.TrainingModules))
	writeJSON(w, http.StatusCreated, result)
}

// ListAnalyses answers GET /api/v1/analyses
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := h.repo.List(r.Context())
	if err != nil {
		writeError(w, h.loggerFor(r), err)
		return
	}
	if analyses == nil {
		analyses = []*types.Analysis{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"analyses": analyses,
		"count":    len(analyses),
	})
}

// GetAnalysis answers GET /api/v1/analyses/{id}
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.loggerFor(r), err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ExportAnalysis answers GET /api/v1/analyses/{id}/export. The optional
// plan_mode, num_days and hours_per_day query parameters add a study plan.
func (h *Handler) ExportAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.loggerFor(r), err)
		return
	}
	h.writeReport(w, r, a)
}

// ExportBundle answers GET /api/v1/analyses/{id}/bundle with a ZIP holding
// the analysis, its report, the optional plan and the source document.
func (h *Handler) ExportBundle(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFor(r)
	id := r.PathValue("id")

	a, err := h.repo.Get(r.Context(), id)
	if err != nil {
		writeError(w, logger, err)
		return
	}
	plan, err := h.planFromQuery(r, a.TrainingModules)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	bundle, err := h.packager.PackageAnalysis(r.Context(), id, plan)
	if err != nil {
		writeError(w, logger, err)
		return
	}

	name := strings.TrimSuffix(reportFilename(a), ".pdf") + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, bundle); err != nil {
		logger.Warn("failed to write bundle", "error", err)
	}
}

// ExportBody answers POST /api/v1/export/ with an analysis JSON body
func (h *Handler) ExportBody(w http.ResponseWriter, r *http.Request) {
	var a types.Analysis
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, h.loggerFor(r), err)
		return
	}
	if strings.TrimSpace(a.Summary) == "" && len(a.TrainingModules) == 0 {
		badRequest(w, "analysis has neither summary nor training modules")
		return
	}
	h.writeReport(w, r, &a)
}

func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, a *types.Analysis) {
	logger := h.loggerFor(r)

	var plan *planner.Plan
	if len(a.TrainingModules) > 0 {
		p, err := h.planFromQuery(r, a.TrainingModules)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		plan = p
	}

	// Render fully before writing so failures still produce a JSON error.
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, a, plan); err != nil {
		writeError(w, logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": reportFilename(a),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("failed to write report", "error", err)
	}
}

func reportFilename(a *types.Analysis) string {
	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(a.Filename, "\\", "/")), path.Ext(a.Filename))
	if base == "" || base == "." || base == "/" {
		base = "training"
	}
	return base + "-analysis.pdf"
}

type refineRequest struct {
	Text         json.RawMessage `json:"text"`
	UserFeedback string          `json:"user_feedback"`
	Provider     string          `json:"provider"`
	AnalysisID   string          `json:"analysis_id"`
}

// Refine answers POST /api/v1/refine/. The analysis comes from text or,
// when text is absent, from the stored analysis_id. A refined stored
// analysis is saved back. When the model fails the original is returned
// with X-Refined: false.
func (h *Handler) Refine(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerFor(r)

	var req refineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, logger, err)
		return
	}

	original, err := parseAnalysisText(req.Text)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	feedback := strings.TrimSpace(req.UserFeedback)
	if (original == nil && req.AnalysisID == "") || feedback == "" {
		badRequest(w, "Missing required fields.")
		return
	}

	stored := false
	if original == nil {
		original, err = h.repo.Get(r.Context(), req.AnalysisID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		stored = true
	} else if req.AnalysisID != "" {
		original.ID = req.AnalysisID
		_, err := h.repo.Get(r.Context(), req.AnalysisID)
		stored = err == nil
	}

	result := h.service.Refine(r.Context(), original, feedback, req.Provider)
	if errors.Is(result.Err, provider.ErrProviderNotFound) {
		writeError(w, logger, result.Err)
		return
	}

	if result.Refined && stored {
		if err := h.repo.Save(r.Context(), result.Analysis); err != nil {
			telemetry.WithAnalysisID(logger, result.Analysis.ID).Warn("failed to save refined analysis", "error", err)
		}
	}

	w.Header().Set("X-Refined", strconv.FormatBool(result.Refined))
	writeJSON(w, http.StatusOK, result.Analysis)
}

// parseAnalysisText accepts an analysis object, a JSON string holding one,
// or plain prose used as the summary. Absent text yields nil.
func parseAnalysisText(raw json.RawMessage) (*types.Analysis, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, errors.New("text must be an analysis object or string")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		var a types.Analysis
		if err := json.Unmarshal([]byte(s), &a); err == nil {
			return &a, nil
		}
		return &types.Analysis{Summary: s}, nil
	}

	var a types.Analysis
	if err := json.Unmarshal(trimmed, &a); err != nil {
		return nil, errors.New("text must be an analysis object or string")
	}
	return &a, nil
}
