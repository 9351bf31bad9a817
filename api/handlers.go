package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/skillchart/internal/records"
	"github.com/seenimoa/skillchart/internal/report"
	"github.com/seenimoa/skillchart/internal/store"
	"github.com/seenimoa/skillchart/pkg/models"
)

// maxBodyBytes caps request bodies; progress histories are small.
const maxBodyBytes = 1 << 20

// RenderRequest is the body for POST /api/v1/charts/progress.
// Updates use any of the record key spellings the importer accepts.
type RenderRequest struct {
	Mode    string           `json:"mode"`
	Updates []map[string]any `json:"updates"`
}

// CreateSkillRequest is the body for POST /api/v1/skills.
type CreateSkillRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateView is a stored update as returned by the API.
type UpdateView struct {
	RecordedAt string `json:"recorded_at,omitempty"`
	RawScore   any    `json:"raw_score"`
	RawTarget  any    `json:"raw_target"`
	Notes      string `json:"notes,omitempty"`
}

// decodeBody decodes JSON with numbers kept as json.Number, so integer and
// string scores survive exactly as sent.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

// ════════════════════════════════════════════════════════════════════
// POST /api/v1/charts/progress
// ════════════════════════════════════════════════════════════════════

func (s *Server) handleRenderProgress(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, err := s.modeFrom(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updates := records.FromMaps(req.Updates)
	svg, hit := s.renderCached(updates, mode)
	writeSVG(w, svg, hit)
}

// ════════════════════════════════════════════════════════════════════
// Skills
// ════════════════════════════════════════════════════════════════════

func (s *Server) handleListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := s.store.ListSkills(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	if skills == nil {
		skills = []models.Skill{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: skills})
}

func (s *Server) handleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var req CreateSkillRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	sk := models.Skill{ID: req.ID, Name: req.Name, Description: req.Description}
	if err := s.store.SaveSkill(r.Context(), sk); err != nil {
		s.storeError(w, err)
		return
	}
	saved, err := s.store.Skill(r.Context(), req.ID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: saved})
}

func (s *Server) handleGetSkill(w http.ResponseWriter, r *http.Request) {
	sk, err := s.store.Skill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sk})
}

func (s *Server) handleListUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := s.store.Updates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	views := make([]UpdateView, len(updates))
	for i, u := range updates {
		views[i] = UpdateView{
			RawScore:  u.RawScore,
			RawTarget: u.RawTarget,
			Notes:     u.Notes,
		}
		if !u.RecordedAt.IsZero() {
			views[i].RecordedAt = u.RecordedAt.UTC().Format(time.RFC3339)
		}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: views})
}

func (s *Server) handleAddUpdate(w http.ResponseWriter, r *http.Request) {
	var rec map[string]any
	if err := decodeBody(w, r, &rec); err != nil || rec == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := s.store.AddUpdate(r.Context(), chi.URLParam(r, "id"), records.FromMap(rec))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: map[string]string{"id": id}})
}

func (s *Server) handleSkillChart(w http.ResponseWriter, r *http.Request) {
	mode, err := s.modeFrom(r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updates, err := s.store.Updates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	svg, hit := s.renderCached(updates, mode)
	writeSVG(w, svg, hit)
}

func (s *Server) handleSkillReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := s.modeFrom(q.Get("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := report.ParseFormat(q.Get("format"))
	if err != nil || format == report.FormatPDF {
		writeError(w, http.StatusBadRequest, "format must be html or text")
		return
	}

	id := chi.URLParam(r, "id")
	sk, err := s.store.Skill(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	updates, err := s.store.Updates(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	req := models.ProgressReport{
		ClientName: q.Get("client"),
		Skills:     []models.SkillProgress{{Skill: sk, Updates: updates}},
	}
	if n := len(updates); n > 0 {
		req.PeriodStart, req.PeriodEnd = updates[0].RecordedAt, updates[n-1].RecordedAt
	}

	cfg := report.DefaultReportConfig()
	cfg.Mode = mode
	cfg.Title = s.cfg.Report.Title
	cfg.ImageDir = s.cfg.Report.ImageDir
	if s.cfg.Report.Author != "" {
		cfg.Author = s.cfg.Report.Author
	}
	cfg.Logger = s.log
	cfg.Metrics = s.metrics

	data, err := report.Build(r.Context(), req, cfg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if format == report.FormatText {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, report.RenderText(data))
		return
	}

	html, err := report.RenderHTML(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, html)
}

// storeError maps store failures onto HTTP statuses.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrSkillNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, store.ErrUnsupportedValue), errors.Is(err, store.ErrInvalidSkill):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.log.Error("store operation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
