package api

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"surveyline/pkg/config"
	"surveyline/pkg/drawing"
	"surveyline/pkg/export"
	"surveyline/pkg/model"
	"surveyline/pkg/pipeline"
	"surveyline/pkg/store"
	"surveyline/pkg/survey"
)

const defaultSurveyName = "survey"

// SurveyHandler exposes survey processing and the stored surveys.
type SurveyHandler struct {
	store   store.SurveyStore
	proc    *pipeline.Processor
	style   drawing.Style
	profile config.ProfileConfig
	maxBody int64
	out     Formatter
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(st store.SurveyStore, proc *pipeline.Processor, cfg *config.Config) *SurveyHandler {
	return &SurveyHandler{
		store:   st,
		proc:    proc,
		style:   drawing.NewStyle(cfg.Drawing),
		profile: cfg.Profile,
		maxBody: cfg.Server.MaxBodyBytes,
	}
}

// HandleCreate handles POST /api/surveys. The body is a survey point file.
func (h *SurveyHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = defaultSurveyName
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	points, err := survey.Read(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.out.WriteError(w, r, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		h.out.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sv, err := h.proc.Process(r.Context(), name, points)
	if err != nil {
		if pipeline.IsInputError(err) {
			h.out.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.Error("Survey processing failed", "name", name, "error", err)
		h.out.WriteError(w, r, http.StatusInternalServerError, "processing failed")
		return
	}

	if err := h.store.SaveSurvey(r.Context(), sv); err != nil {
		slog.Error("Failed to save survey", "id", sv.ID, "error", err)
		h.out.WriteError(w, r, http.StatusInternalServerError, "failed to save survey")
		return
	}

	w.Header().Set("Location", "/api/surveys/"+sv.ID)
	h.out.WriteResponse(w, r, http.StatusCreated, sv)
}

// HandleList handles GET /api/surveys.
func (h *SurveyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListSurveys(r.Context())
	if err != nil {
		slog.Error("Failed to list surveys", "error", err)
		h.out.WriteError(w, r, http.StatusInternalServerError, "failed to list surveys")
		return
	}
	if list == nil {
		list = []model.SurveyInfo{}
	}
	h.out.WriteResponse(w, r, http.StatusOK, list)
}

// HandleGet handles GET /api/surveys/{id}.
func (h *SurveyHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sv, ok := h.load(w, r)
	if !ok {
		return
	}
	h.out.WriteResponse(w, r, http.StatusOK, sv)
}

// HandleDelete handles DELETE /api/surveys/{id}.
func (h *SurveyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := h.store.DeleteSurvey(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.out.WriteError(w, r, http.StatusNotFound, err.Error())
	case err != nil:
		slog.Error("Failed to delete survey", "id", id, "error", err)
		h.out.WriteError(w, r, http.StatusInternalServerError, "failed to delete survey")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleExport handles GET /api/surveys/{id}/export?format=dxf|geojson&mode=points|connect|profile.
func (h *SurveyHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "dxf"
	}
	enc, err := export.EncoderFor(format)
	if err != nil {
		h.out.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	mode, err := pipeline.ParseMode(q.Get("mode"))
	if err != nil {
		h.out.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sv, ok := h.load(w, r)
	if !ok {
		return
	}

	d, err := pipeline.BuildDrawing(sv, mode, h.style, h.profile)
	if err != nil {
		slog.Error("Failed to build drawing", "id", sv.ID, "mode", mode, "error", err)
		h.out.WriteError(w, r, http.StatusInternalServerError, "failed to build drawing")
		return
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, d); err != nil {
		slog.Error("Failed to encode drawing", "id", sv.ID, "format", format, "error", err)
		h.out.WriteError(w, r, http.StatusInternalServerError, "failed to encode drawing")
		return
	}

	w.Header().Set("Content-Type", enc.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(sv, mode)+enc.Extension()))
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Failed to write export", "id", sv.ID, "error", err)
	}
}

// load fetches the survey named by the {id} path value, writing the error
// response itself when it cannot.
func (h *SurveyHandler) load(w http.ResponseWriter, r *http.Request) (*model.Survey, bool) {
	id := r.PathValue("id")
	sv, err := h.store.GetSurvey(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.out.WriteError(w, r, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		slog.Error("Failed to load survey", "id", id, "error", err)
		h.out.WriteError(w, r, http.StatusInternalServerError, "failed to load survey")
		return nil, false
	}
	return sv, true
}

func exportName(sv *model.Survey, mode pipeline.Mode) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, sv.Name)
	return name + "_" + string(mode)
}
