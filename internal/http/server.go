package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"emnnit/console/internal/attendance"
	"emnnit/console/internal/config"
	"emnnit/console/internal/hub"
	"emnnit/console/internal/institute"
	"emnnit/console/internal/live"
	"emnnit/console/internal/schedule"
)

const maxUploadBytes = 8 << 20

type Server struct {
	cfg       config.Config
	institute institute.API
	notifier  live.Notifier
	hub       *hub.Hub
	log       *zap.Logger
	validate  *validator.Validate
	sessions  *SessionStore
}

func NewServer(cfg config.Config, api institute.API, notifier live.Notifier, h *hub.Hub, log *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		institute: api,
		notifier:  notifier,
		hub:       h,
		log:       log,
		validate:  validator.New(),
		sessions:  NewSessionStore(),
	}
}

// Sessions exposes the store for the idle-session sweeper.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.hub.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/schedule/{group}/{semester}", s.handleGetSchedule)

		r.Route("/weekly/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateWeeklySession)
			r.Get("/{sessionID}", s.handleGetWeeklySession)
			r.Patch("/{sessionID}/cell", s.handleWeeklyCell)
			r.Post("/{sessionID}/extend", s.handleWeeklyExtend)
			r.Post("/{sessionID}/submit", s.handleWeeklySubmit)
			r.Delete("/{sessionID}", s.handleDeleteWeeklySession)
		})

		r.Route("/professor/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateProfessorSession)
			r.Get("/{sessionID}", s.handleGetProfessorSession)
			r.Patch("/{sessionID}/cell", s.handleProfessorCell)
			r.Post("/{sessionID}/editmode", s.handleProfessorEditMode)
			r.Post("/{sessionID}/save", s.handleProfessorSave)
			r.Post("/{sessionID}/refresh", s.handleProfessorRefresh)
			r.Delete("/{sessionID}", s.handleDeleteProfessorSession)
		})

		r.Get("/attendance/{group}/{semester}", s.handleAttendance)
		r.Get("/attendance/{group}/{semester}/export", s.handleAttendanceExport)
	})

	return r
}

// StartUpdateDispatcher consumes the scheduleUpdate channel: every update is
// pushed to connected browsers, and weekly sessions editing the updated
// selection re-fetch to converge. Overlapping re-fetches are not coalesced;
// last write wins.
func (s *Server) StartUpdateDispatcher(ctx context.Context) {
	updates, stop := s.notifier.Subscribe(ctx)
	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				s.hub.Broadcast(update)
				for _, session := range s.sessions.WeeklyMatching(update.UpdatedGroup, update.UpdatedSemester) {
					go s.refreshWeekly(ctx, session)
				}
			}
		}
	}()
}

func (s *Server) refreshWeekly(ctx context.Context, session *WeeklySession) {
	entries, err := s.institute.ClassSchedule(ctx, session.Group, session.Semester)
	if err != nil {
		s.log.Warn("schedule re-fetch failed, clearing session grid",
			zap.String("group", session.Group),
			zap.String("semester", session.Semester),
			zap.Error(err))
		session.Replace(make(schedule.Grid))
		return
	}
	session.Replace(schedule.Normalize(entries))
}

// Requests

type groupSemesterParams struct {
	Group    string `json:"group" validate:"required,oneof=A1 A2 B1 B2 C1 C2 D1 D2 E1 E2 F1 F2 G1 G2 H1 H2 I1 J1 K1 L1 M1 N1 N2 O1"`
	Semester string `json:"semester" validate:"required,oneof=1 2 3 4 5 6 7 8"`
}

type createProfessorSessionRequest struct {
	ProfessorID string `json:"professorId" validate:"required"`
}

type weeklyCellRequest struct {
	Day   string `json:"day" validate:"required"`
	Time  string `json:"time" validate:"required"`
	Field string `json:"field" validate:"required,oneof=subject venue"`
	Value string `json:"value"`
}

type extendRequest struct {
	Day  string `json:"day" validate:"required"`
	Time string `json:"time" validate:"required"`
}

type professorCellRequest struct {
	Day   string `json:"day" validate:"required"`
	Time  string `json:"time" validate:"required"`
	Field string `json:"field" validate:"required,oneof=subjectName group semester venue"`
	Value string `json:"value"`
}

type editModeRequest struct {
	EditMode *bool `json:"editMode"`
}

// Responses

type scheduleResponse struct {
	Group    string        `json:"group"`
	Semester string        `json:"semester"`
	Grid     schedule.Grid `json:"grid"`
}

type weeklySessionResponse struct {
	ID       string              `json:"id"`
	Group    string              `json:"group"`
	Semester string              `json:"semester"`
	Grid     schedule.Grid       `json:"grid"`
	Covered  map[string][]string `json:"covered"`
}

type professorSessionResponse struct {
	ID          string                 `json:"id"`
	ProfessorID string                 `json:"professorId"`
	EditMode    bool                   `json:"editMode"`
	Grid        schedule.ProfessorGrid `json:"grid"`
}

type attendanceResponse struct {
	Group    string           `json:"group"`
	Semester string           `json:"semester"`
	Dates    []string         `json:"dates"`
	Rows     []attendance.Row `json:"rows"`
}

// Weekly schedule

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	params, ok := s.groupSemester(w, r)
	if !ok {
		return
	}
	entries, err := s.institute.ClassSchedule(r.Context(), params.Group, params.Semester)
	if err != nil {
		s.remoteError(w, "fetching class schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{
		Group:    params.Group,
		Semester: params.Semester,
		Grid:     schedule.Normalize(entries),
	})
}

func (s *Server) handleCreateWeeklySession(w http.ResponseWriter, r *http.Request) {
	var req groupSemesterParams
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !s.valid(w, req) {
		return
	}
	entries, err := s.institute.ClassSchedule(r.Context(), req.Group, req.Semester)
	if err != nil {
		s.remoteError(w, "fetching class schedule", err)
		return
	}
	session := s.sessions.NewWeekly(req.Group, req.Semester, schedule.Normalize(entries))
	writeJSON(w, http.StatusCreated, s.weeklyPayload(session, session.Grid()))
}

func (s *Server) handleGetWeeklySession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.weeklySession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.weeklyPayload(session, session.Grid()))
}

func (s *Server) handleWeeklyCell(w http.ResponseWriter, r *http.Request) {
	session, ok := s.weeklySession(w, r)
	if !ok {
		return
	}
	var req weeklyCellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !s.valid(w, req) {
		return
	}
	grid, err := session.Apply(schedule.Action{
		Type:  schedule.ActionSetCell,
		Day:   req.Day,
		Slot:  req.Time,
		Field: req.Field,
		Value: req.Value,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	writeJSON(w, http.StatusOK, s.weeklyPayload(session, grid))
}

func (s *Server) handleWeeklyExtend(w http.ResponseWriter, r *http.Request) {
	session, ok := s.weeklySession(w, r)
	if !ok {
		return
	}
	var req extendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !s.valid(w, req) {
		return
	}
	grid, err := session.Apply(schedule.Action{Type: schedule.ActionExtend, Day: req.Day, Slot: req.Time})
	if err != nil {
		if errors.Is(err, schedule.ErrCellNotFound) {
			writeError(w, http.StatusBadRequest, "cell_not_found")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	writeJSON(w, http.StatusOK, s.weeklyPayload(session, grid))
}

func (s *Server) handleWeeklySubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.weeklySession(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	upload := institute.UploadRequest{
		Group:    session.Group,
		Semester: session.Semester,
		Schedule: schedule.Denormalize(session.Grid()),
	}
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".csv" && ext != ".json" {
			writeError(w, http.StatusBadRequest, "unsupported_file_type")
			return
		}
		upload.FileName = header.Filename
		upload.File = file
	}
	if err := s.institute.UploadWeeklySchedule(r.Context(), upload); err != nil {
		s.remoteError(w, "uploading weekly schedule", err)
		return
	}
	update := live.Update{UpdatedGroup: session.Group, UpdatedSemester: session.Semester}
	if err := s.notifier.Publish(r.Context(), update); err != nil {
		s.log.Warn("publishing schedule update", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "uploaded"})
}

func (s *Server) handleDeleteWeeklySession(w http.ResponseWriter, r *http.Request) {
	s.sessions.DeleteWeekly(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// Professor schedule

func (s *Server) handleCreateProfessorSession(w http.ResponseWriter, r *http.Request) {
	var req createProfessorSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !s.valid(w, req) {
		return
	}
	entries, err := s.institute.ProfessorSchedule(r.Context(), req.ProfessorID)
	if err != nil {
		s.remoteError(w, "fetching professor schedule", err)
		return
	}
	grid := schedule.NewProfessorGrid()
	grid.ApplyEntries(entries)
	session := s.sessions.NewProfessor(req.ProfessorID, grid)
	writeJSON(w, http.StatusCreated, professorPayload(session))
}

func (s *Server) handleGetProfessorSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.professorSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, professorPayload(session))
}

func (s *Server) handleProfessorCell(w http.ResponseWriter, r *http.Request) {
	session, ok := s.professorSession(w, r)
	if !ok {
		return
	}
	var req professorCellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if !s.valid(w, req) {
		return
	}
	if err := session.SetCell(req.Day, req.Time, req.Field, req.Value); err != nil {
		if errors.Is(err, schedule.ErrCellNotFound) {
			writeError(w, http.StatusBadRequest, "cell_not_found")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	writeJSON(w, http.StatusOK, professorPayload(session))
}

func (s *Server) handleProfessorEditMode(w http.ResponseWriter, r *http.Request) {
	session, ok := s.professorSession(w, r)
	if !ok {
		return
	}
	var req editModeRequest
	if err := decodeJSON(r, &req); err != nil || req.EditMode == nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	session.SetEditMode(*req.EditMode)
	writeJSON(w, http.StatusOK, professorPayload(session))
}

func (s *Server) handleProfessorSave(w http.ResponseWriter, r *http.Request) {
	session, ok := s.professorSession(w, r)
	if !ok {
		return
	}
	rows := session.Flatten()
	if err := s.institute.BulkUpdateProfessorSchedule(r.Context(), session.ProfessorID, rows); err != nil {
		s.remoteError(w, "saving professor schedule", err)
		return
	}
	session.SetEditMode(false)
	writeJSON(w, http.StatusOK, professorPayload(session))
}

func (s *Server) handleProfessorRefresh(w http.ResponseWriter, r *http.Request) {
	session, ok := s.professorSession(w, r)
	if !ok {
		return
	}
	entries, err := s.institute.ProfessorSchedule(r.Context(), session.ProfessorID)
	if err != nil {
		// The view recovers locally: an empty dense grid replaces
		// whatever was on screen.
		session.Replace(schedule.NewProfessorGrid())
		s.remoteError(w, "refreshing professor schedule", err)
		return
	}
	grid := schedule.NewProfessorGrid()
	grid.ApplyEntries(entries)
	session.Replace(grid)
	writeJSON(w, http.StatusOK, professorPayload(session))
}

func (s *Server) handleDeleteProfessorSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.DeleteProfessor(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

// Attendance

func (s *Server) handleAttendance(w http.ResponseWriter, r *http.Request) {
	params, ok := s.groupSemester(w, r)
	if !ok {
		return
	}
	records, err := s.institute.Attendance(r.Context(), params.Group, params.Semester)
	if err != nil {
		s.remoteError(w, "fetching attendance", err)
		return
	}
	report := attendance.Pivot(records)
	writeJSON(w, http.StatusOK, attendanceResponse{
		Group:    params.Group,
		Semester: params.Semester,
		Dates:    report.Dates,
		Rows:     report.Rows,
	})
}

func (s *Server) handleAttendanceExport(w http.ResponseWriter, r *http.Request) {
	params, ok := s.groupSemester(w, r)
	if !ok {
		return
	}
	records, err := s.institute.Attendance(r.Context(), params.Group, params.Semester)
	if err != nil {
		s.remoteError(w, "fetching attendance", err)
		return
	}
	report := attendance.Pivot(records)
	if report.Empty() {
		writeError(w, http.StatusNotFound, "no_data")
		return
	}
	filename := attendance.Filename(params.Group, params.Semester)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if err := report.WriteCSV(w); err != nil {
		s.log.Warn("writing attendance csv", zap.Error(err))
	}
}

// Helpers

func (s *Server) groupSemester(w http.ResponseWriter, r *http.Request) (groupSemesterParams, bool) {
	params := groupSemesterParams{
		Group:    chi.URLParam(r, "group"),
		Semester: chi.URLParam(r, "semester"),
	}
	if !s.valid(w, params) {
		return groupSemesterParams{}, false
	}
	return params, true
}

func (s *Server) weeklySession(w http.ResponseWriter, r *http.Request) (*WeeklySession, bool) {
	session, ok := s.sessions.Weekly(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session_not_found")
		return nil, false
	}
	return session, true
}

func (s *Server) professorSession(w http.ResponseWriter, r *http.Request) (*ProfessorSession, bool) {
	session, ok := s.sessions.Professor(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, "session_not_found")
		return nil, false
	}
	return session, true
}

func (s *Server) valid(w http.ResponseWriter, value interface{}) bool {
	if err := s.validate.Struct(value); err != nil {
		s.log.Debug("request validation failed", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid_request")
		return false
	}
	return true
}

func (s *Server) remoteError(w http.ResponseWriter, action string, err error) {
	s.log.Warn(action, zap.Error(err))
	writeError(w, http.StatusBadGateway, "institute_unavailable")
}

func (s *Server) weeklyPayload(session *WeeklySession, grid schedule.Grid) weeklySessionResponse {
	return weeklySessionResponse{
		ID:       session.ID,
		Group:    session.Group,
		Semester: session.Semester,
		Grid:     grid,
		Covered:  coveredByDay(grid),
	}
}

func professorPayload(session *ProfessorSession) professorSessionResponse {
	grid, editMode := session.Grid()
	return professorSessionResponse{
		ID:          session.ID,
		ProfessorID: session.ProfessorID,
		EditMode:    editMode,
		Grid:        grid,
	}
}

// coveredByDay lists, per day and in axis order, the slots occupied by an
// earlier cell's span. The browser renders those as blank merged cells.
func coveredByDay(grid schedule.Grid) map[string][]string {
	covered := make(map[string][]string)
	for _, day := range schedule.Days {
		suppressed := schedule.CoveredSlots(grid, day, schedule.WeeklySlots)
		if len(suppressed) == 0 {
			continue
		}
		slots := make([]string, 0, len(suppressed))
		for _, slot := range schedule.WeeklySlots {
			if suppressed[slot] {
				slots = append(slots, slot)
			}
		}
		covered[day] = slots
	}
	return covered
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
