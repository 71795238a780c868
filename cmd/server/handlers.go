package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/edforge/edforge/internal/agents"
	"github.com/edforge/edforge/internal/ai"
	"github.com/edforge/edforge/internal/blueprint"
	"github.com/edforge/edforge/internal/course"
	"github.com/edforge/edforge/internal/export"
	"github.com/edforge/edforge/internal/model"
	"github.com/edforge/edforge/internal/orchestrator"
	"github.com/edforge/edforge/internal/platform/cache"
	"github.com/edforge/edforge/internal/platform/database"
	"github.com/edforge/edforge/internal/progress"
	"github.com/edforge/edforge/internal/quiz"
	"github.com/edforge/edforge/internal/version"
)

// server holds the wired services behind the HTTP surface.
type server struct {
	db         *database.DB
	cache      *cache.Cache
	orc        *orchestrator.Orchestrator
	courses    *course.Service
	engine     *quiz.Engine
	progress   *progress.Service
	versions   *version.Service
	blueprints *blueprint.Loader
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /ai-agents/generate-curriculum", s.handleGenerateCurriculum)
	mux.HandleFunc("POST /ai-agents/generate-quiz", s.handleGenerateQuiz)
	mux.HandleFunc("GET /ai-agents/recommendations", s.handleRecommendations)
	mux.HandleFunc("GET /ai-agents/requests/{id}", s.handleRequestStatus)
	mux.HandleFunc("POST /ai-agents/apply-curriculum", s.handleApplyCurriculum)
	mux.HandleFunc("POST /ai-agents/apply-quiz", s.handleApplyQuiz)

	mux.HandleFunc("GET /blueprints", s.handleListBlueprints)
	mux.HandleFunc("POST /courses/import", s.handleImportBlueprint)

	mux.HandleFunc("POST /courses", s.handleCreateCourse)
	mux.HandleFunc("POST /courses/{id}/publish", s.handlePublishCourse)
	mux.HandleFunc("GET /courses/{id}/analytics", s.handleCourseAnalytics)
	mux.HandleFunc("GET /courses/{id}/analytics.xlsx", s.handleCourseAnalyticsXLSX)

	mux.HandleFunc("PUT /lessons/{id}/content", s.handleUpdateLessonContent)
	mux.HandleFunc("GET /lessons/{id}/versions", s.handleListVersions)

	mux.HandleFunc("POST /quizzes/{id}/attempts", s.handleSubmitQuiz)

	mux.HandleFunc("POST /enrollments", s.handleEnroll)
	mux.HandleFunc("GET /enrollments", s.handleFindEnrollment)
	mux.HandleFunc("POST /enrollments/{id}/progress", s.handleUpdateProgress)
	mux.HandleFunc("GET /enrollments/{id}/progress", s.handleEnrollmentProgress)

	mux.HandleFunc("POST /content-versions", s.handleCreateVersion)
	mux.HandleFunc("POST /content-versions/{id}/approve", s.handleApproveVersion)
	mux.HandleFunc("POST /content-versions/{id}/reject", s.handleRejectVersion)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	return mux
}

func (s *server) handleGenerateCurriculum(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		agents.CurriculumInput
	}
	if !decode(w, r, &req) {
		return
	}
	result, err := s.orc.GenerateCurriculum(r.Context(), req.UserID, req.CurriculumInput)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		agents.QuizInput
	}
	if !decode(w, r, &req) {
		return
	}
	result, err := s.orc.GenerateQuiz(r.Context(), req.UserID, req.QuizInput)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	enrollmentID := r.URL.Query().Get("enrollmentId")
	if enrollmentID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("enrollmentId query parameter is required"))
		return
	}
	result, err := s.orc.GenerateRecommendations(r.Context(), r.URL.Query().Get("userId"), enrollmentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleRequestStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.orc.GetRequestStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleApplyCurriculum(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CourseID   string                  `json:"courseId"`
		Curriculum agents.CurriculumOutput `json:"curriculum"`
	}
	if !decode(w, r, &req) {
		return
	}
	result, err := s.orc.ApplyCurriculum(r.Context(), req.CourseID, req.Curriculum)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *server) handleApplyQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string            `json:"userId"`
		LessonID string            `json:"lessonId"`
		Quiz     agents.QuizOutput `json:"quiz"`
	}
	if !decode(w, r, &req) {
		return
	}
	created, err := s.orc.ApplyQuiz(r.Context(), req.UserID, req.LessonID, req.Quiz)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleListBlueprints(w http.ResponseWriter, _ *http.Request) {
	if s.blueprints == nil {
		writeJSON(w, http.StatusOK, []blueprint.Course{})
		return
	}
	writeJSON(w, http.StatusOK, s.blueprints.All())
}

func (s *server) handleImportBlueprint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BlueprintID  string `json:"blueprintId"`
		InstructorID string `json:"instructorId"`
	}
	if !decode(w, r, &req) {
		return
	}
	if s.blueprints == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no blueprint directory configured"))
		return
	}
	bp, ok := s.blueprints.Get(req.BlueprintID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("blueprint "+req.BlueprintID+" not found"))
		return
	}
	created, err := blueprint.Materialize(r.Context(), s.courses.Store(), req.InstructorID, bp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstructorID string `json:"instructorId"`
		Title        string `json:"title"`
		Description  string `json:"description"`
	}
	if !decode(w, r, &req) {
		return
	}
	created, err := s.courses.CreateCourse(r.Context(), req.InstructorID, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *server) handlePublishCourse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstructorID string `json:"instructorId"`
	}
	if !decode(w, r, &req) {
		return
	}
	published, err := s.courses.Publish(r.Context(), r.PathValue("id"), req.InstructorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, published)
}

func (s *server) handleCourseAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.progress.GetCourseAnalytics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *server) handleCourseAnalyticsXLSX(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.progress.GetCourseAnalytics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "course-analytics-"+analytics.CourseID+".xlsx"))
	if err := export.WriteCourseAnalyticsXLSX(w, analytics); err != nil {
		slog.Error("failed to stream analytics workbook", "course_id", analytics.CourseID, "error", err)
	}
}

func (s *server) handleUpdateLessonContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstructorID string `json:"instructorId"`
		Content      string `json:"content"`
	}
	if !decode(w, r, &req) {
		return
	}
	updated, err := s.courses.UpdateLessonContent(r.Context(), r.PathValue("id"), req.InstructorID, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.versions.ListByLesson(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (s *server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string            `json:"userId"`
		Answers map[string]string `json:"answers"`
	}
	if !decode(w, r, &req) {
		return
	}
	result, err := s.engine.SubmitAttempt(r.Context(), r.PathValue("id"), req.UserID, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleEnroll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		CourseID string `json:"courseId"`
	}
	if !decode(w, r, &req) {
		return
	}
	enrollment, err := s.progress.Enroll(r.Context(), req.UserID, req.CourseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, enrollment)
}

func (s *server) handleFindEnrollment(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	courseID := r.URL.Query().Get("courseId")
	if userID == "" || courseID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("userId and courseId query parameters are required"))
		return
	}
	enrollment, err := s.progress.FindEnrollment(r.Context(), userID, courseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enrollment)
}

func (s *server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID         string                     `json:"lessonId"`
		Status           model.LessonProgressStatus `json:"status"`
		TimeSpentSeconds int                        `json:"timeSpentSeconds"`
	}
	if !decode(w, r, &req) {
		return
	}
	lp, err := s.progress.UpdateLessonProgress(r.Context(), r.PathValue("id"), req.LessonID, req.Status, req.TimeSpentSeconds)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lp)
}

func (s *server) handleEnrollmentProgress(w http.ResponseWriter, r *http.Request) {
	rollup, err := s.progress.GetEnrollmentProgress(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

func (s *server) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LessonID          string `json:"lessonId"`
		AuthorID          string `json:"authorId"`
		Content           string `json:"content"`
		ChangeDescription string `json:"changeDescription"`
	}
	if !decode(w, r, &req) {
		return
	}
	v, err := s.versions.Create(r.Context(), req.LessonID, req.AuthorID, req.Content, req.ChangeDescription, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *server) handleApproveVersion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ApproverID string `json:"approverId"`
	}
	if !decode(w, r, &req) {
		return
	}
	v, err := s.versions.Approve(r.Context(), r.PathValue("id"), req.ApproverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) handleRejectVersion(w http.ResponseWriter, r *http.Request) {
	v, err := s.versions.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("database unavailable"))
			return
		}
	}
	if s.cache != nil {
		if err := s.cache.HealthCheck(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("cache unavailable"))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

// writeError maps the service error taxonomy onto HTTP status codes.
// Provider, parse and schema failures surface as 502: the upstream model,
// not the caller, produced the bad data.
func writeError(w http.ResponseWriter, err error) {
	var verr *agents.ValidationError
	var serr *agents.SchemaError
	var perr *ai.ProviderError
	var parseErr *ai.ParseError

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.As(err, &serr), errors.As(err, &perr), errors.As(err, &parseErr):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}
