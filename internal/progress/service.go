package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edforge/edforge/internal/course"
	"github.com/edforge/edforge/internal/model"
	"github.com/edforge/edforge/internal/platform/cache"
	"github.com/edforge/edforge/internal/quiz"
)

// analyticsTTL bounds how stale a cached course analytics rollup may be.
const analyticsTTL = 2 * time.Minute

// Service wires enrollment and progress tracking to course content and
// quiz attempts. Cache may be nil; analytics then recompute on every call.
type Service struct {
	store   Store
	courses course.Store
	quizzes quiz.Store
	cache   *cache.Cache
}

// NewService creates a progress service. cache is optional.
func NewService(store Store, courses course.Store, quizzes quiz.Store, c *cache.Cache) *Service {
	return &Service{store: store, courses: courses, quizzes: quizzes, cache: c}
}

// Enroll creates an active enrollment for a user in an existing course.
// A second enrollment for the same (user, course) pair fails with
// model.ErrConflict.
func (s *Service) Enroll(ctx context.Context, userID, courseID string) (model.Enrollment, error) {
	if _, err := s.courses.GetCourse(ctx, courseID); err != nil {
		return model.Enrollment{}, err
	}
	e, err := s.store.CreateEnrollment(ctx, model.Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   model.EnrollmentActive,
	})
	if err != nil {
		return model.Enrollment{}, err
	}
	slog.Info("user enrolled", "user_id", userID, "course_id", courseID, "enrollment_id", e.ID)
	return e, nil
}

// FindEnrollment looks up the enrollment for a user in a course, or
// model.ErrNotFound when the user is not enrolled.
func (s *Service) FindEnrollment(ctx context.Context, userID, courseID string) (model.Enrollment, error) {
	return s.store.FindEnrollment(ctx, userID, courseID)
}

// UpdateLessonProgress upserts the per-lesson progress row and recomputes
// the enrollment percentage. StartedAt is stamped on the first in_progress
// update and CompletedAt on the first completed update, each at most once;
// a lesson completed without ever being in progress keeps a nil StartedAt.
// timeSpentSeconds is added to the accumulated value, never replaced;
// LastAccessedAt is stamped on every call.
func (s *Service) UpdateLessonProgress(ctx context.Context, enrollmentID, lessonID string, status model.LessonProgressStatus, timeSpentSeconds int) (model.LessonProgress, error) {
	enrollment, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return model.LessonProgress{}, err
	}
	if _, err := s.courses.GetLesson(ctx, lessonID); err != nil {
		return model.LessonProgress{}, err
	}

	now := time.Now().UTC()
	lp, err := s.store.GetLessonProgress(ctx, enrollmentID, lessonID)
	if err != nil {
		// Only a missing row means "first visit"; any other store failure
		// must not restart the accumulated time.
		if !errors.Is(err, model.ErrNotFound) {
			return model.LessonProgress{}, err
		}
		lp = model.LessonProgress{
			EnrollmentID: enrollmentID,
			LessonID:     lessonID,
			Status:       model.LessonNotStarted,
		}
	}

	lp.Status = status
	lp.TimeSpentSeconds += timeSpentSeconds
	lp.LastAccessedAt = now
	if status == model.LessonInProgress && lp.StartedAt == nil {
		lp.StartedAt = &now
	}
	if status == model.LessonCompleted && lp.CompletedAt == nil {
		lp.CompletedAt = &now
	}

	lp, err = s.store.UpsertLessonProgress(ctx, lp)
	if err != nil {
		return model.LessonProgress{}, err
	}

	if err := s.recomputeEnrollment(ctx, enrollment, now); err != nil {
		return model.LessonProgress{}, err
	}
	return lp, nil
}

// recomputeEnrollment recalculates the progress percentage over the lesson
// progress rows that exist for the enrollment. The denominator is the count
// of visited lessons, not the course's true lesson total, so the percentage
// undercounts until every lesson has been opened once. At 100 the enrollment
// flips to completed with CompletedAt stamped once.
func (s *Service) recomputeEnrollment(ctx context.Context, e model.Enrollment, now time.Time) error {
	rows, err := s.store.ListLessonProgress(ctx, e.ID)
	if err != nil {
		return err
	}
	completed := 0
	for _, lp := range rows {
		if lp.Status == model.LessonCompleted {
			completed++
		}
	}
	if len(rows) == 0 {
		return nil
	}
	e.ProgressPercentage = float64(completed) / float64(len(rows)) * 100
	if e.ProgressPercentage >= 100 && e.Status == model.EnrollmentActive {
		e.Status = model.EnrollmentCompleted
		if e.CompletedAt == nil {
			e.CompletedAt = &now
		}
		slog.Info("enrollment completed", "enrollment_id", e.ID, "user_id", e.UserID)
	}
	return s.store.UpdateEnrollment(ctx, e)
}

// EnrollmentProgress is the per-enrollment rollup: completed versus total
// lessons, the raw progress rows and the learner's quiz attempts across
// the course.
type EnrollmentProgress struct {
	Enrollment       model.Enrollment       `json:"enrollment"`
	CompletedLessons int                    `json:"completedLessons"`
	TotalLessons     int                    `json:"totalLessons"`
	Lessons          []model.LessonProgress `json:"lessonsProgress"`
	QuizAttempts     []model.QuizAttempt    `json:"quizAttempts"`
}

// GetEnrollmentProgress assembles the rollup for one enrollment.
// TotalLessons here is the course's true lesson count, unlike the
// percentage denominator.
func (s *Service) GetEnrollmentProgress(ctx context.Context, enrollmentID string) (EnrollmentProgress, error) {
	e, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return EnrollmentProgress{}, err
	}
	rows, err := s.store.ListLessonProgress(ctx, e.ID)
	if err != nil {
		return EnrollmentProgress{}, err
	}

	lessons, err := s.courseLessons(ctx, e.CourseID)
	if err != nil {
		return EnrollmentProgress{}, err
	}

	completed := 0
	for _, lp := range rows {
		if lp.Status == model.LessonCompleted {
			completed++
		}
	}

	var attempts []model.QuizAttempt
	for _, l := range lessons {
		quizzes, err := s.quizzes.ListQuizzesByLesson(ctx, l.ID)
		if err != nil {
			return EnrollmentProgress{}, err
		}
		for _, q := range quizzes {
			qa, err := s.quizzes.ListAttemptsByUser(ctx, q.ID, e.UserID)
			if err != nil {
				return EnrollmentProgress{}, err
			}
			attempts = append(attempts, qa...)
		}
	}

	return EnrollmentProgress{
		Enrollment:       e,
		CompletedLessons: completed,
		TotalLessons:     len(lessons),
		Lessons:          rows,
		QuizAttempts:     attempts,
	}, nil
}

// LessonStat is the per-lesson slice of a course analytics rollup.
type LessonStat struct {
	LessonID                string `json:"lessonId"`
	Title                   string `json:"title"`
	AverageTimeSpentSeconds int    `json:"averageTimeSpentSeconds"`
}

// QuizStat is the per-quiz slice of a course analytics rollup.
type QuizStat struct {
	QuizID       string `json:"quizId"`
	Title        string `json:"title"`
	Attempts     int    `json:"attempts"`
	AverageScore int    `json:"averageScore"`
	PassRate     int    `json:"passRate"`
}

// CourseAnalytics is the instructor-facing rollup for one course. All
// percentages and averages are rounded to the nearest integer.
type CourseAnalytics struct {
	CourseID              string       `json:"courseId"`
	EnrollmentCount       int          `json:"enrollmentCount"`
	ActiveStudents        int          `json:"activeStudents"`
	CompletionRate        int          `json:"completionRate"`
	AverageProgress       int          `json:"averageProgress"`
	TotalTimeSpentSeconds int          `json:"totalTimeSpentSeconds"`
	Lessons               []LessonStat `json:"lessons"`
	Quizzes               []QuizStat   `json:"quizzes"`
	GeneratedAt           time.Time    `json:"generatedAt"`
}

// GetCourseAnalytics computes the rollup, reading through the cache when
// one is configured. Per-lesson and per-quiz stats are gathered
// concurrently.
func (s *Service) GetCourseAnalytics(ctx context.Context, courseID string) (CourseAnalytics, error) {
	key := "analytics:course:" + courseID
	if s.cache != nil {
		var cached CourseAnalytics
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			slog.Warn("analytics cache read failed", "course_id", courseID, "error", err)
		} else if hit {
			return cached, nil
		}
	}

	if _, err := s.courses.GetCourse(ctx, courseID); err != nil {
		return CourseAnalytics{}, err
	}

	enrollments, err := s.store.ListEnrollmentsByCourse(ctx, courseID)
	if err != nil {
		return CourseAnalytics{}, err
	}
	lessons, err := s.courseLessons(ctx, courseID)
	if err != nil {
		return CourseAnalytics{}, err
	}

	analytics := CourseAnalytics{
		CourseID:        courseID,
		EnrollmentCount: len(enrollments),
		GeneratedAt:     time.Now().UTC(),
	}

	completedCount := 0
	progressSum := 0.0
	for _, e := range enrollments {
		if e.Status == model.EnrollmentActive {
			analytics.ActiveStudents++
		}
		if e.Status == model.EnrollmentCompleted {
			completedCount++
		}
		progressSum += e.ProgressPercentage
	}
	if len(enrollments) > 0 {
		analytics.CompletionRate = roundPercent(float64(completedCount) / float64(len(enrollments)) * 100)
		analytics.AverageProgress = roundPercent(progressSum / float64(len(enrollments)))
	}

	lessonStats := make([]LessonStat, len(lessons))
	quizStatsPerLesson := make([][]QuizStat, len(lessons))
	var totalSeconds int64

	g, gctx := errgroup.WithContext(ctx)
	for i, l := range lessons {
		g.Go(func() error {
			stat, seconds, err := s.lessonStat(gctx, l)
			if err != nil {
				return err
			}
			lessonStats[i] = stat
			atomic.AddInt64(&totalSeconds, seconds)
			return nil
		})
		g.Go(func() error {
			stats, err := s.quizStats(gctx, l.ID)
			if err != nil {
				return err
			}
			quizStatsPerLesson[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CourseAnalytics{}, fmt.Errorf("course analytics for %s: %w", courseID, err)
	}

	analytics.Lessons = lessonStats
	analytics.TotalTimeSpentSeconds = int(totalSeconds)
	for _, stats := range quizStatsPerLesson {
		analytics.Quizzes = append(analytics.Quizzes, stats...)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, analytics, analyticsTTL); err != nil {
			slog.Warn("analytics cache write failed", "course_id", courseID, "error", err)
		}
	}
	return analytics, nil
}

func (s *Service) lessonStat(ctx context.Context, l model.Lesson) (LessonStat, int64, error) {
	rows, err := s.store.ListLessonProgressByLesson(ctx, l.ID)
	if err != nil {
		return LessonStat{}, 0, err
	}
	var sum int64
	for _, lp := range rows {
		sum += int64(lp.TimeSpentSeconds)
	}
	stat := LessonStat{LessonID: l.ID, Title: l.Title}
	if len(rows) > 0 {
		stat.AverageTimeSpentSeconds = roundPercent(float64(sum) / float64(len(rows)))
	}
	return stat, sum, nil
}

func (s *Service) quizStats(ctx context.Context, lessonID string) ([]QuizStat, error) {
	quizzes, err := s.quizzes.ListQuizzesByLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	var out []QuizStat
	for _, q := range quizzes {
		attempts, err := s.quizzes.ListAttemptsByQuiz(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		stat := QuizStat{QuizID: q.ID, Title: q.Title, Attempts: len(attempts)}
		if len(attempts) > 0 {
			scoreSum := 0
			passed := 0
			for _, a := range attempts {
				scoreSum += a.Score
				if a.Score >= q.PassingScore {
					passed++
				}
			}
			stat.AverageScore = roundPercent(float64(scoreSum) / float64(len(attempts)))
			stat.PassRate = roundPercent(float64(passed) / float64(len(attempts)) * 100)
		}
		out = append(out, stat)
	}
	return out, nil
}

func (s *Service) courseLessons(ctx context.Context, courseID string) ([]model.Lesson, error) {
	modules, err := s.courses.ListModulesByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	var lessons []model.Lesson
	for _, m := range modules {
		ls, err := s.courses.ListLessonsByModule(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, ls...)
	}
	return lessons, nil
}

func roundPercent(v float64) int {
	return int(math.Round(v))
}
