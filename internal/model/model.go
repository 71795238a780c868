// Package model holds the entities shared across the service packages.
package model

import "time"

// CourseStatus is the publication state of a course.
type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

// Course is a top-level container of modules owned by an instructor.
type Course struct {
	ID           string       `json:"id"`
	InstructorID string       `json:"instructorId"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       CourseStatus `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	PublishedAt  *time.Time   `json:"publishedAt,omitempty"`
}

// Module is an ordered group of lessons within a course.
type Module struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"orderIndex"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Lesson is a single unit of content within a module.
type Lesson struct {
	ID                       string    `json:"id"`
	ModuleID                 string    `json:"moduleId"`
	Title                    string    `json:"title"`
	Content                  string    `json:"content"`
	OrderIndex               int       `json:"orderIndex"`
	EstimatedDurationMinutes int       `json:"estimatedDurationMinutes"`
	ActiveVersionID          string    `json:"activeVersionId,omitempty"`
	CreatedAt                time.Time `json:"createdAt"`
	UpdatedAt                time.Time `json:"updatedAt"`
}

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// Enrollment links a learner to a course. Unique per (UserID, CourseID).
// ProgressPercentage and the completed status are recomputed from lesson
// progress, never set directly by callers.
type Enrollment struct {
	ID                 string           `json:"id"`
	UserID             string           `json:"userId"`
	CourseID           string           `json:"courseId"`
	Status             EnrollmentStatus `json:"status"`
	ProgressPercentage float64          `json:"progressPercentage"`
	EnrolledAt         time.Time        `json:"enrolledAt"`
	CompletedAt        *time.Time       `json:"completedAt,omitempty"`
}

// LessonProgressStatus is the per-lesson completion state.
type LessonProgressStatus string

const (
	LessonNotStarted LessonProgressStatus = "not_started"
	LessonInProgress LessonProgressStatus = "in_progress"
	LessonCompleted  LessonProgressStatus = "completed"
)

// LessonProgress is the upserted per-(enrollment, lesson) progress row.
// TimeSpentSeconds only ever grows; StartedAt and CompletedAt are stamped
// once, LastAccessedAt on every write.
type LessonProgress struct {
	ID               string               `json:"id"`
	EnrollmentID     string               `json:"enrollmentId"`
	LessonID         string               `json:"lessonId"`
	Status           LessonProgressStatus `json:"status"`
	TimeSpentSeconds int                  `json:"timeSpentSeconds"`
	StartedAt        *time.Time           `json:"startedAt,omitempty"`
	CompletedAt      *time.Time           `json:"completedAt,omitempty"`
	LastAccessedAt   time.Time            `json:"lastAccessedAt"`
}

// QuestionType distinguishes grading rules per question.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	ShortAnswer    QuestionType = "short_answer"
)

// QuizQuestion is embedded in Quiz.Questions; it is never persisted on its
// own. CorrectAnswer holds either a single string or a set of accepted
// strings (see Answer).
type QuizQuestion struct {
	ID            string       `json:"id"`
	Question      string       `json:"question"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer Answer       `json:"correctAnswer"`
	Explanation   string       `json:"explanation,omitempty"`
}

// Quiz carries its questions and a derived correctAnswers map. Grading
// consults the map, not the questions, so edits must re-derive it.
type Quiz struct {
	ID             string            `json:"id"`
	LessonID       string            `json:"lessonId"`
	Title          string            `json:"title"`
	Questions      []QuizQuestion    `json:"questions"`
	CorrectAnswers map[string]Answer `json:"correctAnswers"`
	PassingScore   int               `json:"passingScore"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// QuizAttempt is one immutable submission row. Retries create new rows.
type QuizAttempt struct {
	ID             string            `json:"id"`
	QuizID         string            `json:"quizId"`
	UserID         string            `json:"userId"`
	Answers        map[string]string `json:"answers"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"totalQuestions"`
	AttemptedAt    time.Time         `json:"attemptedAt"`
}

// ContentVersionStatus is the review state of a proposed content edit.
type ContentVersionStatus string

const (
	VersionPending  ContentVersionStatus = "pending"
	VersionApproved ContentVersionStatus = "approved"
	VersionRejected ContentVersionStatus = "rejected"
)

// ContentVersion is a proposed replacement for a lesson's content.
// VersionNumber is 1-based and strictly increasing per lesson.
type ContentVersion struct {
	ID                string               `json:"id"`
	LessonID          string               `json:"lessonId"`
	AuthorID          string               `json:"authorId"`
	VersionNumber     int                  `json:"versionNumber"`
	Content           string               `json:"content"`
	ChangeDescription string               `json:"changeDescription"`
	Status            ContentVersionStatus `json:"status"`
	AIMetadata        map[string]any       `json:"aiMetadata,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	ApprovedAt        *time.Time           `json:"approvedAt,omitempty"`
	ApprovedBy        string               `json:"approvedBy,omitempty"`
}
