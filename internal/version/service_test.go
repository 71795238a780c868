package version

import (
	"context"
	"errors"
	"testing"

	"github.com/edforge/edforge/internal/course"
	"github.com/edforge/edforge/internal/model"
)

func newLesson(t *testing.T, courses *course.MemoryStore) model.Lesson {
	t.Helper()
	ctx := context.Background()

	c, err := courses.CreateCourse(ctx, model.Course{InstructorID: "instructor-1", Title: "Go Basics", Status: model.CourseDraft})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	m, err := courses.CreateModule(ctx, model.Module{CourseID: c.ID, Title: "Module 1", OrderIndex: 1})
	if err != nil {
		t.Fatalf("CreateModule: %v", err)
	}
	l, err := courses.CreateLesson(ctx, model.Lesson{ModuleID: m.ID, Title: "Intro", Content: "original", OrderIndex: 1})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}
	return l
}

func TestCreate_VersionNumbersIncrease(t *testing.T) {
	ctx := context.Background()
	courses := course.NewMemoryStore()
	svc := NewService(NewMemoryStore(), courses)
	lesson := newLesson(t, courses)

	v1, err := svc.Create(ctx, lesson.ID, "author-1", "draft one", "first pass", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v1.VersionNumber != 1 {
		t.Errorf("first version number = %d, want 1", v1.VersionNumber)
	}
	if v1.Status != model.VersionPending {
		t.Errorf("status = %q, want pending", v1.Status)
	}

	v2, err := svc.Create(ctx, lesson.ID, "author-1", "draft two", "second pass", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if v2.VersionNumber != 2 {
		t.Errorf("second version number = %d, want 2", v2.VersionNumber)
	}

	listed, err := svc.ListByLesson(ctx, lesson.ID)
	if err != nil {
		t.Fatalf("ListByLesson: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != v2.ID {
		t.Errorf("expected newest version first, got %+v", listed)
	}
}

func TestCreate_UnknownLesson(t *testing.T) {
	svc := NewService(NewMemoryStore(), course.NewMemoryStore())

	_, err := svc.Create(context.Background(), "missing", "author-1", "content", "", nil)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestApprove_PromotesContent(t *testing.T) {
	ctx := context.Background()
	courses := course.NewMemoryStore()
	svc := NewService(NewMemoryStore(), courses)
	lesson := newLesson(t, courses)

	if _, err := svc.Create(ctx, lesson.ID, "author-1", "draft one", "", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	v2, err := svc.Create(ctx, lesson.ID, "author-1", "draft two", "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	approved, err := svc.Approve(ctx, v2.ID, "reviewer-1")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != model.VersionApproved {
		t.Errorf("status = %q, want approved", approved.Status)
	}
	if approved.ApprovedAt == nil {
		t.Error("ApprovedAt not stamped")
	}
	if approved.ApprovedBy != "reviewer-1" {
		t.Errorf("ApprovedBy = %q, want reviewer-1", approved.ApprovedBy)
	}

	got, err := courses.GetLesson(ctx, lesson.ID)
	if err != nil {
		t.Fatalf("GetLesson: %v", err)
	}
	if got.Content != "draft two" {
		t.Errorf("lesson content = %q, want promoted draft two", got.Content)
	}
	if got.ActiveVersionID != v2.ID {
		t.Errorf("lesson activeVersionId = %q, want %q", got.ActiveVersionID, v2.ID)
	}
}

func TestApprove_TerminalVersion(t *testing.T) {
	ctx := context.Background()
	courses := course.NewMemoryStore()
	svc := NewService(NewMemoryStore(), courses)
	lesson := newLesson(t, courses)

	v, err := svc.Create(ctx, lesson.ID, "author-1", "draft", "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Approve(ctx, v.ID, "reviewer-1"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	if _, err := svc.Approve(ctx, v.ID, "reviewer-1"); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("second approve err = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Reject(ctx, v.ID); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("reject after approve err = %v, want ErrInvalidState", err)
	}
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	courses := course.NewMemoryStore()
	svc := NewService(NewMemoryStore(), courses)
	lesson := newLesson(t, courses)

	v, err := svc.Create(ctx, lesson.ID, "author-1", "draft", "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rejected, err := svc.Reject(ctx, v.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != model.VersionRejected {
		t.Errorf("status = %q, want rejected", rejected.Status)
	}

	got, err := courses.GetLesson(ctx, lesson.ID)
	if err != nil {
		t.Fatalf("GetLesson: %v", err)
	}
	if got.Content != "original" {
		t.Errorf("lesson content = %q, want untouched original", got.Content)
	}
	if got.ActiveVersionID != "" {
		t.Errorf("lesson activeVersionId = %q, want empty", got.ActiveVersionID)
	}
}
