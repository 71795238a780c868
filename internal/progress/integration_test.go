package progress_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/edforge/edforge/internal/course"
	"github.com/edforge/edforge/internal/model"
	"github.com/edforge/edforge/internal/platform/database"
	"github.com/edforge/edforge/internal/progress"
	"github.com/edforge/edforge/internal/version"
)

// startPostgres brings up a disposable Postgres with the schema from
// migrations/ applied, skipping when Docker is not available.
func startPostgres(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("edforge_test"),
		tcpostgres.WithUsername("edforge"),
		tcpostgres.WithPassword("edforge"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := database.New(ctx, url, 4, 1)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)

	schema, err := os.ReadFile("../../migrations/schema.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if err := db.ApplySchema(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func TestPostgresStores(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	courses, err := course.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("course store: %v", err)
	}
	store, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("progress store: %v", err)
	}
	versions, err := version.NewPostgresStore(db.Pool)
	if err != nil {
		t.Fatalf("version store: %v", err)
	}

	c, err := courses.CreateCourse(ctx, model.Course{InstructorID: "instructor-1", Title: "Go Basics"})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	m, err := courses.CreateModule(ctx, model.Module{CourseID: c.ID, Title: "M1", OrderIndex: 1})
	if err != nil {
		t.Fatalf("CreateModule: %v", err)
	}
	l, err := courses.CreateLesson(ctx, model.Lesson{ModuleID: m.ID, Title: "L1", Content: "body", OrderIndex: 1})
	if err != nil {
		t.Fatalf("CreateLesson: %v", err)
	}

	t.Run("duplicate enrollment maps to conflict", func(t *testing.T) {
		e, err := store.CreateEnrollment(ctx, model.Enrollment{
			UserID: "user-1", CourseID: c.ID, Status: model.EnrollmentActive,
		})
		if err != nil {
			t.Fatalf("CreateEnrollment: %v", err)
		}
		if e.ID == "" || e.EnrolledAt.IsZero() {
			t.Errorf("enrollment row not fully populated: %+v", e)
		}

		_, err = store.CreateEnrollment(ctx, model.Enrollment{
			UserID: "user-1", CourseID: c.ID, Status: model.EnrollmentActive,
		})
		if !errors.Is(err, model.ErrConflict) {
			t.Errorf("duplicate enrollment error = %v, want ErrConflict", err)
		}
	})

	t.Run("lesson progress upsert updates in place", func(t *testing.T) {
		e, err := store.CreateEnrollment(ctx, model.Enrollment{
			UserID: "user-2", CourseID: c.ID, Status: model.EnrollmentActive,
		})
		if err != nil {
			t.Fatalf("CreateEnrollment: %v", err)
		}

		now := time.Now()
		first, err := store.UpsertLessonProgress(ctx, model.LessonProgress{
			EnrollmentID: e.ID, LessonID: l.ID,
			Status: model.LessonInProgress, TimeSpentSeconds: 30,
			StartedAt: &now, LastAccessedAt: now,
		})
		if err != nil {
			t.Fatalf("first upsert: %v", err)
		}

		second, err := store.UpsertLessonProgress(ctx, model.LessonProgress{
			EnrollmentID: e.ID, LessonID: l.ID,
			Status: model.LessonCompleted, TimeSpentSeconds: 90,
			StartedAt: &now, CompletedAt: &now, LastAccessedAt: now,
		})
		if err != nil {
			t.Fatalf("second upsert: %v", err)
		}
		if second.ID != first.ID {
			t.Errorf("upsert created a new row: %s then %s", first.ID, second.ID)
		}

		rows, err := store.ListLessonProgress(ctx, e.ID)
		if err != nil {
			t.Fatalf("ListLessonProgress: %v", err)
		}
		if len(rows) != 1 {
			t.Fatalf("got %d progress rows, want 1", len(rows))
		}
		if rows[0].Status != model.LessonCompleted || rows[0].TimeSpentSeconds != 90 {
			t.Errorf("row = %+v, want completed with 90s", rows[0])
		}
	})

	t.Run("version numbers derive per lesson, listed newest first", func(t *testing.T) {
		v1, err := versions.CreateVersion(ctx, model.ContentVersion{
			LessonID: l.ID, AuthorID: "author-1", Content: "draft one", Status: model.VersionPending,
		})
		if err != nil {
			t.Fatalf("first CreateVersion: %v", err)
		}
		v2, err := versions.CreateVersion(ctx, model.ContentVersion{
			LessonID: l.ID, AuthorID: "author-1", Content: "draft two", Status: model.VersionPending,
		})
		if err != nil {
			t.Fatalf("second CreateVersion: %v", err)
		}
		if v1.VersionNumber != 1 || v2.VersionNumber != 2 {
			t.Errorf("version numbers = %d, %d, want 1, 2", v1.VersionNumber, v2.VersionNumber)
		}

		list, err := versions.ListVersionsByLesson(ctx, l.ID)
		if err != nil {
			t.Fatalf("ListVersionsByLesson: %v", err)
		}
		if len(list) != 2 || list[0].VersionNumber != 2 {
			t.Errorf("list = %+v, want newest first", list)
		}
	})
}
