package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/edforge/edforge/internal/progress"
)

func TestWriteCourseAnalyticsXLSX(t *testing.T) {
	analytics := progress.CourseAnalytics{
		CourseID:              "course-1",
		EnrollmentCount:       12,
		ActiveStudents:        9,
		CompletionRate:        25,
		AverageProgress:       48,
		TotalTimeSpentSeconds: 86400,
		Lessons: []progress.LessonStat{
			{LessonID: "lesson-1", Title: "Basics", AverageTimeSpentSeconds: 1200},
			{LessonID: "lesson-2", Title: "Pointers", AverageTimeSpentSeconds: 2400},
		},
		Quizzes: []progress.QuizStat{
			{QuizID: "quiz-1", Title: "Basics Quiz", Attempts: 20, AverageScore: 74, PassRate: 55},
		},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	if err := WriteCourseAnalyticsXLSX(&buf, analytics); err != nil {
		t.Fatalf("WriteCourseAnalyticsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{summarySheet, lessonsSheet, quizzesSheet}
	if len(sheets) != len(want) {
		t.Fatalf("got sheets %v, want %v", sheets, want)
	}
	for i, name := range want {
		if sheets[i] != name {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], name)
		}
	}

	got, err := f.GetCellValue(summarySheet, "B3")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "12" {
		t.Errorf("enrollment cell = %q, want 12", got)
	}

	rows, err := f.GetRows(lessonsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d lesson rows, want header + 2", len(rows))
	}
	if rows[1][1] != "Basics" || rows[2][2] != "2400" {
		t.Errorf("unexpected lesson rows: %v", rows)
	}

	rows, err = f.GetRows(quizzesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "quiz-1" {
		t.Errorf("unexpected quiz rows: %v", rows)
	}
}
