// Package export renders analytics rollups into downloadable workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/edforge/edforge/internal/progress"
)

const (
	summarySheet = "Summary"
	lessonsSheet = "Lesson Time"
	quizzesSheet = "Quiz Performance"
)

// WriteCourseAnalyticsXLSX renders the rollup as a three-sheet workbook:
// a summary, per-lesson time spent and per-quiz performance.
func WriteCourseAnalyticsXLSX(w io.Writer, a progress.CourseAnalytics) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), summarySheet)
	if err := writeSummary(f, a); err != nil {
		return err
	}
	if err := writeLessons(f, a); err != nil {
		return err
	}
	if err := writeQuizzes(f, a); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, a progress.CourseAnalytics) error {
	rows := [][]any{
		{"Course ID", a.CourseID},
		{"Generated At", a.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
		{"Enrollments", a.EnrollmentCount},
		{"Active Students", a.ActiveStudents},
		{"Completion Rate (%)", a.CompletionRate},
		{"Average Progress (%)", a.AverageProgress},
		{"Total Time Spent (s)", a.TotalTimeSpentSeconds},
	}
	return writeRows(f, summarySheet, rows)
}

func writeLessons(f *excelize.File, a progress.CourseAnalytics) error {
	if _, err := f.NewSheet(lessonsSheet); err != nil {
		return fmt.Errorf("add sheet %s: %w", lessonsSheet, err)
	}
	rows := [][]any{{"Lesson ID", "Title", "Avg Time Spent (s)"}}
	for _, l := range a.Lessons {
		rows = append(rows, []any{l.LessonID, l.Title, l.AverageTimeSpentSeconds})
	}
	return writeRows(f, lessonsSheet, rows)
}

func writeQuizzes(f *excelize.File, a progress.CourseAnalytics) error {
	if _, err := f.NewSheet(quizzesSheet); err != nil {
		return fmt.Errorf("add sheet %s: %w", quizzesSheet, err)
	}
	rows := [][]any{{"Quiz ID", "Title", "Attempts", "Average Score", "Pass Rate (%)"}}
	for _, q := range a.Quizzes {
		rows = append(rows, []any{q.QuizID, q.Title, q.Attempts, q.AverageScore, q.PassRate})
	}
	return writeRows(f, quizzesSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
