package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/studyflow/studyflow/internal/domain/course"
	"github.com/studyflow/studyflow/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository for PostgreSQL. Course records
// are written by the import pipeline; the core only reads them.
type CourseRepository struct {
	q Querier
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(q Querier) *CourseRepository {
	return &CourseRepository{q: q}
}

// ListByUser returns the user's raw course records.
func (r *CourseRepository) ListByUser(ctx context.Context, userID shared.UserID) ([]course.Record, error) {
	query := `
		SELECT id, title, days, start_time, end_time, meeting_times
		FROM courses
		WHERE user_id = $1
		ORDER BY title
	`

	rows, err := r.q.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var records []course.Record
	for rows.Next() {
		var rec course.Record
		var daysJSON []byte

		err := rows.Scan(&rec.CourseID, &rec.Title, &daysJSON, &rec.StartTime, &rec.EndTime, &rec.MeetingTimes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}

		var days []int
		if err := json.Unmarshal(daysJSON, &days); err != nil {
			return nil, fmt.Errorf("failed to unmarshal course days: %w", err)
		}
		rec.Days = intsToWeekdays(days)
		records = append(records, rec)
	}
	return records, rows.Err()
}
