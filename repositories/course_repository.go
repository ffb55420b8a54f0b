package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/handicap-system/models"
)

var (
	ErrCourseNotFound       = errors.New("course not found")
	ErrCourseHoleConflict   = errors.New("course hole number or stroke index conflict")
	ErrCourseRatingsInvalid = errors.New("course ratings out of range")
)

type CourseRepository interface {
	Create(ctx context.Context, exec SQLExecutor, course *models.Course) error
	GetByID(ctx context.Context, id int) (*models.Course, error)
}

type postgresCourseRepository struct {
	db *sql.DB
}

func NewPostgresCourseRepository(db *sql.DB) CourseRepository {
	return &postgresCourseRepository{db: db}
}

// Create inserts the course and its holes. Callers pass a transaction so a
// bad hole leaves no half-built course behind.
func (r *postgresCourseRepository) Create(ctx context.Context, exec SQLExecutor, course *models.Course) error {
	executor := pickExecutor(r.db, exec)
	query := `
		INSERT INTO courses (name, latitude, longitude, geofence_radius_meters, course_rating, slope_rating)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		course.Name,
		course.Latitude,
		course.Longitude,
		course.GeofenceRadiusMeters,
		course.CourseRating,
		course.SlopeRating,
	).Scan(&course.ID, &course.CreatedAt)
	if err != nil {
		if _, ok := pqConstraint(err, pgCheckViolation); ok {
			return ErrCourseRatingsInvalid
		}
		return fmt.Errorf("failed to create course: %w", err)
	}

	holeQuery := `
		INSERT INTO holes (course_id, number, par, stroke_index)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	for i := range course.Holes {
		h := &course.Holes[i]
		h.CourseID = course.ID
		if err := executor.QueryRowContext(ctx, holeQuery, h.CourseID, h.Number, h.Par, h.StrokeIndex).Scan(&h.ID); err != nil {
			if _, ok := pqConstraint(err, pgUniqueViolation); ok {
				return ErrCourseHoleConflict
			}
			return fmt.Errorf("failed to create hole %d: %w", h.Number, err)
		}
	}
	return nil
}

func (r *postgresCourseRepository) GetByID(ctx context.Context, id int) (*models.Course, error) {
	query := `
		SELECT id, name, latitude, longitude, geofence_radius_meters, course_rating, slope_rating, created_at
		FROM courses
		WHERE id = $1`

	var c models.Course
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Latitude,
		&c.Longitude,
		&c.GeofenceRadiusMeters,
		&c.CourseRating,
		&c.SlopeRating,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course %d: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, number, par, stroke_index
		FROM holes
		WHERE course_id = $1
		ORDER BY number`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list holes for course %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var h models.Hole
		if err := rows.Scan(&h.ID, &h.CourseID, &h.Number, &h.Par, &h.StrokeIndex); err != nil {
			return nil, fmt.Errorf("failed to scan hole: %w", err)
		}
		c.Holes = append(c.Holes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holes: %w", err)
	}
	return &c, nil
}
