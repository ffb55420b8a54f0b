package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/handicap-system/models"
	"github.com/Dosada05/handicap-system/repositories"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	minSlope        = 55
	maxSlope        = 155
	defaultFenceM   = 1000.0
	maxCourseHoles  = 18
	minCourseHoles  = 9
	minCourseRating = 55
	maxCourseRating = 90
)

type CreateCourseInput struct {
	Name                 string          `json:"name" validate:"required,max=200"`
	Latitude             float64         `json:"latitude" validate:"latitude"`
	Longitude            float64         `json:"longitude" validate:"longitude"`
	GeofenceRadiusMeters float64         `json:"geofence_radius_meters" validate:"gte=0"`
	CourseRating         decimal.Decimal `json:"course_rating"`
	SlopeRating          int             `json:"slope_rating"`
	Holes                []HoleInput     `json:"holes" validate:"dive"`
}

type HoleInput struct {
	Number      int `json:"number" validate:"min=1,max=18"`
	Par         int `json:"par" validate:"min=3,max=5"`
	StrokeIndex int `json:"stroke_index" validate:"min=1,max=18"`
}

type CourseService interface {
	CreateCourse(ctx context.Context, input CreateCourseInput) (*models.Course, error)
	GetCourse(ctx context.Context, id int) (*models.Course, error)
}

type courseService struct {
	db         *sql.DB
	courseRepo repositories.CourseRepository
	logger     *logrus.Logger
}

func NewCourseService(db *sql.DB, courseRepo repositories.CourseRepository, logger *logrus.Logger) CourseService {
	return &courseService{
		db:         db,
		courseRepo: courseRepo,
		logger:     logger,
	}
}

func (s *courseService) CreateCourse(ctx context.Context, input CreateCourseInput) (*models.Course, error) {
	if err := validateCourseInput(input); err != nil {
		return nil, err
	}

	radius := input.GeofenceRadiusMeters
	if radius == 0 {
		radius = defaultFenceM
	}
	course := &models.Course{
		Name:                 strings.TrimSpace(input.Name),
		Latitude:             input.Latitude,
		Longitude:            input.Longitude,
		GeofenceRadiusMeters: radius,
		CourseRating:         input.CourseRating,
		SlopeRating:          input.SlopeRating,
	}
	for _, h := range input.Holes {
		course.Holes = append(course.Holes, models.Hole{Number: h.Number, Par: h.Par, StrokeIndex: h.StrokeIndex})
	}

	err := withTx(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		return s.courseRepo.Create(ctx, tx, course)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrCourseHoleConflict):
			return nil, fmt.Errorf("%w: %v", ErrCourseHolesInvalid, err)
		case errors.Is(err, repositories.ErrCourseRatingsInvalid):
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"course_id": course.ID, "holes": len(course.Holes)}).Info("course created")
	return course, nil
}

func (s *courseService) GetCourse(ctx context.Context, id int) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// validateCourseInput requires a 9 or 18 hole layout with numbers 1..n and
// each stroke index used exactly once.
func validateCourseInput(input CreateCourseInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if input.SlopeRating < minSlope || input.SlopeRating > maxSlope {
		return fmt.Errorf("%w: slope rating must be between %d and %d", ErrValidationFailed, minSlope, maxSlope)
	}
	if input.CourseRating.LessThan(decimal.NewFromInt(minCourseRating)) || input.CourseRating.GreaterThan(decimal.NewFromInt(maxCourseRating)) {
		return fmt.Errorf("%w: course rating must be between %d and %d", ErrValidationFailed, minCourseRating, maxCourseRating)
	}

	n := len(input.Holes)
	if n != minCourseHoles && n != maxCourseHoles {
		return fmt.Errorf("%w: expected %d or %d holes, got %d", ErrCourseHolesInvalid, minCourseHoles, maxCourseHoles, n)
	}
	numbers := make(map[int]bool, n)
	indices := make(map[int]bool, n)
	for _, h := range input.Holes {
		if h.Par < 3 || h.Par > 5 {
			return fmt.Errorf("%w: hole %d has par %d", ErrCourseHolesInvalid, h.Number, h.Par)
		}
		if h.Number < 1 || h.Number > n || numbers[h.Number] {
			return fmt.Errorf("%w: bad or repeated hole number %d", ErrCourseHolesInvalid, h.Number)
		}
		if h.StrokeIndex < 1 || h.StrokeIndex > n || indices[h.StrokeIndex] {
			return fmt.Errorf("%w: bad or repeated stroke index %d", ErrCourseHolesInvalid, h.StrokeIndex)
		}
		numbers[h.Number] = true
		indices[h.StrokeIndex] = true
	}
	return nil
}
