package handlers

import (
	"net/http"

	"github.com/Dosada05/handicap-system/services"
)

type CourseHandler struct {
	courseService services.CourseService
}

func NewCourseHandler(cs services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: cs}
}

// CreateCourse godoc
// @Summary  Create a course with its hole layout
// @Tags     courses
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    input body services.CreateCourseInput true "Course"
// @Success  201 {object} map[string]interface{}
// @Router   /courses [post]
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var input services.CreateCourseInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	course, err := h.courseService.CreateCourse(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"course": course}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetCourse godoc
// @Summary  Get a course
// @Tags     courses
// @Produce  json
// @Param    courseID path int true "Course ID"
// @Success  200 {object} map[string]interface{}
// @Router   /courses/{courseID} [get]
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID, err := getIDFromURL(r, "courseID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	course, err := h.courseService.GetCourse(r.Context(), courseID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"course": course}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
