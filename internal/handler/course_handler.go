package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nile-sports/academy-api/internal/models"
	"github.com/nile-sports/academy-api/internal/service"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
	"github.com/nile-sports/academy-api/pkg/response"
)

// CourseHandler wires course and rate management to HTTP routes.
type CourseHandler struct {
	courses *service.CourseService
	rates   *service.RateService
}

// NewCourseHandler constructs a new CourseHandler.
func NewCourseHandler(courses *service.CourseService, rates *service.RateService) *CourseHandler {
	return &CourseHandler{courses: courses, rates: rates}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param search query string false "Search by name"
// @Param status query string false "Filter by status (active/archived)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if status := strings.ToLower(c.Query("status")); status != "" {
		val := models.CourseStatus(status)
		filter.Status = &val
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Archive godoc
// @Summary Archive course
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Archive(c *gin.Context) {
	if err := h.courses.Archive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetRate godoc
// @Summary Set a coach's rate for a course
// @Tags Rates
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param coachId path string true "Coach ID"
// @Param payload body service.CreateRateRequest true "Rate payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/coaches/{coachId}/rates [post]
func (h *CourseHandler) SetRate(c *gin.Context) {
	var req service.CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rate payload"))
		return
	}
	req.CourseID = c.Param("id")
	req.CoachID = c.Param("coachId")

	rate, err := h.rates.SetRate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rate)
}

// ListRates godoc
// @Summary List rates configured for a course
// @Tags Rates
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/rates [get]
func (h *CourseHandler) ListRates(c *gin.Context) {
	rates, err := h.rates.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rates, nil)
}

// ListCoachRates godoc
// @Summary List one coach's rate history for a course
// @Tags Rates
// @Produce json
// @Param id path string true "Course ID"
// @Param coachId path string true "Coach ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/coaches/{coachId}/rates [get]
func (h *CourseHandler) ListCoachRates(c *gin.Context) {
	rates, err := h.rates.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	coachID := c.Param("coachId")
	filtered := make([]models.CoachCourseRate, 0, len(rates))
	for _, r := range rates {
		if r.CoachID == coachID {
			filtered = append(filtered, r)
		}
	}
	response.JSON(c, http.StatusOK, filtered, nil)
}
