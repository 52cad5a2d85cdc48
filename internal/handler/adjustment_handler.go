package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nile-sports/academy-api/internal/service"
	appErrors "github.com/nile-sports/academy-api/pkg/errors"
	"github.com/nile-sports/academy-api/pkg/response"
)

// AdjustmentHandler wires payroll adjustments to HTTP routes.
type AdjustmentHandler struct {
	adjustments *service.AdjustmentService
}

// NewAdjustmentHandler constructs a new AdjustmentHandler.
func NewAdjustmentHandler(adjustments *service.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{adjustments: adjustments}
}

// List godoc
// @Summary List adjustments
// @Tags Adjustments
// @Produce json
// @Param month query string true "Payroll month (YYYY-MM)"
// @Param coach_id query string false "Filter by coach"
// @Success 200 {object} response.Envelope
// @Router /adjustments [get]
func (h *AdjustmentHandler) List(c *gin.Context) {
	adjustments, err := h.adjustments.List(c.Request.Context(), c.Query("month"), c.Query("coach_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, adjustments, nil)
}

// Create godoc
// @Summary Create adjustment
// @Tags Adjustments
// @Accept json
// @Produce json
// @Param payload body service.CreateAdjustmentRequest true "Adjustment payload"
// @Success 201 {object} response.Envelope
// @Router /adjustments [post]
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req service.CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid adjustment payload"))
		return
	}
	adjustment, err := h.adjustments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, adjustment)
}

// Update godoc
// @Summary Update adjustment
// @Tags Adjustments
// @Accept json
// @Produce json
// @Param id path string true "Adjustment ID"
// @Param payload body service.UpdateAdjustmentRequest true "Adjustment payload"
// @Success 200 {object} response.Envelope
// @Router /adjustments/{id} [put]
func (h *AdjustmentHandler) Update(c *gin.Context) {
	var req service.UpdateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid adjustment payload"))
		return
	}
	adjustment, err := h.adjustments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, adjustment, nil)
}

// Delete godoc
// @Summary Delete adjustment
// @Tags Adjustments
// @Param id path string true "Adjustment ID"
// @Success 204
// @Router /adjustments/{id} [delete]
func (h *AdjustmentHandler) Delete(c *gin.Context) {
	if err := h.adjustments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
