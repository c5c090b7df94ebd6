package handlers

import (
	"errors"
	"net/http"

	"github.com/epeers/repricer/internal/engine"
	"github.com/epeers/repricer/internal/models"
	"github.com/epeers/repricer/internal/services"
	"github.com/gin-gonic/gin"
)

// StrategyHandler handles strategy store endpoints
type StrategyHandler struct {
	strategySvc *services.StrategyService
}

// NewStrategyHandler creates a new StrategyHandler
func NewStrategyHandler(strategySvc *services.StrategyService) *StrategyHandler {
	return &StrategyHandler{strategySvc: strategySvc}
}

// List handles GET /strategies
// @Summary List stored pricing strategies
// @Produce json
// @Success 200 {object} models.ListStrategiesResponse
// @Router /strategies [get]
func (h *StrategyHandler) List(c *gin.Context) {
	strategies, active, err := h.strategySvc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.ListStrategiesResponse{
		Strategies: strategies,
		Active:     active,
	})
}

// Get handles GET /strategies/:name
// @Summary Get one strategy by name
// @Produce json
// @Param name path string true "strategy name"
// @Success 200 {object} models.Strategy
// @Failure 404 {object} models.ErrorResponse
// @Router /strategies/{name} [get]
func (h *StrategyHandler) Get(c *gin.Context) {
	strategy, err := h.strategySvc.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, services.ErrStrategyNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "strategy not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, strategy)
}

// Save handles POST /strategies
// @Summary Create or update a strategy
// @Accept json
// @Produce json
// @Param strategy body models.SaveStrategyRequest true "strategy"
// @Success 200 {object} models.Strategy
// @Failure 400 {object} models.ErrorResponse
// @Router /strategies [post]
func (h *StrategyHandler) Save(c *gin.Context) {
	var req models.SaveStrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	strategy, err := h.strategySvc.Save(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, strategy)
}

// Delete handles DELETE /strategies/:name
// @Summary Delete a strategy
// @Produce json
// @Param name path string true "strategy name"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /strategies/{name} [delete]
func (h *StrategyHandler) Delete(c *gin.Context) {
	err := h.strategySvc.Delete(c.Request.Context(), c.Param("name"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProtectedStrategy):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "bad_request",
				Message: err.Error(),
			})
		case errors.Is(err, services.ErrStrategyNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "strategy not found",
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "internal_error",
				Message: err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "strategy deleted"})
}

// Activate handles POST /strategies/:name/activate
// @Summary Make a strategy the batch default
// @Produce json
// @Param name path string true "strategy name"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /strategies/{name}/activate [post]
func (h *StrategyHandler) Activate(c *gin.Context) {
	name := c.Param("name")
	if err := h.strategySvc.Activate(c.Request.Context(), name); err != nil {
		if errors.Is(err, services.ErrStrategyNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "strategy not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Message: "strategy activated"})
}
