package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/epeers/repricer/internal/models"
	"github.com/epeers/repricer/internal/services"
	"github.com/gin-gonic/gin"
)

// ProcessHandler handles batch pricing endpoints
type ProcessHandler struct {
	processSvc *services.ProcessService
}

// NewProcessHandler creates a new ProcessHandler
func NewProcessHandler(processSvc *services.ProcessService) *ProcessHandler {
	return &ProcessHandler{processSvc: processSvc}
}

// Process handles POST /process
// @Summary Reprice an uploaded inventory CSV
// @Description Runs every row of the uploaded file through the pricing engine using the named (or active) strategy
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "inventory CSV"
// @Param strategy formData string false "stored strategy name (defaults to the active strategy)"
// @Success 200 {object} models.ProcessResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /process [post]
func (h *ProcessHandler) Process(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "no file provided",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "failed to open uploaded file",
		})
		return
	}
	defer file.Close()

	records, rejected, err := ParseInventoryCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.processSvc.Run(c.Request.Context(), records, rejected, c.PostForm("strategy"))
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

	c.JSON(http.StatusOK, resp)
}

// Download handles POST /download
// @Summary Return a rendered CSV as a file attachment
// @Accept text/csv
// @Produce text/csv
// @Success 200 {string} string "csv"
// @Router /download [post]
func (h *ProcessHandler) Download(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "no CSV body provided",
		})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="pricing_results.csv"`)
	c.Data(http.StatusOK, "text/csv;charset=utf-8", body)
}
