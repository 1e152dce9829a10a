package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reporting-engine/internal/dto"
	"github.com/noah-isme/reporting-engine/internal/middleware"
	"github.com/noah-isme/reporting-engine/pkg/config"
	"github.com/noah-isme/reporting-engine/pkg/response"
)

// FuturesHandler serves configuration for the college predictor page.
type FuturesHandler struct {
	payload dto.FuturesConfigResponse
}

// NewFuturesHandler constructs handler.
func NewFuturesHandler(cfg config.FuturesConfig) *FuturesHandler {
	return &FuturesHandler{payload: dto.FuturesConfigResponse{
		FuturesAPIURL:       cfg.APIURL,
		CollegePredictorURL: cfg.CollegePredictorURL,
	}}
}

// Config godoc
// @Summary College predictor configuration
// @Tags Futures
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /futures/config [get]
func (h *FuturesHandler) Config(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.payload, middleware.ExtractMeta(c))
}
