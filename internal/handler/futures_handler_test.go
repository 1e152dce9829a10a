package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reporting-engine/pkg/config"
)

func TestFuturesHandlerConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFuturesHandler(config.FuturesConfig{
		APIURL:              "https://futures.example.org/api/predict",
		CollegePredictorURL: "https://futures.example.org",
	})

	c, w := newGinContext(http.MethodGet, "/futures/config", nil)
	handler.Config(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w).Data
	assert.Equal(t, "https://futures.example.org/api/predict", data["futures_api_url"])
	assert.Equal(t, "https://futures.example.org", data["college_predictor_url"])
}
