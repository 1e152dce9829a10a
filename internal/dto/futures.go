package dto

// FuturesConfigResponse points the college predictor front end at its backends.
type FuturesConfigResponse struct {
	FuturesAPIURL       string `json:"futures_api_url"`
	CollegePredictorURL string `json:"college_predictor_url"`
}
