package server

// ExtractSuccessResponse is returned by /extract-urls when the capture succeeds.
type ExtractSuccessResponse struct {
	Status string   `json:"status" example:"success"`
	Data   []string `json:"data" example:"https://open.dosm.gov.my/api/a,https://open.dosm.gov.my/api/b"`
}

// ExtractErrorResponse is returned by /extract-urls when the capture fails.
type ExtractErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message" example:"navigating to https://open.dosm.gov.my/: net::ERR_NAME_NOT_RESOLVED"`
}

// StartExtractJobRequest optionally overrides the site a job crawls.
type StartExtractJobRequest struct {
	Target string `json:"target" example:"https://open.dosm.gov.my/"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ErrorResponse is a uniform error payload returned by the API outside /extract-urls.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
