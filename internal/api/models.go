package api

// ApiResponse is the envelope of every JSON response.
type ApiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type HealthResponse struct {
	Sequences int    `json:"sequences"`
	Uptime    string `json:"uptime"`
}
