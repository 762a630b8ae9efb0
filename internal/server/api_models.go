package server

import "github.com/raysh454/devconsole/internal/console"

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Timestamp int64  `json:"timestamp" example:"1760870400000"`
}

// TailResponse is returned by GET /api/dev/console/tail.
type TailResponse struct {
	Logs []console.LogEntry `json:"logs"`
}

// MessageResponse is the body of every stub route.
type MessageResponse struct {
	Message string `json:"message" example:"TODO: implement secret creation."`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
