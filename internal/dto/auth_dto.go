package dto

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type NoteRequest struct {
	Token string `json:"token" form:"token"`
	Text  string `json:"text" form:"text"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// Identity is the minimal user projection returned by a session check.
type Identity struct {
	Email string `json:"email"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// APIError is the uniform error body: {"status": <HTTP code>, "message": ...}.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
