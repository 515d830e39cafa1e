package gateway

// Locals keys used to hand authenticated identity from the upgrade guard to
// the WebSocket handler.
const (
	localClaims   = "claims"
	localCourseID = "courseID"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RegisterPayload is the request body for user registration.
type RegisterPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload is the request body for user login.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshPayload is the request body for token refresh.
type RefreshPayload struct {
	RefreshToken string `json:"refresh_token"`
}

// CreateCoursePayload is the request body for course creation.
type CreateCoursePayload struct {
	Title    string `json:"title"`
	Overview string `json:"overview"`
}
