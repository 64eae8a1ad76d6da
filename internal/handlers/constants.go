package handlers

const (
	ErrInvalidJSON           = "Invalid JSON body"
	ErrUnauthorized          = "Unauthorized"
	ErrInternalServerError   = "Internal server error"
	ErrTooManyRequests       = "Too many requests"
	ErrStudentNotFound       = "Student not found"
	ErrInvalidRegistration   = "Invalid registration code"
	ErrInvalidCredentialsMsg = "Invalid credentials"

	// maxBodyBytes caps JSON request bodies
	maxBodyBytes = 1 << 20
)
