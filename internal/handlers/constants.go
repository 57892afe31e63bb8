package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Administrator access required"
	ErrInvalidCSRF         = "Invalid or missing CSRF token"
	ErrTooManyRequests     = "Too many requests, try again later"
	ErrInternalServerError = "Internal server error"
	ErrConfirmRequired     = "This action cannot be undone. Repeat the request with confirm=true."
)
