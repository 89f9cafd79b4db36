package auth

// Error is an authentication failure with a stable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches auth errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeWeakPassword       = "weak_password"
	CodeInvalidEmail       = "invalid_email"
	CodeUserAlreadyExists  = "user_already_exists"
	CodeInvalidToken       = "invalid_token"
	CodeSessionExpired     = "session_expired"
	CodeSessionMissing     = "session_missing"
)

var (
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "Invalid login credentials"}
	ErrWeakPassword       = &Error{Code: CodeWeakPassword, Message: "Password should be at least 6 characters"}
	ErrInvalidEmail       = &Error{Code: CodeInvalidEmail, Message: "Unable to validate email address: invalid format"}
	ErrUserAlreadyExists  = &Error{Code: CodeUserAlreadyExists, Message: "User already registered"}
	ErrInvalidToken       = &Error{Code: CodeInvalidToken, Message: "Invalid token"}
	ErrSessionExpired     = &Error{Code: CodeSessionExpired, Message: "Session expired"}
	ErrSessionMissing     = &Error{Code: CodeSessionMissing, Message: "Auth session missing"}
)
