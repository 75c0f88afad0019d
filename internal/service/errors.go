package service

type ErrorCode string

const (
	ErrorCodeTeamExists        ErrorCode = "TEAM_EXISTS"
	ErrorCodeProjectExists     ErrorCode = "PROJECT_EXISTS"
	ErrorCodeAlreadyMember     ErrorCode = "ALREADY_MEMBER"
	ErrorCodeInvalidRole       ErrorCode = "INVALID_ROLE"
	ErrorCodeInvalidPolicy     ErrorCode = "INVALID_POLICY"
	ErrorCodeEmailRequired     ErrorCode = "EMAIL_REQUIRED"
	ErrorCodeCannotRemoveOwner ErrorCode = "CANNOT_REMOVE_OWNER"
	ErrorCodeCannotRemoveSelf  ErrorCode = "CANNOT_REMOVE_SELF"
	ErrorCodePermissionDenied  ErrorCode = "PERMISSION_DENIED"
	ErrorCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrorCodeInvalidBody       ErrorCode = "INVALID_BODY"
	ErrorCodeUnspecified       ErrorCode = "UNSPECIFIED"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}
