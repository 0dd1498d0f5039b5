package model

import "fmt"

// APIError is the unified error format returned to clients.
// Category tells the UI which failure family it is handling; Action is the
// user-facing remediation hint.
type APIError struct {
	Code     string // stable error code
	Message  string // human-readable message
	Category string // auth, validation, academic, defense, system
	Action   string // what the user can do about it
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Defined error codes.
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeInvalidResetToken  = "INVALID_RESET_TOKEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	ErrCodeUnknownRole        = "UNKNOWN_ROLE"
	ErrCodePeriodNotFound     = "PERIOD_NOT_FOUND"
	ErrCodeCareerNotFound     = "CAREER_NOT_FOUND"
	ErrCodeStudentNotFound    = "STUDENT_NOT_FOUND"
	ErrCodeProjectExists      = "PROJECT_EXISTS"
	ErrCodeWindowNotFound     = "WINDOW_NOT_FOUND"
	ErrCodeInvalidWindow      = "INVALID_WINDOW"
	ErrCodeSlotNotFound       = "SLOT_NOT_FOUND"
	ErrCodeSlotOutsideWindow  = "SLOT_OUTSIDE_WINDOW"
	ErrCodeSlotOverlap        = "SLOT_OVERLAP"
	ErrCodeSlotTaken          = "SLOT_TAKEN"
	ErrCodeAlreadyBooked      = "ALREADY_BOOKED"
	ErrCodeBookingNotFound    = "BOOKING_NOT_FOUND"
	ErrCodeInvalidScore       = "INVALID_SCORE"
	ErrCodePhotoFetchFailed   = "PHOTO_FETCH_FAILED"
	ErrCodePhotoBlocked       = "PHOTO_BLOCKED"
)

// NewUnauthorizedError builds the uniform 401 body.
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication is required.",
		Category: "auth",
		Action:   "Sign in and retry.",
	}
}

// NewForbiddenError builds the uniform 403 body.
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "Your roles do not grant access to this resource.",
		Category: "auth",
		Action:   "Use an account with the required role.",
	}
}

// NewInvalidCredentialsError is returned for any failed login attempt.
// It deliberately does not distinguish unknown users from wrong passwords.
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid username or password.",
		Category: "auth",
		Action:   "Check your credentials and try again.",
	}
}

// NewInvalidResetTokenError is returned when a reset token is unknown,
// expired or already consumed.
func NewInvalidResetTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidResetToken,
		Message:  "The password reset token is invalid or has expired.",
		Category: "auth",
		Action:   "Request a new password reset.",
	}
}

// NewUserNotFoundError reports a missing user.
func NewUserNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("User not found: %s", id),
		Category: "academic",
		Action:   "Check the user identifier.",
	}
}

// NewDuplicateUsernameError reports a username or email collision.
func NewDuplicateUsernameError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  fmt.Sprintf("Username or email already in use: %s", username),
		Category: "validation",
		Action:   "Pick a different username or email.",
	}
}

// NewUnknownRoleError flags a role outside the configured vocabulary.
func NewUnknownRoleError(r string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownRole,
		Message:  fmt.Sprintf("Unknown role: %s", r),
		Category: "validation",
		Action:   "Use one of the configured roles.",
	}
}

// NewStudentNotFoundError reports a missing student.
func NewStudentNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeStudentNotFound,
		Message:  fmt.Sprintf("Student not found: %s", id),
		Category: "academic",
		Action:   "Check the student identifier.",
	}
}

// NewProjectExistsError reports that the student already has an assigned
// project for the period.
func NewProjectExistsError(studentID string) *APIError {
	return &APIError{
		Code:     ErrCodeProjectExists,
		Message:  fmt.Sprintf("Student already has a project assigned this period: %s", studentID),
		Category: "academic",
		Action:   "Review the existing project assignment.",
	}
}

// NewInvalidWindowError reports a malformed defense window range.
func NewInvalidWindowError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidWindow,
		Message:  fmt.Sprintf("Invalid defense window: %s", reason),
		Category: "validation",
		Action:   "Check the window start and end times.",
	}
}

// NewSlotOutsideWindowError reports a slot not contained in its window.
func NewSlotOutsideWindowError() *APIError {
	return &APIError{
		Code:     ErrCodeSlotOutsideWindow,
		Message:  "The slot interval is not contained in the defense window.",
		Category: "validation",
		Action:   "Pick a slot inside the window's time range.",
	}
}

// NewSlotOverlapError reports that the slot overlaps another slot of the
// same jury member within the window.
func NewSlotOverlapError() *APIError {
	return &APIError{
		Code:     ErrCodeSlotOverlap,
		Message:  "The slot overlaps one of your existing slots in this window.",
		Category: "defense",
		Action:   "Pick a non-overlapping interval.",
	}
}

// NewSlotTakenError reports a booking conflict on an occupied slot.
func NewSlotTakenError(slotID string) *APIError {
	return &APIError{
		Code:     ErrCodeSlotTaken,
		Message:  fmt.Sprintf("Slot already booked: %s", slotID),
		Category: "defense",
		Action:   "Pick a different slot.",
	}
}

// NewAlreadyBookedError reports that the student already holds a booking in
// the window.
func NewAlreadyBookedError(studentID string) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyBooked,
		Message:  fmt.Sprintf("Student already holds a booking in this window: %s", studentID),
		Category: "defense",
		Action:   "Cancel the existing booking first.",
	}
}

// NewInvalidScoreError reports an evaluation score outside the allowed band.
func NewInvalidScoreError(score float64) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidScore,
		Message:  fmt.Sprintf("Score out of range: %.2f", score),
		Category: "validation",
		Action:   "Scores must be between 0 and 10.",
	}
}

// NewPhotoFetchFailedError reports a failed profile photo download.
func NewPhotoFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodePhotoFetchFailed,
		Message:  fmt.Sprintf("Could not fetch the profile photo: %s", reason),
		Category: "validation",
		Action:   "Check the photo URL and try again.",
	}
}

// NewPhotoBlockedError reports a photo URL rejected by the SSRF policy.
func NewPhotoBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodePhotoBlocked,
		Message:  "Access to the photo URL was blocked by security policy.",
		Category: "validation",
		Action:   "Use a publicly reachable image URL.",
	}
}
