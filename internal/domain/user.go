package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID = errors.New("user ID cannot be empty")
	ErrEmptyEmail  = errors.New("email cannot be empty")
)

// CalendarCredential holds the OAuth tokens used to act on a user's external
// calendar. Absence of a credential means the user never connected a
// calendar or has revoked access.
type CalendarCredential struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

// User represents a registered user of the Daybook application. Credential
// and session handling live outside this service; the fields kept here are
// the ones the task core needs: the push token for reminders and the
// calendar credential plus sync flag for event mirroring.
type User struct {
	ID              uuid.UUID           `json:"id"`
	Email           string              `json:"email"`
	PushToken       string              `json:"-"`
	Calendar        *CalendarCredential `json:"-"`
	TaskSyncEnabled bool                `json:"task_sync_enabled"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewUser creates a new User with the given email.
// It generates a new UUID for the user ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewUser(email string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	return nil
}

// CanSyncCalendar reports whether calendar sync is enabled for the user and
// a usable credential is on file.
func (u *User) CanSyncCalendar() bool {
	return u.TaskSyncEnabled && u.Calendar != nil && u.Calendar.AccessToken != ""
}
