package services

import "errors"

// Service-level errors. Handlers map them to HTTP statuses.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrRegistrationNotOpen = errors.New("tournament registration is not open")
	ErrTournamentFull      = errors.New("tournament registration is full")

	// Conflicts
	ErrUserEmailConflict     = errors.New("email address is already in use")
	ErrParticipantNameTaken  = errors.New("participant name is already taken")
	ErrParticipantEmailTaken = errors.New("participant email is already registered")
	ErrCourtNameConflict     = errors.New("court name is already used in this tournament")
	ErrMatchupsLocked        = errors.New("participants cannot be removed once matchups exist")

	// Auth
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Entities
	ErrUserNotFound           = errors.New("user not found")
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrCourtNotFound          = errors.New("court not found")
	ErrScheduledMatchNotFound = errors.New("scheduled match not found")
	ErrNotificationNotFound   = errors.New("notification not found")

	// Tournaments
	ErrTournamentNameRequired            = errors.New("tournament name is required")
	ErrTournamentInvalidCapacity         = errors.New("tournament max participants must be between 4 and 256")
	ErrTournamentCapacityBelowCount      = errors.New("tournament max participants is below the current participant count")
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")

	// Participants
	ErrParticipantNameInvalid  = errors.New("participant name must be at least 2 characters")
	ErrParticipantEmailInvalid = errors.New("participant email is not a valid address")

	// Matchups and wheel
	ErrNotEnoughParticipants = errors.New("at least 4 participants are required to generate matchups")
	ErrMatchupsNotGenerated  = errors.New("matchups have not been generated yet")
	ErrMatchNotFound         = errors.New("no match between these participants")
	ErrSameParticipant       = errors.New("a participant cannot play against itself")
	ErrInvalidResult         = errors.New("result must be one of win, loss or draw")
	ErrScoreRequired         = errors.New("score is required")
	ErrTieGroupNotFound      = errors.New("tie group not found")
	ErrNoEntrants            = errors.New("the wheel needs at least one entrant")

	// Uploads
	ErrUploadsDisabled     = errors.New("file uploads are not configured")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file is too large")

	// Schedule
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")

	// Availability
	ErrInvalidTimeSlot    = errors.New("time slot needs a date, a start time and a later end time")
	ErrTooManyTimeSlots   = errors.New("too many time slots")
	ErrAvailabilityClosed = errors.New("availability cannot change once the tournament has ended")

	// Email
	ErrEmailDisabled = errors.New("email delivery is not configured")
)
