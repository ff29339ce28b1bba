package sandbox

import "errors"

var (
	ErrNotEnoughSeats     = errors.New("Not enough seats available")
	ErrEmailTaken         = errors.New("User already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrEventNotFound      = errors.New("Event not found")
	ErrBookingNotFound    = errors.New("Booking not found")
	ErrUserNotFound       = errors.New("User not found")
	ErrAdminOnly          = errors.New("Admin access required")
	ErrNotOwner           = errors.New("Not authorized to modify this booking")
	ErrInvalidToken       = errors.New("Token is not valid")
)
