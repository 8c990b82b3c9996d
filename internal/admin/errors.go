package admin

import "errors"

var (
	// ErrSelfDelete is returned when an admin tries to delete their own account.
	ErrSelfDelete = errors.New("admins cannot delete their own account")
)
