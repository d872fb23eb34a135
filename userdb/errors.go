package userdb

import "fmt"

type (
	DuplicateUsername struct {
		Username string
	}

	DuplicateEmail struct {
		Email string
	}

	UserNotFound struct {
		ID       int64
		Username string
	}
)

func (d DuplicateUsername) Error() string {
	return fmt.Sprintf("username %v already exists", d.Username)
}

func (d DuplicateEmail) Error() string {
	return fmt.Sprintf("email %v already exists", d.Email)
}

func (u UserNotFound) Error() string {
	if u.Username != "" {
		return fmt.Sprintf("user %v not found", u.Username)
	}
	return fmt.Sprintf("user %v not found", u.ID)
}
