package auth

import "fmt"

type (
	// InvalidCredentials covers both unknown usernames and wrong
	// passwords, callers must not be able to tell them apart.
	InvalidCredentials struct{}

	ValidationError struct {
		Message string
	}
)

func (InvalidCredentials) Error() string {
	return "invalid username or password"
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %v", v.Message)
}
