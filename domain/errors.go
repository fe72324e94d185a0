package domain

import "fmt"

// ValidationError is a client-side fixable problem with the request payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

// PermissionError means the principal lacks the capability for the action.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Message)
}

// NotFoundError covers both missing rows and rows outside the caller's scope.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s with ID '%s' not found", e.Entity, e.ID)
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

// AuthError terminates a request before business logic runs.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Message)
}

// ConfigError is raised for missing or unusable process configuration.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}
