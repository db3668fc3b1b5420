package domain

import "strings"

// Project is a metered project as the backend reports it.
// ID and SentinelKey are server-assigned and immutable; the key is
// display-only on the client and tags usage events elsewhere.
type Project struct {
	ID          int
	Name        string
	SentinelKey string
}

// ValidateProjectName checks a user-supplied project name before any
// create call is issued.
func ValidateProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyProjectName
	}
	return nil
}
