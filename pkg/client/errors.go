package client

import (
	"errors"
	"fmt"
)

// ErrNoID is returned when an update or delete is attempted on a record
// that has no identifier. Records without an id can only be created.
var ErrNoID = errors.New("record has no id")

// FetchError reports a failed collection load. The UI shows an empty table
// with the message inline.
type FetchError struct {
	StatusCode int
	Message    string
}

func (e *FetchError) Error() string {
	return "failed to load records: " + e.Message
}

// CreateError reports a failed record creation.
type CreateError struct {
	StatusCode int
	Message    string
}

func (e *CreateError) Error() string {
	return "failed to create record: " + e.Message
}

// UpdateError reports a failed record update.
type UpdateError struct {
	ID         string
	StatusCode int
	Message    string
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("failed to update record %s: %s", e.ID, e.Message)
}

// DeleteError reports a failed record deletion.
type DeleteError struct {
	ID         string
	StatusCode int
	Message    string
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete record %s: %s", e.ID, e.Message)
}
