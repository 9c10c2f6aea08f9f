package schema

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewSessionID generates a session identifier in format SES-{nanoid(10)}.
func NewSessionID() (string, error) {
	id, err := gonanoid.New(10)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SES-%s", id), nil
}

// NewAttachmentID generates an attachment identifier in format ATT-{nanoid(10)}.
// Used to prefix stored upload filenames so concurrent uploads never collide.
func NewAttachmentID() (string, error) {
	id, err := gonanoid.New(10)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ATT-%s", id), nil
}
