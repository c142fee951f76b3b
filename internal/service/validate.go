package service

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"clio/internal/domain"
)

const (
	MaxNameLength    = 512
	DefaultPageTitle = "Untitled"
)

func newID() string {
	return uuid.New().String()
}

// validName trims s and checks it is a usable workspace or folder name.
func validName(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if err := validation.Validate(s,
		validation.Required,
		validation.RuneLength(1, MaxNameLength),
	); err != nil {
		return "", domain.NewValidationError(field, err)
	}
	return s, nil
}

// validTitle is validName for page titles; blank titles become "Untitled".
func validTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultPageTitle, nil
	}
	return validName("title", s)
}

func validBlockType(t domain.BlockType) error {
	if !t.Valid() {
		return &domain.ValidationError{Field: "type", Message: "unknown block type " + string(t)}
	}
	return nil
}

func validHeadingLevel(level int) error {
	// Min and Max skip zero values; Required catches level 0
	if err := validation.Validate(level,
		validation.Required,
		validation.Min(domain.MinHeadingLevel),
		validation.Max(domain.MaxHeadingLevel),
	); err != nil {
		return domain.NewValidationError("headingLevel", err)
	}
	return nil
}

// validIndex rejects negative insert/move positions.
func validIndex(index int) error {
	if index < 0 {
		return domain.NewValidationError("index", errors.New("must not be negative"))
	}
	return nil
}

func notFound(kind domain.EntityKind, id string) error {
	return &domain.NotFoundError{Kind: kind, ID: id}
}
