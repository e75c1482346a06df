package service

import (
	"strings"

	"github.com/google/uuid"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
)

// ParseID parses a path or body identifier, naming the field on failure.
func ParseID(raw, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, apperr.InvalidArgf("%s is required", field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.InvalidArgf("%s must be a valid id", field)
	}
	return id, nil
}
