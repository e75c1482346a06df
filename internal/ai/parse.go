package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformed wraps every reason a model answer could not be accepted.
var ErrMalformed = errors.New("ai: malformed model output")

// Decode accepts text that is exactly one JSON value, optionally inside a
// Markdown code fence, decodes it into dst rejecting unknown fields and runs
// dst's validate tags.
func Decode(text string, dst any, v *validator.Validate) error {
	body := stripFence(text)
	if body == "" {
		return fmt.Errorf("%w: empty answer", ErrMalformed)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing content after JSON value", ErrMalformed)
	}

	if err := v.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func stripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the info string, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "```") {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
