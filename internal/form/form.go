// Package form turns user-entered text into API requests.
package form

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hession/memhub/internal/api"
)

var validate = validator.New()

// Values are the raw texts of the memory form
type Values struct {
	Title   string `validate:"required"`
	Content string `validate:"required"`
	Tags    string
}

// FromMemory pre-fills the form from an existing memory
func FromMemory(m api.Memory) Values {
	return Values{
		Title:   m.Title,
		Content: m.Content,
		Tags:    FormatTags(m.Tags),
	}
}

// FieldError is one failed rule
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists the fields that must be fixed before submitting
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed validation
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Normalize trims the inputs, checks required fields and splits the tag text
func Normalize(title, content, tagsText string) (api.MemoryInput, error) {
	v := Values{
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
		Tags:    tagsText,
	}
	if err := v.Validate(); err != nil {
		return api.MemoryInput{}, err
	}

	return api.MemoryInput{
		Title:   v.Title,
		Content: v.Content,
		Tags:    ParseTags(v.Tags),
	}, nil
}

// Input is Normalize applied to v
func (v Values) Input() (api.MemoryInput, error) {
	return Normalize(v.Title, v.Content, v.Tags)
}

// Validate checks v as entered, without trimming
func (v Values) Validate() error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: formatFieldError(fe),
		})
	}
	return out
}

// RequiredText is a field validator for interactive inputs
func RequiredText(field string) func(string) error {
	return func(s string) error {
		if err := validate.Var(strings.TrimSpace(s), "required"); err != nil {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// ParseTags splits comma separated tags, accepting both ASCII and full-width
// commas. Blank entries are dropped; order and duplicates are kept.
func ParseTags(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '，'
	})

	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// FormatTags joins tags the way the form displays them
func FormatTags(tags []string) string {
	return strings.Join(tags, ", ")
}
