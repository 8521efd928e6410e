package models

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// idRe matches IDs that are safe to use as a file stem.
var idRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// ValidID reports whether id can name a card record.
func ValidID(id string) bool {
	return idRe.MatchString(id)
}

// Validate checks required fields and bounds.
func (c Card) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required, validation.Match(idRe)),
		validation.Field(&c.Title, notBlank),
		validation.Field(&c.Content),
		validation.Field(&c.Source),
		validation.Field(&c.Connections),
		validation.Field(&c.UpdatedAt, validation.Min(c.CreatedAt).Error("must not be before created_at")),
	)
}

// ValidateRequired checks only the fields a record cannot exist without:
// a file-safe ID, a title and a body.
func (c Card) ValidateRequired() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required, validation.Match(idRe)),
		validation.Field(&c.Title, notBlank),
		validation.Field(&c.Content),
	)
}

// Validate checks that the body is present.
func (c Content) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Body, notBlank),
	)
}

// Validate checks the source type and URL.
func (s Source) Validate() error {
	types := make([]interface{}, len(SourceTypes))
	for i, t := range SourceTypes {
		types[i] = t
	}
	return validation.ValidateStruct(&s,
		validation.Field(&s.Type, validation.In(types...)),
		validation.Field(&s.URL, is.URL),
	)
}

// Validate checks the edge target and strength bounds.
func (e Connection) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Target, validation.Required),
		validation.Field(&e.Strength, validation.Required, validation.Min(MinStrength), validation.Max(MaxStrength)),
	)
}
