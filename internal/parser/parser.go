// Package parser converts cards to and from their on-disk record form:
// a YAML frontmatter block holding every field except the long-form body,
// followed by the body as plain Markdown.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"github.com/starford/cardbox/internal/apperr"
	"github.com/starford/cardbox/internal/models"
)

const delim = "---"

var (
	errNoFrontmatter = errors.New("missing frontmatter block")
	errUnterminated  = errors.New("frontmatter block is not terminated")
	errMissingID     = errors.New("id: is required")
	errMissingTitle  = errors.New("title: is required")
)

// frontmatter is the metadata block layout. Field order is not significant.
type frontmatter struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Summary     string       `yaml:"summary,omitempty"`
	Source      sourceBlock  `yaml:"source,omitempty"`
	Index       indexBlock   `yaml:"index,omitempty"`
	Connections []connection `yaml:"connections,omitempty"`
	CreatedAt   time.Time    `yaml:"created_at"`
	UpdatedAt   time.Time    `yaml:"updated_at"`
}

type sourceBlock struct {
	Type      models.SourceType `yaml:"type,omitempty"`
	Timestamp time.Time         `yaml:"timestamp,omitempty"`
	Context   string            `yaml:"context,omitempty"`
	URL       string            `yaml:"url,omitempty"`
}

type indexBlock struct {
	Keywords  []string  `yaml:"keywords,omitempty"`
	Category  string    `yaml:"category,omitempty"`
	Embedding []float32 `yaml:"embedding,omitempty"`
}

type connection struct {
	Target    string    `yaml:"target"`
	Strength  int       `yaml:"strength"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Repair records an optional value that was dropped or reset while
// decoding because it broke a field rule.
type Repair struct {
	Field string
	Err   error
}

func (r Repair) String() string {
	return r.Field + ": " + r.Err.Error()
}

// Parse decodes a record, discarding any repairs. See Decode.
func Parse(data []byte) (models.Card, error) {
	card, _, err := Decode(data)
	return card, err
}

// Decode decodes a record. Only a structural problem or a missing or
// invalid required field (id, title, body) fails, as an
// apperr.ValidationError. Optional values that break their rules are
// repaired and reported so a hand-edited record stays loadable.
func Decode(data []byte) (models.Card, []Repair, error) {
	block, body, err := splitFrontmatter(data)
	if err != nil {
		return models.Card{}, nil, apperr.Invalid("", err)
	}

	var fm frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return models.Card{}, nil, apperr.Invalid("", fmt.Errorf("frontmatter: %w", err))
	}
	if fm.ID == "" {
		return models.Card{}, nil, apperr.Invalid("", errMissingID)
	}
	if fm.Title == "" {
		return models.Card{}, nil, apperr.Invalid(fm.ID, errMissingTitle)
	}

	card := fromFrontmatter(fm, body)
	if err := card.ValidateRequired(); err != nil {
		return models.Card{}, nil, apperr.Invalid(card.ID, err)
	}
	return card, repair(&card), nil
}

// repair resets optional values that fail their rules. The resulting card
// passes models.Card.Validate.
func repair(c *models.Card) []Repair {
	var out []Repair

	if c.Source.Type != "" && !slices.Contains(models.SourceTypes, c.Source.Type) {
		out = append(out, Repair{Field: "source.type", Err: fmt.Errorf("unknown type %q, using %q", c.Source.Type, models.SourceNote)})
		c.Source.Type = models.SourceNote
	}
	if c.Source.URL != "" {
		if err := validation.Validate(c.Source.URL, is.URL); err != nil {
			out = append(out, Repair{Field: "source.url", Err: fmt.Errorf("%q dropped: %w", c.Source.URL, err)})
			c.Source.URL = ""
		}
	}

	if len(c.Connections) > 0 {
		kept := make([]models.Connection, 0, len(c.Connections))
		for i, e := range c.Connections {
			if err := e.Validate(); err != nil {
				out = append(out, Repair{Field: fmt.Sprintf("connections[%d]", i), Err: fmt.Errorf("edge to %q dropped: %w", e.Target, err)})
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			kept = nil
		}
		c.Connections = kept
	}

	if c.UpdatedAt.Before(c.CreatedAt) {
		out = append(out, Repair{Field: "updated_at", Err: errors.New("before created_at, using created_at")})
		c.UpdatedAt = c.CreatedAt
	}
	return out
}

// Render encodes card as a record. The body is separated from the metadata
// block by exactly one blank line.
func Render(card models.Card) ([]byte, error) {
	meta, err := yaml.Marshal(toFrontmatter(card))
	if err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(meta) + len(card.Content.Body) + 16)
	buf.WriteString(delim + "\n")
	buf.Write(meta)
	buf.WriteString(delim + "\n\n")
	buf.WriteString(card.Content.Body)
	return buf.Bytes(), nil
}

// splitFrontmatter separates the YAML block (between leading --- delimiters)
// from the body. One line break after the closing delimiter and one optional
// blank line are consumed.
func splitFrontmatter(data []byte) ([]byte, string, error) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, "", errNoFrontmatter
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", errUnterminated
	}

	block := rest[:idx]
	after := rest[idx+1+len(delim):]
	after = dropLineBreak(after)
	after = dropLineBreak(after)
	return block, string(after), nil
}

func dropLineBreak(b []byte) []byte {
	switch {
	case bytes.HasPrefix(b, []byte("\r\n")):
		return b[2:]
	case bytes.HasPrefix(b, []byte("\n")):
		return b[1:]
	}
	return b
}

func toFrontmatter(c models.Card) frontmatter {
	fm := frontmatter{
		ID:      c.ID,
		Title:   c.Title,
		Summary: c.Content.Summary,
		Source: sourceBlock{
			Type:      c.Source.Type,
			Timestamp: c.Source.Timestamp,
			Context:   c.Source.Context,
			URL:       c.Source.URL,
		},
		Index: indexBlock{
			Keywords:  c.Index.Keywords,
			Category:  c.Index.Category,
			Embedding: c.Index.Embedding,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	for _, e := range c.Connections {
		fm.Connections = append(fm.Connections, connection{
			Target:    e.Target,
			Strength:  e.Strength,
			CreatedAt: e.CreatedAt,
		})
	}
	return fm
}

func fromFrontmatter(fm frontmatter, body string) models.Card {
	c := models.Card{
		ID:    fm.ID,
		Title: fm.Title,
		Content: models.Content{
			Summary: fm.Summary,
			Body:    body,
		},
		Source: models.Source{
			Type:      fm.Source.Type,
			Timestamp: fm.Source.Timestamp,
			Context:   fm.Source.Context,
			URL:       fm.Source.URL,
		},
		Index: models.IndexInfo{
			Keywords:  fm.Index.Keywords,
			Category:  fm.Index.Category,
			Embedding: fm.Index.Embedding,
		},
		CreatedAt: fm.CreatedAt,
		UpdatedAt: fm.UpdatedAt,
	}
	for _, e := range fm.Connections {
		c.Connections = append(c.Connections, models.Connection{
			Target:    e.Target,
			Strength:  e.Strength,
			CreatedAt: e.CreatedAt,
		})
	}
	return c
}
