package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/starford/cardbox/internal/apperr"
	"github.com/starford/cardbox/internal/models"
)

func sampleCard() models.Card {
	ts := time.Date(2024, 3, 9, 10, 30, 15, 123456789, time.UTC)
	return models.Card{
		ID:    "intro-to-bm25",
		Title: "Intro to BM25",
		Content: models.Content{
			Summary: "ranking",
			Body:    "BM25 is a ranking function.\n\nIt uses term frequency.\n",
		},
		Source: models.Source{
			Type:      models.SourceArticle,
			Timestamp: ts,
			Context:   "reading group",
			URL:       "https://example.com/bm25",
		},
		Index: models.IndexInfo{
			Keywords:  []string{"bm25", "ranking"},
			Category:  "search",
			Embedding: []float32{0.25, -1.5},
		},
		Connections: []models.Connection{
			{Target: "tfidf-basics", Strength: 3, CreatedAt: ts},
			{Target: "tfidf-basics", Strength: 3, CreatedAt: ts},
		},
		CreatedAt: ts,
		UpdatedAt: ts.Add(time.Minute),
	}
}

func TestRenderParse_RoundTrip(t *testing.T) {
	in := sampleCard()
	data, err := Render(in)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderParse_BodyLeadingNewlines(t *testing.T) {
	in := sampleCard()
	in.Content.Body = "\n\nindented start"
	data, _ := Render(in)
	out, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.Content.Body != in.Content.Body {
		t.Errorf("body = %q, want %q", out.Content.Body, in.Content.Body)
	}
}

func TestRender_BodyIsReadable(t *testing.T) {
	data, _ := Render(sampleCard())
	s := string(data)
	if !strings.HasPrefix(s, "---\n") {
		t.Errorf("record should start with delimiter: %q", s[:10])
	}
	if !strings.HasSuffix(s, "---\n\nBM25 is a ranking function.\n\nIt uses term frequency.\n") {
		t.Errorf("body not appended after metadata block:\n%s", s)
	}
	if strings.Contains(strings.SplitN(s, "\n---\n", 2)[0], "It uses term frequency") {
		t.Error("body leaked into metadata block")
	}
}

func TestParse_OptionalFieldsAbsent(t *testing.T) {
	input := "---\nid: bare\ntitle: Bare card\ncreated_at: 2024-01-01T00:00:00Z\nupdated_at: 2024-01-01T00:00:00Z\n---\n\njust text"
	c, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := models.Card{
		ID:        "bare",
		Title:     "Bare card",
		Content:   models.Content{Body: "just text"},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, c, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_FieldOrderIrrelevant(t *testing.T) {
	input := "---\nindex:\n  keywords: [b, a]\ntitle: Reordered\nid: reordered\n---\nbody"
	c, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.ID != "reordered" || c.Title != "Reordered" || c.Content.Body != "body" {
		t.Errorf("unexpected card: %+v", c)
	}
	if len(c.Index.Keywords) != 2 {
		t.Errorf("keywords = %v", c.Index.Keywords)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"no frontmatter":   "# Just a heading\nSome text.\n",
		"unterminated":     "---\nid: x\ntitle: y\n",
		"invalid yaml":     "---\n: invalid: yaml: {{{\n---\nBody\n",
		"missing id":       "---\ntitle: No ID\n---\n\nbody",
		"missing title":    "---\nid: no-title\n---\n\nbody",
		"blank body":       "---\nid: empty\ntitle: Empty\n---\n\n   \n",
		"unsafe id stored": "---\nid: ../up\ntitle: Up\n---\n\nbody",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("error %v should match ErrValidation", err)
			}
		})
	}
}

func TestParse_InvalidOptionalFieldsTolerated(t *testing.T) {
	input := "---\nid: edited\ntitle: Edited by hand\n" +
		"source:\n  type: podcast\n  url: see chapter 3\n" +
		"connections:\n  - target: keep\n    strength: 2\n  - target: nostrength\n  - target: toostrong\n    strength: 9\n" +
		"created_at: 2024-02-01T00:00:00Z\nupdated_at: 2024-01-01T00:00:00Z\n---\n\nstill readable"

	c, repairs, err := Decode([]byte(input))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.Source.Type != models.SourceNote {
		t.Errorf("source type = %q, want note", c.Source.Type)
	}
	if c.Source.URL != "" {
		t.Errorf("url = %q, want dropped", c.Source.URL)
	}
	if len(c.Connections) != 1 || c.Connections[0].Target != "keep" {
		t.Errorf("connections = %+v", c.Connections)
	}
	if !c.UpdatedAt.Equal(c.CreatedAt) {
		t.Errorf("updated_at = %v, want %v", c.UpdatedAt, c.CreatedAt)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("repaired card should validate: %v", err)
	}

	var fields []string
	for _, r := range repairs {
		fields = append(fields, r.Field)
	}
	want := []string{"source.type", "source.url", "connections[1]", "connections[2]", "updated_at"}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("repairs mismatch (-want +got):\n%s", diff)
	}

	if _, err := Parse([]byte(input)); err != nil {
		t.Errorf("Parse: %v", err)
	}
}

func TestDecode_ValidRecordNoRepairs(t *testing.T) {
	data, _ := Render(sampleCard())
	_, repairs, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(repairs) != 0 {
		t.Errorf("unexpected repairs: %v", repairs)
	}
}

func TestSplitFrontmatter_CRLF(t *testing.T) {
	block, body, err := splitFrontmatter([]byte("---\r\nid: a\r\n---\r\n\r\nbody"))
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if body != "body" {
		t.Errorf("body = %q", body)
	}
	if !strings.Contains(string(block), "id: a") {
		t.Errorf("block = %q", block)
	}
}
