package models

import (
	"testing"
	"time"
)

func validCard() Card {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return Card{
		ID:        "intro-to-bm25",
		Title:     "Intro to BM25",
		Content:   Content{Summary: "ranking", Body: "BM25 is a ranking function"},
		Source:    Source{Type: SourceArticle, Timestamp: now, URL: "https://example.com/bm25"},
		Index:     IndexInfo{Keywords: []string{"bm25", "ranking"}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validCard().Validate(); err != nil {
		t.Fatalf("valid card rejected: %v", err)
	}
}

func TestValidate_MissingID(t *testing.T) {
	c := validCard()
	c.ID = ""
	if err := c.Validate(); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestValidate_UnsafeID(t *testing.T) {
	for _, id := range []string{"../etc", "a/b", ".hidden", "with space"} {
		c := validCard()
		c.ID = id
		if err := c.Validate(); err == nil {
			t.Errorf("expected error for id %q", id)
		}
	}
}

func TestValidate_BlankTitleAndBody(t *testing.T) {
	c := validCard()
	c.Title = "   "
	if err := c.Validate(); err == nil {
		t.Error("expected error for blank title")
	}
	c = validCard()
	c.Content.Body = "\n\t"
	if err := c.Validate(); err == nil {
		t.Error("expected error for blank body")
	}
}

func TestValidate_SourceType(t *testing.T) {
	c := validCard()
	c.Source.Type = "podcast"
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown source type")
	}
}

func TestValidate_BadURL(t *testing.T) {
	c := validCard()
	c.Source.URL = "not a url"
	if err := c.Validate(); err == nil {
		t.Error("expected error for malformed url")
	}
}

func TestValidate_StrengthBounds(t *testing.T) {
	for _, s := range []int{0, 6, -1} {
		c := validCard()
		c.Connections = []Connection{{Target: "x", Strength: s, CreatedAt: c.CreatedAt}}
		if err := c.Validate(); err == nil {
			t.Errorf("expected error for strength %d", s)
		}
	}
	c := validCard()
	c.Connections = []Connection{{Target: "x", Strength: 5, CreatedAt: c.CreatedAt}}
	if err := c.Validate(); err != nil {
		t.Errorf("strength 5 rejected: %v", err)
	}
}

func TestValidate_UpdatedBeforeCreated(t *testing.T) {
	c := validCard()
	c.UpdatedAt = c.CreatedAt.Add(-time.Second)
	if err := c.Validate(); err == nil {
		t.Error("expected error when updated_at < created_at")
	}
}

func TestClone_Independent(t *testing.T) {
	c := validCard()
	c.Connections = []Connection{{Target: "x", Strength: 1}}
	cp := c.Clone()
	cp.Index.Keywords[0] = "changed"
	cp.Connections[0].Strength = 4
	if c.Index.Keywords[0] != "bm25" {
		t.Error("clone shares keywords with original")
	}
	if c.Connections[0].Strength != 1 {
		t.Error("clone shares connections with original")
	}
}

func TestValidateRequired_IgnoresOptionalRules(t *testing.T) {
	c := validCard()
	c.Source.Type = "podcast"
	c.Source.URL = "see chapter 3"
	c.Connections = []Connection{{Target: "x"}}
	c.UpdatedAt = c.CreatedAt.Add(-time.Hour)
	if err := c.ValidateRequired(); err != nil {
		t.Fatalf("optional field problems should pass: %v", err)
	}

	for _, mutate := range []func(*Card){
		func(c *Card) { c.ID = "" },
		func(c *Card) { c.ID = "../up" },
		func(c *Card) { c.Title = " " },
		func(c *Card) { c.Content.Body = "" },
	} {
		c := validCard()
		mutate(&c)
		if err := c.ValidateRequired(); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
}
