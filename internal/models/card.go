// Package models defines the domain types for cardbox.
package models

import (
	"slices"
	"time"
)

// SourceType classifies where a card's knowledge came from.
type SourceType string

// Known source types.
const (
	SourceNote         SourceType = "note"
	SourceArticle      SourceType = "article"
	SourceBook         SourceType = "book"
	SourceVideo        SourceType = "video"
	SourceConversation SourceType = "conversation"
)

// SourceTypes lists every accepted SourceType.
var SourceTypes = []SourceType{SourceNote, SourceArticle, SourceBook, SourceVideo, SourceConversation}

// Card is a persisted unit of knowledge.
type Card struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Content     Content      `json:"content"`
	Source      Source       `json:"source"`
	Index       IndexInfo    `json:"index_info"`
	Connections []Connection `json:"connections"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Content is the structured body of a card.
type Content struct {
	Summary string `json:"summary,omitempty"`
	Body    string `json:"content"`
}

// Source is provenance metadata.
type Source struct {
	Type      SourceType `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Context   string     `json:"context,omitempty"`
	URL       string     `json:"url,omitempty"`
}

// IndexInfo holds search and categorization metadata.
// Embedding is stored but never used for ranking.
type IndexInfo struct {
	Keywords  []string  `json:"keywords,omitempty"`
	Category  string    `json:"category,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Connection is a directed, weighted edge to another card.
type Connection struct {
	Target    string    `json:"target"`
	Strength  int       `json:"strength"`
	CreatedAt time.Time `json:"created_at"`
}

// Strength bounds for a Connection.
const (
	MinStrength = 1
	MaxStrength = 5
)

// Clone returns a deep copy of c.
func (c Card) Clone() Card {
	out := c
	out.Index.Keywords = slices.Clone(c.Index.Keywords)
	out.Index.Embedding = slices.Clone(c.Index.Embedding)
	out.Connections = slices.Clone(c.Connections)
	return out
}
