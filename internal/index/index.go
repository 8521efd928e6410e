// Package index implements an immutable BM25 ranking structure over a card
// corpus. An Index is never mutated after construction; any change to the
// corpus requires building a new one.
package index

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/starford/cardbox/internal/models"
)

// BM25 parameters.
const (
	K1 = 1.5
	B  = 0.75
)

// Document is the analyzed form of one card.
type Document struct {
	ID     string         `json:"id"`
	Terms  map[string]int `json:"terms"`
	Length int            `json:"length"`
}

// Result is one ranked hit.
type Result struct {
	Card  models.Card `json:"card"`
	Score float64     `json:"score"`
}

// Index ranks cards against free-text queries.
type Index struct {
	cards  []models.Card
	docs   []Document
	df     map[string]int
	avgLen float64
}

// Tokenize lowercases text and splits it on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// DocumentText is the text indexed for a card.
func DocumentText(c models.Card) string {
	parts := []string{c.Title, c.Content.Summary, c.Content.Body}
	parts = append(parts, c.Index.Keywords...)
	return strings.Join(parts, " ")
}

// QueryText is the synthetic query used to find cards similar to c.
func QueryText(c models.Card) string {
	return strings.Join([]string{c.Title, c.Content.Summary, c.Content.Body}, " ")
}

// Analyze tokenizes text into a Document for id.
func Analyze(id, text string) Document {
	tokens := Tokenize(text)
	terms := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		terms[tok]++
	}
	return Document{ID: id, Terms: terms, Length: len(tokens)}
}

// Build analyzes every card and constructs an index over them.
func Build(cards []models.Card) *Index {
	docs := make([]Document, len(cards))
	for i, c := range cards {
		docs[i] = Analyze(c.ID, DocumentText(c))
	}
	ix, _ := New(cards, docs) // docs are aligned by construction
	return ix
}

// New constructs an index from cards and their pre-analyzed documents.
// docs[i] must describe cards[i].
func New(cards []models.Card, docs []Document) (*Index, error) {
	if len(cards) != len(docs) {
		return nil, fmt.Errorf("index: %d cards but %d documents", len(cards), len(docs))
	}
	ix := &Index{
		cards: make([]models.Card, len(cards)),
		docs:  docs,
		df:    make(map[string]int),
	}
	total := 0
	for i, c := range cards {
		if docs[i].ID != c.ID {
			return nil, fmt.Errorf("index: document %d is %q, want %q", i, docs[i].ID, c.ID)
		}
		ix.cards[i] = c.Clone()
		total += docs[i].Length
		for term := range docs[i].Terms {
			ix.df[term]++
		}
	}
	if len(docs) > 0 {
		ix.avgLen = float64(total) / float64(len(docs))
	}
	return ix, nil
}

// Len returns the number of indexed cards.
func (ix *Index) Len() int { return len(ix.cards) }

// Documents returns the analyzed documents in index order.
func (ix *Index) Documents() []Document { return ix.docs }

// idf is the non-negative BM25 inverse document frequency.
func (ix *Index) idf(term string) float64 {
	n := float64(len(ix.docs))
	df := float64(ix.df[term])
	return math.Log(1 + (n-df+0.5)/(df+0.5))
}

// score returns the BM25 score of document i for the query tokens.
// Repeated tokens contribute once per occurrence.
func (ix *Index) score(i int, tokens []string) float64 {
	doc := ix.docs[i]
	norm := 1.0
	if ix.avgLen > 0 {
		norm = 1 - B + B*float64(doc.Length)/ix.avgLen
	}
	var s float64
	for _, tok := range tokens {
		tf := float64(doc.Terms[tok])
		if tf == 0 {
			continue
		}
		s += ix.idf(tok) * tf * (K1 + 1) / (tf + K1*norm)
	}
	return s
}

// Query ranks cards against text and returns at most limit hits with a
// positive score, best first. A limit <= 0 returns every hit.
func (ix *Index) Query(text string, limit int) []Result {
	return ix.rank(Tokenize(text), limit, "")
}

// Similar ranks the corpus against c's own text, excluding c itself.
func (ix *Index) Similar(c models.Card, limit int) []Result {
	return ix.rank(Tokenize(QueryText(c)), limit, c.ID)
}

func (ix *Index) rank(tokens []string, limit int, exclude string) []Result {
	if len(tokens) == 0 {
		return nil
	}
	var out []Result
	for i := range ix.docs {
		if exclude != "" && ix.docs[i].ID == exclude {
			continue
		}
		if s := ix.score(i, tokens); s > 0 {
			out = append(out, Result{Card: ix.cards[i], Score: s})
		}
	}
	slices.SortFunc(out, func(a, b Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Card.ID, b.Card.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Card = out[i].Card.Clone()
	}
	return out
}
