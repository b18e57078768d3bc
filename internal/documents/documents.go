// Package documents serves the fixed set of reference documents (guides,
// templates, charters) that referents can download from the portal.
package documents

import (
	"context"
	"errors"
	"io"

	"github.com/referents-ia/portail/internal/config"
)

// ErrUnknownDocument is returned for ids that are not in the catalog.
var ErrUnknownDocument = errors.New("unknown document")

// Document is one downloadable file.
type Document struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Filename    string `json:"filename"`
	// URL overrides the backend location when set.
	URL string `json:"-"`
}

// Blob is an open document body.
type Blob struct {
	Body        io.ReadCloser
	Size        int64 // -1 when unknown
	ContentType string
}

// Fetcher retrieves document bodies from a storage backend.
type Fetcher interface {
	Fetch(ctx context.Context, doc Document) (*Blob, error)
}

// Catalog is the ordered, immutable list of documents.
type Catalog struct {
	docs []Document
	byID map[string]int
}

// NewCatalog builds a catalog from configuration entries, keeping their order.
func NewCatalog(entries []config.DocumentEntry) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(entries))}
	for _, e := range entries {
		if _, dup := c.byID[e.ID]; dup {
			continue
		}
		c.byID[e.ID] = len(c.docs)
		c.docs = append(c.docs, Document{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Filename:    e.Filename,
			URL:         e.URL,
		})
	}
	return c
}

// List returns a copy of the catalog.
func (c *Catalog) List() []Document {
	out := make([]Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Get returns the document with the given id.
func (c *Catalog) Get(id string) (Document, error) {
	i, ok := c.byID[id]
	if !ok {
		return Document{}, ErrUnknownDocument
	}
	return c.docs[i], nil
}
