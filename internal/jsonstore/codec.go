package jsonstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/bookmood/pkg/types"
)

// bookJSON is the on-disk shape of a book in books.json. Key matching on
// decode is case-insensitive, so files written with "Id" or "DateAdded"
// load the same as our own camelCase output.
type bookJSON struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Notes       string    `json:"notes"`
	Mood        string    `json:"mood"`
	DateAdded   time.Time `json:"dateAdded"`
}

// encodeBooks renders the collection as an indented JSON array with a
// trailing newline. A nil collection encodes as "[]".
func encodeBooks(books []types.Book) ([]byte, error) {
	records := make([]bookJSON, len(books))
	for i, b := range books {
		records[i] = bookJSON{
			ID:          b.ID,
			Title:       b.Title,
			Author:      b.Author,
			Description: b.Description,
			Notes:       b.Notes,
			Mood:        b.Mood,
			DateAdded:   b.CreatedAt,
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding books: %w", err)
	}
	return append(data, '\n'), nil
}

// decodeBooks parses a serialized collection. The input is already in
// memory, so every failure here is a content failure and wraps
// types.ErrMalformedContent. "[]" and "null" decode to an empty,
// non-nil slice.
func decodeBooks(data []byte) ([]types.Book, error) {
	var records []bookJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMalformedContent, err)
	}
	books := make([]types.Book, len(records))
	for i, r := range records {
		books[i] = types.Book{
			ID:          r.ID,
			Title:       r.Title,
			Author:      r.Author,
			Description: r.Description,
			Notes:       r.Notes,
			Mood:        r.Mood,
			CreatedAt:   r.DateAdded,
		}
	}
	return books, nil
}
