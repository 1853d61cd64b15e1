package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the title given to books created by NewBook.
const DefaultTitle = "New Book"

// Descriptive field names accepted by SetField.
const (
	FieldTitle       = "title"
	FieldAuthor      = "author"
	FieldDescription = "description"
	FieldNotes       = "notes"
	FieldMood        = "mood"
)

// ErrInvalidField is returned by SetField for names outside the descriptive
// fields. The ID and creation time cannot be set through it.
var ErrInvalidField = errors.New("invalid book field")

// Book is one entry in the collection. ID and CreatedAt are fixed by the
// producer when the book is created; the remaining fields are free text.
type Book struct {
	ID          string    // UUID v7, generated on creation.
	Title       string    // Free text, may be empty.
	Author      string    // Free text, may be empty.
	Description string    // Free text, may be empty.
	Notes       string    // Free text, may be empty.
	Mood        string    // Mood tag, free text.
	CreatedAt   time.Time // Set by the producer, never by a store.
}

// NewBook returns a book with a fresh ID, CreatedAt set to now, and the
// default title.
func NewBook(now time.Time) Book {
	return Book{
		ID:        newID(),
		Title:     DefaultTitle,
		CreatedAt: now,
	}
}

// newID generates a UUID v7 string, falling back to v4 if v7 generation fails.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// SetField sets one descriptive field by name.
// Returns ErrInvalidField for any other name.
func (b *Book) SetField(name, value string) error {
	switch name {
	case FieldTitle:
		b.Title = value
	case FieldAuthor:
		b.Author = value
	case FieldDescription:
		b.Description = value
	case FieldNotes:
		b.Notes = value
	case FieldMood:
		b.Mood = value
	default:
		return ErrInvalidField
	}
	return nil
}

// FindBook returns the index of the book with the given ID.
// Returns ErrInvalidID if id is empty and ErrBookNotFound if no book matches.
func FindBook(books []Book, id string) (int, error) {
	if id == "" {
		return -1, ErrInvalidID
	}
	for i := range books {
		if books[i].ID == id {
			return i, nil
		}
	}
	return -1, ErrBookNotFound
}

// RemoveBook returns a new slice without the book with the given ID,
// keeping the order of the remaining books.
func RemoveBook(books []Book, id string) ([]Book, error) {
	i, err := FindBook(books, id)
	if err != nil {
		return nil, err
	}
	out := make([]Book, 0, len(books)-1)
	out = append(out, books[:i]...)
	return append(out, books[i+1:]...), nil
}
