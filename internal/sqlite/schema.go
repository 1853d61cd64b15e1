package sqlite

// DBFileName is the database file inside the data directory.
const DBFileName = "books.db"

// createBooks holds the collection. position keeps the caller's order; book_id
// is not unique because the collection is stored exactly as given.
const createBooks = `CREATE TABLE IF NOT EXISTS books (
    position INTEGER PRIMARY KEY,
    book_id TEXT NOT NULL,
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    description TEXT NOT NULL,
    notes TEXT NOT NULL,
    mood TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

const (
	selectBooks = `SELECT book_id, title, author, description, notes, mood, created_at
FROM books ORDER BY position`
	deleteBooks = `DELETE FROM books`
	insertBook  = `INSERT INTO books
    (position, book_id, title, author, description, notes, mood, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// sqliteHeader opens every valid SQLite database file.
const sqliteHeader = "SQLite format 3\x00"
