package cli

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mesh-intelligence/bookmood/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05"

// bookOutput is the --json rendering of a book.
type bookOutput struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Notes       string `json:"notes"`
	Mood        string `json:"mood"`
	CreatedAt   string `json:"created_at"`
}

func toOutput(b types.Book) bookOutput {
	return bookOutput{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Description: b.Description,
		Notes:       b.Notes,
		Mood:        b.Mood,
		CreatedAt:   b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

// moodPalette colors mood tags. The same mood always gets the same color.
var moodPalette = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgMagenta),
	color.New(color.FgBlue),
	color.New(color.FgRed),
}

func moodString(mood string) string {
	if mood == "" {
		return color.HiBlackString("-")
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(mood)))
	return moodPalette[h.Sum32()%uint32(len(moodPalette))].Sprint(mood)
}

// printBookLine writes one list row: short ID, mood, title, author.
func printBookLine(w io.Writer, b types.Book) {
	id := b.ID
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	line := fmt.Sprintf("%s  %-24s  %s", color.HiBlackString(id), b.Title, moodString(b.Mood))
	if b.Author != "" {
		line += color.HiBlackString("  by " + b.Author)
	}
	fmt.Fprintln(w, line)
}

// printBook writes every field of one book.
func printBook(w io.Writer, b types.Book) {
	fmt.Fprintf(w, "ID:          %s\n", b.ID)
	fmt.Fprintf(w, "Title:       %s\n", b.Title)
	fmt.Fprintf(w, "Author:      %s\n", b.Author)
	fmt.Fprintf(w, "Mood:        %s\n", moodString(b.Mood))
	fmt.Fprintf(w, "Added:       %s\n", b.CreatedAt.Local().Format(timeLayout))
	if b.Description != "" {
		fmt.Fprintf(w, "\nDescription:\n  %s\n", strings.ReplaceAll(b.Description, "\n", "\n  "))
	}
	if b.Notes != "" {
		fmt.Fprintf(w, "\nNotes:\n  %s\n", strings.ReplaceAll(b.Notes, "\n", "\n  "))
	}
}
