package library

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// FormatBook renders the single-line catalog form of a book.
func FormatBook(b *Book, holderName string) string {
	status := "Available"
	if b.IsIssued() {
		status = "Issued to " + holderName
	}
	return fmt.Sprintf("%s by %s (%s) - %s", b.Title(), b.Author(), b.Genre(), status)
}

// FormatIssuedStatus renders "<title> - Due in <N> days".
func FormatIssuedStatus(s IssuedStatus) string {
	return fmt.Sprintf("%s - Due in %d days", s.Book.Title(), s.DaysRemaining)
}

// DescribeBook is FormatBook with the holder's name resolved from the registry.
func (l *Library) DescribeBook(b *Book) string {
	return FormatBook(b, l.HolderName(b))
}

// PrintIssuedBooks writes one FormatIssuedStatus line per book the member holds.
func (l *Library) PrintIssuedBooks(w io.Writer, memberID uuid.UUID) error {
	statuses, err := l.ViewIssuedBooks(memberID)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		if _, err := fmt.Fprintln(w, FormatIssuedStatus(s)); err != nil {
			return err
		}
	}
	return nil
}
