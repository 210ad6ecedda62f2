package library

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// LibraryManager is a thin façade over the in-memory Library and the
// circulation journal, keeping CLI code simple. Every operation the Library
// accepts is journaled; rejected operations are returned untouched.
type LibraryManager struct {
	lib *Library
	db  *Database
	log *slog.Logger
}

// NewLibraryManager opens (or creates) the journal at dbPath and builds an
// empty Library with opts.
func NewLibraryManager(dbPath string, opts ...Option) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{
		lib: NewLibrary(opts...),
		db:  db,
		log: slog.Default().With("component", "library"),
	}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// Library exposes the aggregate for read-only reporting.
func (lm *LibraryManager) Library() *Library { return lm.lib }

// ------------------ Book helpers ------------------

// AddBook creates a book and adds it to the catalog.
func (lm *LibraryManager) AddBook(title, author, genre string) (*Book, error) {
	book := NewBook(title, author, genre)
	if err := lm.lib.AddBook(book); err != nil {
		return nil, err
	}
	if err := lm.db.RecordBookAdded(book.ID(), book.Title(), lm.lib.Today()); err != nil {
		return book, err
	}
	lm.log.Debug("book added", "book_id", book.ID(), "title", book.Title())
	return book, nil
}

func (lm *LibraryManager) RemoveBook(bookID uuid.UUID) error {
	book, err := lm.lib.Book(bookID)
	if err != nil {
		return err
	}
	queued := len(book.Reservations())
	if err := lm.lib.RemoveBook(bookID); err != nil {
		return err
	}
	if err := lm.db.RecordBookRemoved(bookID, book.Title(), lm.lib.Today()); err != nil {
		return err
	}
	lm.log.Debug("book removed", "book_id", bookID, "discarded_reservations", queued)
	return nil
}

func (lm *LibraryManager) GetBook(id uuid.UUID) (*Book, error) { return lm.lib.Book(id) }
func (lm *LibraryManager) GetAllBooks() []*Book               { return lm.lib.Books() }

// SearchBooks collects the matches of Library.SearchBooks.
func (lm *LibraryManager) SearchBooks(q string) []*Book {
	return slices.Collect(lm.lib.SearchBooks(q))
}

// ------------------ Member helpers ------------------

// RegisterMember creates and registers a member of the given kind.
func (lm *LibraryManager) RegisterMember(kind MemberKind, name, email, phone string) (*Member, error) {
	if _, ok := PolicyFor(kind); !ok {
		return nil, fmt.Errorf("no borrowing policy for %v", kind)
	}
	m := NewMember(kind, name, email, phone)
	if err := lm.lib.RegisterMember(m); err != nil {
		return nil, err
	}
	lm.log.Debug("member registered", "member_id", m.ID(), "type", m.MemberType())
	return m, nil
}

func (lm *LibraryManager) GetMember(id uuid.UUID) (*Member, error) { return lm.lib.Member(id) }
func (lm *LibraryManager) GetAllMembers() []*Member               { return lm.lib.Members() }

// ------------------ Circulation ------------------

// IssueBook issues the book, or queues the member when it is already out.
func (lm *LibraryManager) IssueBook(bookID, memberID uuid.UUID) (Outcome, error) {
	outcome, err := lm.lib.IssueBook(bookID, memberID)
	if err != nil {
		return 0, err
	}
	today := lm.lib.Today()
	switch outcome {
	case OutcomeIssued:
		book, _ := lm.lib.Book(bookID)
		err = lm.db.RecordCheckout(bookID, memberID, today, book.DueDate())
	case OutcomeReserved:
		err = lm.db.RecordReservation(bookID, memberID, today)
	}
	if err != nil {
		return outcome, err
	}
	lm.log.Debug("issue requested", "book_id", bookID, "member_id", memberID, "outcome", outcome)
	return outcome, nil
}

func (lm *LibraryManager) ReserveBook(bookID, memberID uuid.UUID) error {
	if err := lm.lib.ReserveBook(bookID, memberID); err != nil {
		return err
	}
	if err := lm.db.RecordReservation(bookID, memberID, lm.lib.Today()); err != nil {
		return err
	}
	lm.log.Debug("book reserved", "book_id", bookID, "member_id", memberID)
	return nil
}

// ReturnBook returns the book and journals the hand-off to the next member
// in the queue, if any. When the Library reports a failed hand-off the
// return is still journaled before the error is passed on.
func (lm *LibraryManager) ReturnBook(bookID, memberID uuid.UUID) (ReturnResult, error) {
	res, err := lm.lib.ReturnBook(bookID, memberID)
	if res.ReturnedBy == uuid.Nil {
		return res, err
	}

	entry := ReturnEntry{
		BookID:       bookID,
		ReturnedBy:   res.ReturnedBy,
		On:           lm.lib.Today(),
		ReassignedTo: res.ReassignedTo,
		Dropped:      res.Dropped,
	}
	if res.ReassignedTo != uuid.Nil {
		book, _ := lm.lib.Book(bookID)
		entry.DueOn = book.DueDate()
	}
	if jerr := lm.db.RecordReturn(entry); jerr != nil {
		return res, errors.Join(err, jerr)
	}
	lm.log.Debug("book returned", "book_id", bookID, "member_id", memberID,
		"reassigned_to", res.ReassignedTo, "skipped", len(res.Skipped))
	return res, err
}

func (lm *LibraryManager) ViewIssuedBooks(memberID uuid.UUID) ([]IssuedStatus, error) {
	return lm.lib.ViewIssuedBooks(memberID)
}

func (lm *LibraryManager) ViewOverdueBooks() []*Book { return lm.lib.ViewOverdueBooks() }

// ------------------ Journal ------------------

func (lm *LibraryManager) CheckoutHistory(bookID uuid.UUID) ([]CheckoutRecord, error) {
	return lm.db.CheckoutHistory(bookID)
}

func (lm *LibraryManager) MemberCheckouts(memberID uuid.UUID) ([]CheckoutRecord, error) {
	return lm.db.MemberCheckouts(memberID)
}

func (lm *LibraryManager) ReservationHistory(bookID uuid.UUID) ([]ReservationRecord, error) {
	return lm.db.ReservationHistory(bookID)
}
