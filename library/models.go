package library

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Book is a catalog entry. Title, author and genre never change after
// creation; issuance state and the reservation queue are mutated only by
// the Library that owns the book.
type Book struct {
	id     uuid.UUID
	title  string
	author string
	genre  string

	issued   bool
	issuedTo uuid.UUID
	dueDate  time.Time

	// member IDs waiting for the book, head first
	queue []uuid.UUID
}

// NewBook creates an available book with a fresh random identifier.
func NewBook(title, author, genre string) *Book {
	return &Book{
		id:     uuid.New(),
		title:  title,
		author: author,
		genre:  genre,
	}
}

func (b *Book) ID() uuid.UUID       { return b.id }
func (b *Book) Title() string       { return b.title }
func (b *Book) Author() string      { return b.author }
func (b *Book) Genre() string       { return b.genre }
func (b *Book) IsIssued() bool      { return b.issued }
func (b *Book) IssuedTo() uuid.UUID { return b.issuedTo }

// DueDate returns the due day, or the zero time when the book is available.
func (b *Book) DueDate() time.Time { return b.dueDate }

// Reservations returns a copy of the reservation queue, head first.
func (b *Book) Reservations() []uuid.UUID { return slices.Clone(b.queue) }

// issueTo records the loan. It does not check the prior state; the Library
// guarantees the book was available.
func (b *Book) issueTo(memberID uuid.UUID, allowedDays int, today time.Time) {
	b.issued = true
	b.issuedTo = memberID
	b.dueDate = today.AddDate(0, 0, allowedDays)
}

// release clears issuance unconditionally.
func (b *Book) release() {
	b.issued = false
	b.issuedTo = uuid.Nil
	b.dueDate = time.Time{}
}

func (b *Book) enqueue(memberID uuid.UUID) {
	b.queue = append(b.queue, memberID)
}

func (b *Book) dequeue() (uuid.UUID, bool) {
	if len(b.queue) == 0 {
		return uuid.Nil, false
	}
	head := b.queue[0]
	b.queue = b.queue[1:]
	return head, true
}

// matches reports whether keyword occurs in the title, author or genre,
// ignoring case. keyword must already be lower-cased.
func (b *Book) matches(keyword string) bool {
	return strings.Contains(strings.ToLower(b.title), keyword) ||
		strings.Contains(strings.ToLower(b.author), keyword) ||
		strings.Contains(strings.ToLower(b.genre), keyword)
}

// BookRecord is a serializable snapshot of a book.
type BookRecord struct {
	ID           uuid.UUID   `json:"id"`
	Title        string      `json:"title"`
	Author       string      `json:"author"`
	Genre        string      `json:"genre"`
	Issued       bool        `json:"issued"`
	IssuedTo     string      `json:"issued_to,omitempty"`
	DueDate      string      `json:"due_date,omitempty"`
	Reservations []uuid.UUID `json:"reservations,omitempty"`
}

// Snapshot copies the book's current state. holderName is the display name
// of the member holding it, if any.
func (b *Book) Snapshot(holderName string) BookRecord {
	rec := BookRecord{
		ID:           b.id,
		Title:        b.title,
		Author:       b.author,
		Genre:        b.genre,
		Issued:       b.issued,
		Reservations: b.Reservations(),
	}
	if b.issued {
		rec.IssuedTo = holderName
		rec.DueDate = b.dueDate.Format(time.DateOnly)
	}
	return rec
}

// MemberKind selects a member's borrowing policy.
type MemberKind int

const (
	Student MemberKind = iota + 1
	Teacher
	Guest
	Librarian
)

// Unlimited is the policy value used for librarians.
const Unlimited = math.MaxInt32

// Policy caps how many books a member may hold and for how long.
type Policy struct {
	MaxBooks int
	MaxDays  int
}

var policies = map[MemberKind]Policy{
	Student:   {MaxBooks: 3, MaxDays: 14},
	Teacher:   {MaxBooks: 5, MaxDays: 30},
	Guest:     {MaxBooks: 1, MaxDays: 7},
	Librarian: {MaxBooks: Unlimited, MaxDays: Unlimited},
}

// PolicyFor returns the borrowing policy of kind.
func PolicyFor(kind MemberKind) (Policy, bool) {
	p, ok := policies[kind]
	return p, ok
}

func (k MemberKind) String() string {
	switch k {
	case Student:
		return "Student"
	case Teacher:
		return "Teacher"
	case Guest:
		return "Guest"
	case Librarian:
		return "Librarian"
	default:
		return fmt.Sprintf("MemberKind(%d)", int(k))
	}
}

// ParseMemberKind accepts a kind name in any case.
func ParseMemberKind(s string) (MemberKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return Student, nil
	case "teacher":
		return Teacher, nil
	case "guest":
		return Guest, nil
	case "librarian":
		return Librarian, nil
	}
	return 0, fmt.Errorf("unknown member kind %q", s)
}

// Member is a registered borrower. Email and phone are the keys the Library
// uses to reject duplicate registrations.
type Member struct {
	id     uuid.UUID
	name   string
	email  string
	phone  string
	kind   MemberKind
	policy Policy

	issued []uuid.UUID
}

// NewMember creates a member whose limits follow kind. It panics on an
// unknown kind, which is a programming error rather than bad input; use
// ParseMemberKind to validate external values first.
func NewMember(kind MemberKind, name, email, phone string) *Member {
	p, ok := PolicyFor(kind)
	if !ok {
		panic(fmt.Sprintf("library: no policy for %v", kind))
	}
	return &Member{
		id:     uuid.New(),
		name:   name,
		email:  email,
		phone:  phone,
		kind:   kind,
		policy: p,
	}
}

func NewStudent(name, email, phone string) *Member   { return NewMember(Student, name, email, phone) }
func NewTeacher(name, email, phone string) *Member   { return NewMember(Teacher, name, email, phone) }
func NewGuest(name, email, phone string) *Member     { return NewMember(Guest, name, email, phone) }
func NewLibrarian(name, email, phone string) *Member { return NewMember(Librarian, name, email, phone) }

func (m *Member) ID() uuid.UUID        { return m.id }
func (m *Member) Name() string         { return m.name }
func (m *Member) Email() string        { return m.email }
func (m *Member) Phone() string        { return m.phone }
func (m *Member) Kind() MemberKind     { return m.kind }
func (m *Member) MemberType() string   { return m.kind.String() }
func (m *Member) MaxBooksAllowed() int { return m.policy.MaxBooks }
func (m *Member) MaxAllowedDays() int  { return m.policy.MaxDays }

// IssuedBooks returns a copy of the IDs of books the member currently holds.
func (m *Member) IssuedBooks() []uuid.UUID { return slices.Clone(m.issued) }

func (m *Member) atLimit() bool { return len(m.issued) >= m.policy.MaxBooks }

func (m *Member) holds(bookID uuid.UUID) bool { return slices.Contains(m.issued, bookID) }

func (m *Member) addIssued(bookID uuid.UUID) { m.issued = append(m.issued, bookID) }

func (m *Member) removeIssued(bookID uuid.UUID) {
	if i := slices.Index(m.issued, bookID); i >= 0 {
		m.issued = slices.Delete(m.issued, i, i+1)
	}
}

// MemberRecord is a serializable snapshot of a member.
type MemberRecord struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Type        string      `json:"type"`
	IssuedBooks []uuid.UUID `json:"issued_books,omitempty"`
}

func (m *Member) Snapshot() MemberRecord {
	return MemberRecord{
		ID:          m.id,
		Name:        m.name,
		Email:       m.email,
		Phone:       m.phone,
		Type:        m.MemberType(),
		IssuedBooks: m.IssuedBooks(),
	}
}
