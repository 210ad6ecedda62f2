package library

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReissuePolicy decides what ReturnBook does when the head of a reservation
// queue cannot take the book because they are at their borrowing limit.
type ReissuePolicy int

const (
	// ReissueStrict propagates ErrLimitReached out of ReturnBook. The book
	// stays available and the dequeued member loses their place.
	ReissueStrict ReissuePolicy = iota
	// ReissueSkipIneligible passes over members at their limit, leaving them
	// queued in their original order, and issues to the first eligible one.
	ReissueSkipIneligible
)

func (p ReissuePolicy) String() string {
	switch p {
	case ReissueStrict:
		return "strict"
	case ReissueSkipIneligible:
		return "skip-ineligible"
	default:
		return fmt.Sprintf("ReissuePolicy(%d)", int(p))
	}
}

// ParseReissuePolicy accepts the names produced by String.
func ParseReissuePolicy(s string) (ReissuePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return ReissueStrict, nil
	case "skip-ineligible":
		return ReissueSkipIneligible, nil
	}
	return 0, fmt.Errorf("unknown reissue policy %q", s)
}

// Outcome tells the caller of IssueBook what actually happened.
type Outcome int

const (
	OutcomeIssued Outcome = iota + 1
	OutcomeReserved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIssued:
		return "issued"
	case OutcomeReserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// ReturnResult describes a return. ReassignedTo is uuid.Nil when the book
// went back on the shelf. Skipped lists members passed over under
// ReissueSkipIneligible. Dropped is the member dequeued under ReissueStrict
// whose reissue failed; ReturnBook then also returns the error, but the
// return itself has already happened.
type ReturnResult struct {
	ReturnedBy   uuid.UUID
	ReassignedTo uuid.UUID
	Skipped      []uuid.UUID
	Dropped      uuid.UUID
}

// IssuedStatus is one line of a member's loan report.
type IssuedStatus struct {
	Book          *Book
	DaysRemaining int64
}

// Option configures a Library.
type Option func(*Library)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(l *Library) { l.clock = c }
}

// WithReissuePolicy sets how returns hand books to reserved members.
func WithReissuePolicy(p ReissuePolicy) Option {
	return func(l *Library) { l.reissue = p }
}

// Library owns the catalog and the member registry. It is not safe for
// concurrent use.
type Library struct {
	books   []*Book
	members []*Member

	bookIndex   map[uuid.UUID]*Book
	memberIndex map[uuid.UUID]*Member

	clock   Clock
	reissue ReissuePolicy
}

// NewLibrary creates an empty library.
func NewLibrary(opts ...Option) *Library {
	l := &Library{
		bookIndex:   make(map[uuid.UUID]*Book),
		memberIndex: make(map[uuid.UUID]*Member),
		clock:       SystemClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Today returns the library's current calendar day.
func (l *Library) Today() time.Time { return l.clock.Today() }

// ReissuePolicy reports the configured return policy.
func (l *Library) ReissuePolicy() ReissuePolicy { return l.reissue }

// ------------------ Catalog ------------------

// AddBook appends book to the catalog. Identifiers are random, but
// uniqueness is still checked here rather than assumed.
func (l *Library) AddBook(book *Book) error {
	if _, ok := l.bookIndex[book.ID()]; ok {
		return newError(ErrCodeDuplicateID, "book %s already in catalog", book.ID())
	}
	l.books = append(l.books, book)
	l.bookIndex[book.ID()] = book
	return nil
}

// RemoveBook drops an available book from the catalog. Members waiting in
// its reservation queue are discarded without notice.
func (l *Library) RemoveBook(bookID uuid.UUID) error {
	book, err := l.Book(bookID)
	if err != nil {
		return err
	}
	if book.IsIssued() {
		return newError(ErrCodeInvalidState, "cannot remove %q while it is issued", book.Title())
	}
	l.books = slices.DeleteFunc(l.books, func(b *Book) bool { return b.ID() == bookID })
	delete(l.bookIndex, bookID)
	return nil
}

// Book looks up a catalog entry.
func (l *Library) Book(id uuid.UUID) (*Book, error) {
	b, ok := l.bookIndex[id]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", id, ErrBookNotFound)
	}
	return b, nil
}

// Books returns the catalog in insertion order.
func (l *Library) Books() []*Book { return slices.Clone(l.books) }

// SearchBooks yields, in catalog order, every book whose title, author or
// genre contains keyword, ignoring case. An empty keyword matches all books.
func (l *Library) SearchBooks(keyword string) iter.Seq[*Book] {
	kw := strings.ToLower(keyword)
	return func(yield func(*Book) bool) {
		for _, b := range l.books {
			if b.matches(kw) && !yield(b) {
				return
			}
		}
	}
}

// ------------------ Members ------------------

// RegisterMember adds m to the registry. Email and phone must each be
// unused by every existing member.
func (l *Library) RegisterMember(m *Member) error {
	for _, existing := range l.members {
		if existing.Email() == m.Email() || existing.Phone() == m.Phone() {
			return newError(ErrCodeDuplicateMember, "email %q or phone %q already registered", m.Email(), m.Phone())
		}
	}
	l.members = append(l.members, m)
	l.memberIndex[m.ID()] = m
	return nil
}

// Member looks up a registered member.
func (l *Library) Member(id uuid.UUID) (*Member, error) {
	m, ok := l.memberIndex[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, ErrMemberNotFound)
	}
	return m, nil
}

// Members returns the registry in registration order.
func (l *Library) Members() []*Member { return slices.Clone(l.members) }

// HolderName returns the name of the member holding book, or "" when it is
// available or the holder is unknown.
func (l *Library) HolderName(book *Book) string {
	if !book.IsIssued() {
		return ""
	}
	if m, ok := l.memberIndex[book.IssuedTo()]; ok {
		return m.Name()
	}
	return ""
}

// ------------------ Circulation ------------------

// IssueBook lends the book to the member for their policy's allowed days.
// When the book is already out, the member is queued instead and the
// outcome is OutcomeReserved.
func (l *Library) IssueBook(bookID, memberID uuid.UUID) (Outcome, error) {
	book, member, err := l.lookup(bookID, memberID)
	if err != nil {
		return 0, err
	}
	if book.IsIssued() {
		if err := l.reserve(book, member); err != nil {
			return 0, err
		}
		return OutcomeReserved, nil
	}
	if err := l.issue(book, member); err != nil {
		return 0, err
	}
	return OutcomeIssued, nil
}

func (l *Library) issue(book *Book, member *Member) error {
	if member.atLimit() {
		return newError(ErrCodeLimitReached, "%s has reached book limit (%d)", member.MemberType(), member.MaxBooksAllowed())
	}
	book.issueTo(member.ID(), member.MaxAllowedDays(), l.clock.Today())
	member.addIssued(book.ID())
	return nil
}

// ReturnBook takes the book back from the member. If anyone is waiting for
// it, the head of the queue gets it immediately; see ReissuePolicy for what
// happens when that member is at their limit.
func (l *Library) ReturnBook(bookID, memberID uuid.UUID) (ReturnResult, error) {
	book, member, err := l.lookup(bookID, memberID)
	if err != nil {
		return ReturnResult{}, err
	}
	if !member.holds(book.ID()) {
		return ReturnResult{}, newError(ErrCodeNotIssuedByMember, "%q was not issued to %s", book.Title(), member.Name())
	}
	member.removeIssued(book.ID())
	book.release()

	res := ReturnResult{ReturnedBy: member.ID()}
	switch l.reissue {
	case ReissueSkipIneligible:
		res.ReassignedTo, res.Skipped = l.handOffSkipping(book)
		return res, nil
	default:
		next, err := l.handOffStrict(book)
		if err != nil {
			res.Dropped = next
			return res, err
		}
		res.ReassignedTo = next
		return res, nil
	}
}

func (l *Library) handOffStrict(book *Book) (uuid.UUID, error) {
	nextID, ok := book.dequeue()
	if !ok {
		return uuid.Nil, nil
	}
	next, err := l.Member(nextID)
	if err != nil {
		return nextID, err
	}
	if err := l.issue(book, next); err != nil {
		return nextID, err
	}
	return nextID, nil
}

func (l *Library) handOffSkipping(book *Book) (uuid.UUID, []uuid.UUID) {
	var skipped []uuid.UUID
	for i, id := range book.queue {
		m, ok := l.memberIndex[id]
		if !ok || m.atLimit() {
			skipped = append(skipped, id)
			continue
		}
		book.queue = slices.Delete(book.queue, i, i+1)
		// issue cannot fail: the limit was checked above
		_ = l.issue(book, m)
		return id, skipped
	}
	return uuid.Nil, skipped
}

// ReserveBook queues the member for an issued book. The same member may be
// queued more than once, including the current holder.
func (l *Library) ReserveBook(bookID, memberID uuid.UUID) error {
	book, member, err := l.lookup(bookID, memberID)
	if err != nil {
		return err
	}
	return l.reserve(book, member)
}

func (l *Library) reserve(book *Book, member *Member) error {
	if !book.IsIssued() {
		return newError(ErrCodeInvalidState, "%q is available, no need to reserve", book.Title())
	}
	book.enqueue(member.ID())
	return nil
}

// ViewIssuedBooks reports each book the member holds with the days left
// until it is due. Overdue books have negative days.
func (l *Library) ViewIssuedBooks(memberID uuid.UUID) ([]IssuedStatus, error) {
	member, err := l.Member(memberID)
	if err != nil {
		return nil, err
	}
	today := l.clock.Today()
	out := make([]IssuedStatus, 0, len(member.issued))
	for _, id := range member.issued {
		book, ok := l.bookIndex[id]
		if !ok {
			continue
		}
		out = append(out, IssuedStatus{Book: book, DaysRemaining: daysBetween(today, book.DueDate())})
	}
	return out, nil
}

// ViewOverdueBooks returns, in catalog order, every issued book whose due
// date is strictly before today.
func (l *Library) ViewOverdueBooks() []*Book {
	today := l.clock.Today()
	var overdue []*Book
	for _, b := range l.books {
		if b.IsIssued() && b.DueDate().Before(today) {
			overdue = append(overdue, b)
		}
	}
	return overdue
}

func (l *Library) lookup(bookID, memberID uuid.UUID) (*Book, *Member, error) {
	book, err := l.Book(bookID)
	if err != nil {
		return nil, nil, err
	}
	member, err := l.Member(memberID)
	if err != nil {
		return nil, nil, err
	}
	return book, member, nil
}
