package library

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN keeps the journal in process memory.
const MemoryDSN = ":memory:"

// Database is the circulation journal: an append-only SQLite history of
// catalog changes, checkouts and reservations. The Library never reads its
// state back from here.
type Database struct {
	db *sqlx.DB

	addChangeStmt   *sql.Stmt
	addCheckoutStmt *sql.Stmt
	addReserveStmt  *sql.Stmt
}

// CheckoutRecord is one loan. ReturnedOn is nil while the loan is open.
type CheckoutRecord struct {
	BookID     uuid.UUID `db:"book_id" json:"book_id"`
	MemberID   uuid.UUID `db:"member_id" json:"member_id"`
	IssuedOn   string    `db:"issued_on" json:"issued_on"`
	DueOn      string    `db:"due_on" json:"due_on"`
	ReturnedOn *string   `db:"returned_on" json:"returned_on,omitempty"`
}

// Reservation outcomes recorded once a queued member leaves the queue.
const (
	ReservationFulfilled = "fulfilled"
	ReservationDropped   = "dropped"
	ReservationDiscarded = "discarded"
)

// ReservationRecord is one queue entry. Outcome is empty while pending.
type ReservationRecord struct {
	BookID     uuid.UUID `db:"book_id" json:"book_id"`
	MemberID   uuid.UUID `db:"member_id" json:"member_id"`
	ReservedOn string    `db:"reserved_on" json:"reserved_on"`
	Outcome    string    `db:"outcome" json:"outcome,omitempty"`
	ResolvedOn *string   `db:"resolved_on" json:"resolved_on,omitempty"`
}

// ReturnEntry is everything a single Library.ReturnBook did, journaled in
// one transaction.
type ReturnEntry struct {
	BookID       uuid.UUID
	ReturnedBy   uuid.UUID
	On           time.Time
	ReassignedTo uuid.UUID
	DueOn        time.Time
	Dropped      uuid.UUID
}

// NewDatabase opens (or creates) the journal at dbPath, applies schema
// migrations, and prepares common statements. Pass MemoryDSN for a journal
// that lives only as long as the process.
func NewDatabase(dbPath string) (*Database, error) {
	dsn := "file::memory:?_foreign_keys=1"
	if dbPath != MemoryDSN {
		// Ensure directory exists so first-run succeeds.
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db.DB, dbPath != MemoryDSN); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sql.Stmt{d.addChangeStmt, d.addCheckoutStmt, d.addReserveStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB, onDisk bool) error {
	if onDisk {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("enable WAL: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS catalog_changes (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id TEXT NOT NULL,
            title TEXT NOT NULL,
            action TEXT NOT NULL CHECK (action IN ('added','removed')),
            changed_on TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS checkouts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id TEXT NOT NULL,
            member_id TEXT NOT NULL,
            issued_on TEXT NOT NULL,
            due_on TEXT NOT NULL,
            returned_on TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id TEXT NOT NULL,
            member_id TEXT NOT NULL,
            reserved_on TEXT NOT NULL,
            outcome TEXT,
            resolved_on TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS idx_checkouts_book ON checkouts(book_id);`,
		`CREATE INDEX IF NOT EXISTS idx_checkouts_member ON checkouts(member_id);`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_book ON reservations(book_id);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addChangeStmt, err = d.db.Prepare(`INSERT INTO catalog_changes(book_id,title,action,changed_on) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.addCheckoutStmt, err = d.db.Prepare(`INSERT INTO checkouts(book_id,member_id,issued_on,due_on) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if d.addReserveStmt, err = d.db.Prepare(`INSERT INTO reservations(book_id,member_id,reserved_on) VALUES(?,?,?)`); err != nil {
		return err
	}
	return nil
}

func day(t time.Time) string { return t.Format(time.DateOnly) }

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// RecordBookAdded notes a catalog addition.
func (d *Database) RecordBookAdded(bookID uuid.UUID, title string, on time.Time) error {
	_, err := d.addChangeStmt.Exec(bookID.String(), title, "added", day(on))
	return err
}

// RecordBookRemoved notes a catalog removal and marks any pending
// reservations for the book as discarded.
func (d *Database) RecordBookRemoved(bookID uuid.UUID, title string, on time.Time) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Stmt(d.addChangeStmt).Exec(bookID.String(), title, "removed", day(on)); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE reservations SET outcome=?, resolved_on=? WHERE book_id=? AND outcome IS NULL`,
		ReservationDiscarded, day(on), bookID.String()); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordCheckout opens a loan.
func (d *Database) RecordCheckout(bookID, memberID uuid.UUID, issuedOn, dueOn time.Time) error {
	_, err := d.addCheckoutStmt.Exec(bookID.String(), memberID.String(), day(issuedOn), day(dueOn))
	return err
}

// RecordReservation appends a pending queue entry.
func (d *Database) RecordReservation(bookID, memberID uuid.UUID, on time.Time) error {
	_, err := d.addReserveStmt.Exec(bookID.String(), memberID.String(), day(on))
	return err
}

// RecordReturn closes the returning member's loan and, within the same
// transaction, records the hand-off to the next member in the queue or the
// loss of that member's place.
func (d *Database) RecordReturn(e ReturnEntry) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE checkouts SET returned_on=? WHERE book_id=? AND member_id=? AND returned_on IS NULL`,
		day(e.On), e.BookID.String(), e.ReturnedBy.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no open checkout for book %s by member %s", e.BookID, e.ReturnedBy)
	}

	if e.ReassignedTo != uuid.Nil {
		if _, err := tx.Stmt(d.addCheckoutStmt).Exec(e.BookID.String(), e.ReassignedTo.String(), day(e.On), day(e.DueOn)); err != nil {
			return err
		}
		if err := resolveReservation(tx, e.BookID, e.ReassignedTo, ReservationFulfilled, e.On); err != nil {
			return err
		}
	}
	if e.Dropped != uuid.Nil {
		if err := resolveReservation(tx, e.BookID, e.Dropped, ReservationDropped, e.On); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// resolveReservation closes the member's oldest pending entry for the book.
func resolveReservation(tx *sql.Tx, bookID, memberID uuid.UUID, outcome string, on time.Time) error {
	_, err := tx.Exec(`UPDATE reservations SET outcome=?, resolved_on=?
        WHERE id = (SELECT id FROM reservations WHERE book_id=? AND member_id=? AND outcome IS NULL ORDER BY id ASC LIMIT 1)`,
		outcome, day(on), bookID.String(), memberID.String())
	return err
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// CheckoutHistory returns every loan of a book, oldest first.
func (d *Database) CheckoutHistory(bookID uuid.UUID) ([]CheckoutRecord, error) {
	return d.selectCheckouts(goqu.Ex{"book_id": bookID.String()})
}

// MemberCheckouts returns every loan made to a member, oldest first.
func (d *Database) MemberCheckouts(memberID uuid.UUID) ([]CheckoutRecord, error) {
	return d.selectCheckouts(goqu.Ex{"member_id": memberID.String()})
}

func (d *Database) selectCheckouts(where goqu.Ex) ([]CheckoutRecord, error) {
	query, args, err := goqu.Dialect("sqlite3").
		From("checkouts").
		Select("book_id", "member_id", "issued_on", "due_on", "returned_on").
		Where(where).
		Order(goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build checkout query: %w", err)
	}
	var out []CheckoutRecord
	if err := d.db.Select(&out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// ReservationHistory returns every queue entry for a book, oldest first.
func (d *Database) ReservationHistory(bookID uuid.UUID) ([]ReservationRecord, error) {
	query, args, err := goqu.Dialect("sqlite3").
		From("reservations").
		Select("book_id", "member_id", "reserved_on",
			goqu.COALESCE(goqu.C("outcome"), "").As("outcome"), "resolved_on").
		Where(goqu.Ex{"book_id": bookID.String()}).
		Order(goqu.I("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build reservation query: %w", err)
	}
	var out []ReservationRecord
	if err := d.db.Select(&out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}
