package library

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the catalog in a private in-memory SQLite database. The
// database disappears when the store is closed or the process exits.
type SQLiteStore struct {
	db *sql.DB

	addBookStmt *sql.Stmt
	addUserStmt *sql.Stmt
}

// NewSQLiteStore opens a fresh in-memory database, applies the schema and
// prepares common statements.
func NewSQLiteStore() (*SQLiteStore, error) {
	// A named shared-cache database lets every pooled connection see the same
	// data; the random name keeps stores isolated from each other.
	dsn := fmt.Sprintf("file:catalog-%s?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=1", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The database lives as long as one connection stays open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases prepared statements and drops the database.
func (s *SQLiteStore) Close() error {
	if s.addBookStmt != nil {
		s.addBookStmt.Close()
	}
	if s.addUserStmt != nil {
		s.addUserStmt.Close()
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
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

	// seq columns carry collection order; id columns are the caller's identifiers.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id INTEGER NOT NULL UNIQUE,
            name TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id INTEGER NOT NULL UNIQUE,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            available BOOLEAN NOT NULL DEFAULT 1
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            id TEXT NOT NULL UNIQUE,
            book_id INTEGER NOT NULL,
            user_id INTEGER NOT NULL REFERENCES users(id),
            borrowed_at DATETIME NOT NULL,
            returned_at DATETIME
        );`,
		`CREATE INDEX IF NOT EXISTS idx_loans_active ON loans(user_id, book_id) WHERE returned_at IS NULL;`,
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

func (s *SQLiteStore) prepareStatements() error {
	var err error
	if s.addBookStmt, err = s.db.Prepare(`INSERT INTO books(id,title,author,available) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	if s.addUserStmt, err = s.db.Prepare(`INSERT INTO users(id,name) VALUES(?,?)`); err != nil {
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

func (s *SQLiteStore) AddBook(b Book) error {
	if _, err := s.addBookStmt.Exec(b.ID, b.Title, b.Author, b.Available); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("add book %d: %w", b.ID, ErrDuplicateBook)
		}
		return fmt.Errorf("add book %d: %w", b.ID, err)
	}
	return nil
}

func (s *SQLiteStore) RemoveBook(id int) error {
	res, err := s.db.Exec(`DELETE FROM books WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("remove book %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("remove book %d: %w", id, ErrBookNotFound)
	}
	return nil
}

func (s *SQLiteStore) GetBook(id int) (Book, error) {
	var b Book
	err := s.db.QueryRow(`SELECT id,title,author,available FROM books WHERE id=?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.Available)
	if errors.Is(err, sql.ErrNoRows) {
		return Book{}, fmt.Errorf("book %d: %w", id, ErrBookNotFound)
	}
	if err != nil {
		return Book{}, fmt.Errorf("book %d: %w", id, err)
	}
	return b, nil
}

func (s *SQLiteStore) ListBooks() ([]Book, error) {
	return s.queryBooks(`SELECT id,title,author,available FROM books ORDER BY seq`)
}

// SearchTitles uses instr, which is case-sensitive (LIKE is not).
func (s *SQLiteStore) SearchTitles(keyword string) ([]Book, error) {
	return s.queryBooks(`SELECT id,title,author,available FROM books WHERE instr(title, ?) > 0 ORDER BY seq`, keyword)
}

func (s *SQLiteStore) queryBooks(query string, args ...any) ([]Book, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Available); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *SQLiteStore) AddUser(u User) error {
	if _, err := s.addUserStmt.Exec(u.ID, u.Name); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("register user %d: %w", u.ID, ErrDuplicateUser)
		}
		return fmt.Errorf("register user %d: %w", u.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(id int) (User, error) {
	u := User{}
	err := s.db.QueryRow(`SELECT id,name FROM users WHERE id=?`, id).Scan(&u.ID, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("user %d: %w", id, err)
	}
	if u.borrowed, err = s.heldBy(id); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *SQLiteStore) ListUsers() ([]User, error) {
	rows, err := s.db.Query(`SELECT id,name FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			rows.Close()
			return nil, err
		}
		users = append(users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Held sets are read after the cursor is closed; the pool has one connection.
	for i := range users {
		if users[i].borrowed, err = s.heldBy(users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// heldBy returns the books userID has on active loan, in borrow order.
func (s *SQLiteStore) heldBy(userID int) ([]int, error) {
	rows, err := s.db.Query(`SELECT book_id FROM loans WHERE user_id=? AND returned_at IS NULL ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var held []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		held = append(held, id)
	}
	return held, rows.Err()
}

// ---------------------------------------------------------------------------
// Circulation
// ---------------------------------------------------------------------------

// Checkout records the loan and updates availability in one transaction.
func (s *SQLiteStore) Checkout(loan Loan) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE books SET available=0 WHERE id=?`, loan.BookID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("book %d: %w", loan.BookID, ErrBookNotFound)
	}

	if _, err := tx.Exec(`INSERT INTO loans(id,book_id,user_id,borrowed_at) VALUES(?,?,?,?)`,
		loan.ID.String(), loan.BookID, loan.UserID, loan.BorrowedAt); err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return fmt.Errorf("user %d: %w", loan.UserID, ErrUserNotFound)
		}
		return err
	}
	return tx.Commit()
}

// Checkin closes the active loan for the pair and makes the book available.
func (s *SQLiteStore) Checkin(bookID, userID int, at time.Time) (Loan, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return Loan{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE books SET available=1 WHERE id=?`, bookID)
	if err != nil {
		return Loan{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Loan{}, fmt.Errorf("book %d: %w", bookID, ErrBookNotFound)
	}

	var (
		loan     Loan
		loanID   string
		returned = at
	)
	err = tx.QueryRow(`SELECT id,book_id,user_id,borrowed_at FROM loans
        WHERE book_id=? AND user_id=? AND returned_at IS NULL ORDER BY seq LIMIT 1`, bookID, userID).
		Scan(&loanID, &loan.BookID, &loan.UserID, &loan.BorrowedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Nothing to close; the book is still made available.
	case err != nil:
		return Loan{}, err
	default:
		if loan.ID, err = uuid.Parse(loanID); err != nil {
			return Loan{}, fmt.Errorf("loan id %q: %w", loanID, err)
		}
		if _, err := tx.Exec(`UPDATE loans SET returned_at=? WHERE book_id=? AND user_id=? AND returned_at IS NULL`,
			at, bookID, userID); err != nil {
			return Loan{}, err
		}
		loan.ReturnedAt = &returned
	}

	return loan, tx.Commit()
}

func (s *SQLiteStore) Loans() ([]Loan, error) {
	rows, err := s.db.Query(`SELECT id,book_id,user_id,borrowed_at,returned_at FROM loans ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := []Loan{}
	for rows.Next() {
		var (
			l        Loan
			id       string
			returned sql.NullTime
		)
		if err := rows.Scan(&id, &l.BookID, &l.UserID, &l.BorrowedAt, &returned); err != nil {
			return nil, err
		}
		if l.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("loan id %q: %w", id, err)
		}
		if returned.Valid {
			t := returned.Time
			l.ReturnedAt = &t
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
