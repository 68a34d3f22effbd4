package library

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Library is the aggregate root over the catalog. Every public method runs
// under one lock, so a borrow or return is observed either fully or not at all.
type Library struct {
	mu     sync.Mutex
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets the logger used for circulation events.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp loans.
func WithClock(now func() time.Time) Option {
	return func(l *Library) {
		if now != nil {
			l.now = now
		}
	}
}

// New returns a Library backed by store.
func New(store Store, opts ...Option) *Library {
	l := &Library{
		store:  store,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open builds a Library on a new store for driver.
func Open(driver string, opts ...Option) (*Library, error) {
	store, err := OpenStore(driver)
	if err != nil {
		return nil, err
	}
	return New(store, opts...), nil
}

// Close closes the underlying store.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Close()
}

// ------------------ Catalog ------------------

// AddBook adds b to the catalog as an available book.
func (l *Library) AddBook(b Book) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b.Available = true
	if err := l.store.AddBook(b); err != nil {
		l.logger.Info("add book rejected", "book_id", b.ID, "error", err)
		return err
	}
	l.logger.Debug("book added", "book_id", b.ID, "title", b.Title)
	return nil
}

// RemoveBook deletes a book. Books out on loan cannot be removed.
func (l *Library) RemoveBook(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := l.store.GetBook(id)
	if err != nil {
		l.logger.Info("remove book rejected", "book_id", id, "error", err)
		return err
	}
	if !b.Available {
		l.logger.Info("remove book rejected", "book_id", id, "error", ErrBookOnLoan)
		return fmt.Errorf("remove book %d: %w", id, ErrBookOnLoan)
	}
	if err := l.store.RemoveBook(id); err != nil {
		return err
	}
	l.logger.Info("book removed", "book_id", id)
	return nil
}

func (l *Library) Book(id int) (Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.GetBook(id)
}

// ListBooks returns every book in collection order.
func (l *Library) ListBooks() ([]Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.ListBooks()
}

// SearchBooksByTitle returns books whose title contains keyword (case-sensitive),
// in collection order. No match yields an empty slice.
func (l *Library) SearchBooksByTitle(keyword string) ([]Book, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.SearchTitles(keyword)
}

// ------------------ Users ------------------

// RegisterUser adds u with an empty held set.
func (l *Library) RegisterUser(u User) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	u.borrowed = nil
	if err := l.store.AddUser(u); err != nil {
		l.logger.Info("register user rejected", "user_id", u.ID, "error", err)
		return err
	}
	l.logger.Debug("user registered", "user_id", u.ID, "name", u.Name)
	return nil
}

func (l *Library) User(id int) (User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.GetUser(id)
}

// ListUsers returns every user in registration order.
func (l *Library) ListUsers() ([]User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.ListUsers()
}

// ------------------ Circulation ------------------

// BorrowBook lends bookID to userID. It fails without changing state when the
// book or user is unknown or the book is already out.
func (l *Library) BorrowBook(userID, bookID int) (Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	log := l.logger.With("user_id", userID, "book_id", bookID)

	book, err := l.store.GetBook(bookID)
	if err != nil {
		log.Info("borrow rejected", "error", err)
		return Loan{}, err
	}
	if _, err := l.store.GetUser(userID); err != nil {
		log.Info("borrow rejected", "error", err)
		return Loan{}, err
	}
	if !book.Available {
		log.Info("borrow rejected", "error", ErrAlreadyBorrowed)
		return Loan{}, fmt.Errorf("borrow book %d: %w", bookID, ErrAlreadyBorrowed)
	}

	loan := Loan{
		ID:         uuid.New(),
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: l.now(),
	}
	if err := l.store.Checkout(loan); err != nil {
		log.Error("checkout failed", "error", err)
		return Loan{}, fmt.Errorf("borrow book %d: %w", bookID, err)
	}
	log.Info("book borrowed", "loan_id", loan.ID)
	return loan, nil
}

// ReturnBook takes bookID back from userID. The user must currently hold the book.
func (l *Library) ReturnBook(userID, bookID int) (Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	log := l.logger.With("user_id", userID, "book_id", bookID)

	if _, err := l.store.GetBook(bookID); err != nil {
		log.Info("return rejected", "error", err)
		return Loan{}, err
	}
	user, err := l.store.GetUser(userID)
	if err != nil {
		log.Info("return rejected", "error", err)
		return Loan{}, err
	}
	if !user.Holds(bookID) {
		log.Info("return rejected", "error", ErrNotHeld)
		return Loan{}, fmt.Errorf("return book %d: %w", bookID, ErrNotHeld)
	}

	loan, err := l.store.Checkin(bookID, userID, l.now())
	if err != nil {
		log.Error("checkin failed", "error", err)
		return Loan{}, fmt.Errorf("return book %d: %w", bookID, err)
	}
	log.Info("book returned", "loan_id", loan.ID)
	return loan, nil
}

// Loans returns the loan ledger in borrow order, returned loans included.
func (l *Library) Loans() ([]Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Loans()
}

// ------------------ Integrity ------------------

// Verify checks that every unavailable book sits in exactly one held set and
// every held id refers to an unavailable book.
func (l *Library) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	books, err := l.store.ListBooks()
	if err != nil {
		return err
	}
	users, err := l.store.ListUsers()
	if err != nil {
		return err
	}

	holders := make(map[int]int)
	for _, u := range users {
		for _, id := range u.borrowed {
			holders[id]++
		}
	}

	var errs []error
	known := make(map[int]bool, len(books))
	for _, b := range books {
		known[b.ID] = true
		switch n := holders[b.ID]; {
		case b.Available && n > 0:
			errs = append(errs, fmt.Errorf("book %d is available but held %d time(s)", b.ID, n))
		case !b.Available && n != 1:
			errs = append(errs, fmt.Errorf("book %d is borrowed but held %d time(s)", b.ID, n))
		}
	}
	for id := range holders {
		if !known[id] {
			errs = append(errs, fmt.Errorf("held book %d is not in the catalog", id))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInconsistent, errors.Join(errs...))
	}
	return nil
}
