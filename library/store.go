package library

import (
	"fmt"
	"strings"
	"time"
)

// Store holds the catalog collections. Implementations keep books and users in
// insertion order and apply Checkout/Checkin as a single step. The Library
// serialises every call, so stores need no locking of their own.
type Store interface {
	AddBook(b Book) error
	RemoveBook(id int) error
	GetBook(id int) (Book, error)
	ListBooks() ([]Book, error)
	SearchTitles(keyword string) ([]Book, error)

	AddUser(u User) error
	GetUser(id int) (User, error)
	ListUsers() ([]User, error)

	// Checkout marks the book unavailable, appends it to the user's held set
	// and records the loan.
	Checkout(loan Loan) error
	// Checkin reverses Checkout and closes the active loan for the pair.
	Checkin(bookID, userID int, at time.Time) (Loan, error)
	Loans() ([]Loan, error)

	Close() error
}

// Store drivers accepted by OpenStore.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// OpenStore creates an empty store for driver.
func OpenStore(driver string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore()
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
