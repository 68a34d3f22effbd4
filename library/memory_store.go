package library

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// MemoryStore keeps the catalog in plain slices. Lookups are linear scans and
// the first match wins.
type MemoryStore struct {
	books []Book
	users []User
	loans []Loan
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Close() error { return nil }

// ------------------ Books ------------------

func (m *MemoryStore) findBook(id int) *Book {
	for i := range m.books {
		if m.books[i].ID == id {
			return &m.books[i]
		}
	}
	return nil
}

func (m *MemoryStore) AddBook(b Book) error {
	if m.findBook(b.ID) != nil {
		return fmt.Errorf("add book %d: %w", b.ID, ErrDuplicateBook)
	}
	m.books = append(m.books, b)
	return nil
}

func (m *MemoryStore) RemoveBook(id int) error {
	n := len(m.books)
	m.books = slices.DeleteFunc(m.books, func(b Book) bool { return b.ID == id })
	if len(m.books) == n {
		return fmt.Errorf("remove book %d: %w", id, ErrBookNotFound)
	}
	return nil
}

func (m *MemoryStore) GetBook(id int) (Book, error) {
	b := m.findBook(id)
	if b == nil {
		return Book{}, fmt.Errorf("book %d: %w", id, ErrBookNotFound)
	}
	return *b, nil
}

func (m *MemoryStore) ListBooks() ([]Book, error) {
	return slices.Clone(m.books), nil
}

// SearchTitles does a case-sensitive substring match in collection order.
func (m *MemoryStore) SearchTitles(keyword string) ([]Book, error) {
	results := []Book{}
	for _, b := range m.books {
		if strings.Contains(b.Title, keyword) {
			results = append(results, b)
		}
	}
	return results, nil
}

// ------------------ Users ------------------

func (m *MemoryStore) findUser(id int) *User {
	for i := range m.users {
		if m.users[i].ID == id {
			return &m.users[i]
		}
	}
	return nil
}

func (m *MemoryStore) AddUser(u User) error {
	if m.findUser(u.ID) != nil {
		return fmt.Errorf("register user %d: %w", u.ID, ErrDuplicateUser)
	}
	m.users = append(m.users, u.clone())
	return nil
}

func (m *MemoryStore) GetUser(id int) (User, error) {
	u := m.findUser(id)
	if u == nil {
		return User{}, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	return u.clone(), nil
}

func (m *MemoryStore) ListUsers() ([]User, error) {
	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u.clone())
	}
	return users, nil
}

// ------------------ Circulation ------------------

func (m *MemoryStore) Checkout(loan Loan) error {
	b := m.findBook(loan.BookID)
	if b == nil {
		return fmt.Errorf("book %d: %w", loan.BookID, ErrBookNotFound)
	}
	u := m.findUser(loan.UserID)
	if u == nil {
		return fmt.Errorf("user %d: %w", loan.UserID, ErrUserNotFound)
	}
	b.Borrow()
	u.BorrowBook(b.ID)
	m.loans = append(m.loans, loan)
	return nil
}

func (m *MemoryStore) Checkin(bookID, userID int, at time.Time) (Loan, error) {
	b := m.findBook(bookID)
	if b == nil {
		return Loan{}, fmt.Errorf("book %d: %w", bookID, ErrBookNotFound)
	}
	u := m.findUser(userID)
	if u == nil {
		return Loan{}, fmt.Errorf("user %d: %w", userID, ErrUserNotFound)
	}
	b.Return()
	u.ReturnBook(bookID)

	var closed Loan
	for i := range m.loans {
		l := &m.loans[i]
		if l.BookID == bookID && l.UserID == userID && l.Active() {
			returned := at
			l.ReturnedAt = &returned
			closed = *l
		}
	}
	return closed, nil
}

func (m *MemoryStore) Loans() ([]Loan, error) {
	return slices.Clone(m.loans), nil
}
