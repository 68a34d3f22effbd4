package library

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Book is a catalog item and its current availability.
type Book struct {
	ID        int    `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Author    string `json:"author" yaml:"author"`
	Available bool   `json:"available" yaml:"-"`
}

// NewBook returns an available book.
func NewBook(id int, title, author string) Book {
	return Book{ID: id, Title: title, Author: author, Available: true}
}

// Borrow marks the book as lent out. Whether that is allowed is decided by the Library.
func (b *Book) Borrow() { b.Available = false }

// Return marks the book as available again.
func (b *Book) Return() { b.Available = true }

// User is a registered patron and the ids of the books they currently hold.
type User struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	borrowed []int
}

func NewUser(id int, name string) User {
	return User{ID: id, Name: name}
}

// BorrowBook appends bookID to the held set.
func (u *User) BorrowBook(bookID int) {
	u.borrowed = append(u.borrowed, bookID)
}

// ReturnBook drops every occurrence of bookID from the held set.
func (u *User) ReturnBook(bookID int) {
	u.borrowed = slices.DeleteFunc(u.borrowed, func(id int) bool { return id == bookID })
}

// BorrowedBooks returns a copy of the held set in borrow order.
func (u User) BorrowedBooks() []int {
	return slices.Clone(u.borrowed)
}

func (u User) Holds(bookID int) bool {
	return slices.Contains(u.borrowed, bookID)
}

// clone detaches the held set so callers cannot mutate store state.
func (u User) clone() User {
	u.borrowed = slices.Clone(u.borrowed)
	return u
}

// Loan records one borrow of a book by a user. It is active until ReturnedAt is set.
type Loan struct {
	ID         uuid.UUID  `json:"id"`
	BookID     int        `json:"book_id"`
	UserID     int        `json:"user_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

func (l Loan) Active() bool { return l.ReturnedAt == nil }
