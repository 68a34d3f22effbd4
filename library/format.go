package library

import "fmt"

// Status is the bracketed availability label used in listings.
func (b Book) Status() string {
	if b.Available {
		return "[Available]"
	}
	return "[Borrowed]"
}

// PrettyBook formats a book as a single listing line.
func PrettyBook(b Book) string {
	return fmt.Sprintf("%d: %s by %s %s", b.ID, b.Title, b.Author, b.Status())
}

// Reason is a short human-readable explanation of an outcome.
func (o Outcome) Reason() string {
	switch o {
	case Success:
		return "ok"
	case BookNotFound:
		return "no such book"
	case UserNotFound:
		return "no such user"
	case AlreadyBorrowed:
		return "book is already borrowed"
	case NotHeld:
		return "user does not hold this book"
	case DuplicateID:
		return "id already in use"
	case BookOnLoan:
		return "book is on loan"
	default:
		return "internal error"
	}
}
