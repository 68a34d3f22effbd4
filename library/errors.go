package library

import "errors"

var (
	ErrBookNotFound = errors.New("book not found")
	ErrUserNotFound = errors.New("user not found")

	// ErrAlreadyBorrowed is returned when the requested book is out on loan.
	ErrAlreadyBorrowed = errors.New("book is already borrowed")

	// ErrNotHeld is returned when a user returns a book they do not currently hold.
	ErrNotHeld = errors.New("book is not currently held by this user")

	ErrDuplicateBook = errors.New("book id already in catalog")
	ErrDuplicateUser = errors.New("user id already registered")

	// ErrBookOnLoan is returned when removing a book that is still borrowed.
	ErrBookOnLoan = errors.New("book is on loan")

	// ErrInconsistent reports a broken link between book availability and held sets.
	ErrInconsistent = errors.New("catalog state is inconsistent")
)

// Outcome tags the result of a Library operation.
type Outcome string

const (
	Success         Outcome = "SUCCESS"
	BookNotFound    Outcome = "BOOK_NOT_FOUND"
	UserNotFound    Outcome = "USER_NOT_FOUND"
	AlreadyBorrowed Outcome = "ALREADY_BORROWED"
	NotHeld         Outcome = "NOT_HELD"
	DuplicateID     Outcome = "DUPLICATE_ID"
	BookOnLoan      Outcome = "BOOK_ON_LOAN"
	Failure         Outcome = "FAILURE"
)

// OutcomeOf maps an operation error to its outcome tag. Errors that are not
// catalog conditions (store failures) map to Failure.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrBookNotFound):
		return BookNotFound
	case errors.Is(err, ErrUserNotFound):
		return UserNotFound
	case errors.Is(err, ErrAlreadyBorrowed):
		return AlreadyBorrowed
	case errors.Is(err, ErrNotHeld):
		return NotHeld
	case errors.Is(err, ErrDuplicateBook), errors.Is(err, ErrDuplicateUser):
		return DuplicateID
	case errors.Is(err, ErrBookOnLoan):
		return BookOnLoan
	default:
		return Failure
	}
}
