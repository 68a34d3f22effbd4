package library

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storeDrivers = []string{DriverMemory, DriverSQLite}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newLibrary(t *testing.T, driver string) *Library {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	lib, err := Open(driver,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(clock.Now),
	)
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })
	return lib
}

// seedDriverCatalog loads the books and users of the original console demo.
func seedDriverCatalog(t *testing.T, lib *Library) {
	t.Helper()
	require.NoError(t, lib.AddBook(NewBook(1, "C++ Fundamentals", "Bjarne Stroustrup")))
	require.NoError(t, lib.AddBook(NewBook(2, "Clean Code", "Robert C. Martin")))
	require.NoError(t, lib.AddBook(NewBook(3, "The Pragmatic Programmer", "Andy Hunt")))
	require.NoError(t, lib.RegisterUser(NewUser(101, "Alice")))
	require.NoError(t, lib.RegisterUser(NewUser(102, "Bob")))
}

func bookIDs(books []Book) []int {
	ids := make([]int, 0, len(books))
	for _, b := range books {
		ids = append(ids, b.ID)
	}
	return ids
}

func requireAvailable(t *testing.T, lib *Library, bookID int, want bool) {
	t.Helper()
	b, err := lib.Book(bookID)
	require.NoError(t, err)
	assert.Equal(t, want, b.Available, "book %d availability", bookID)
}

func requireHeld(t *testing.T, lib *Library, userID int, want ...int) {
	t.Helper()
	u, err := lib.User(userID)
	require.NoError(t, err)
	if len(want) == 0 {
		assert.Empty(t, u.BorrowedBooks(), "user %d held set", userID)
		return
	}
	assert.Equal(t, want, u.BorrowedBooks(), "user %d held set", userID)
}

func forEachStore(t *testing.T, fn func(t *testing.T, lib *Library)) {
	for _, driver := range storeDrivers {
		t.Run(driver, func(t *testing.T) {
			fn(t, newLibrary(t, driver))
		})
	}
}

func Test_Library_DriverScenario(t *testing.T) {
	forEachStore(t, func(t *testing.T, lib *Library) {
		seedDriverCatalog(t, lib)

		_, err := lib.BorrowBook(101, 2)
		require.NoError(t, err)

		_, err = lib.BorrowBook(102, 2)
		assert.ErrorIs(t, err, ErrAlreadyBorrowed)

		found, err := lib.SearchBooksByTitle("Code")
		require.NoError(t, err)
		assert.Equal(t, []int{2}, bookIDs(found))
		assert.False(t, found[0].Available)

		_, err = lib.ReturnBook(101, 2)
		require.NoError(t, err)
		requireAvailable(t, lib, 2, true)

		_, err = lib.BorrowBook(102, 2)
		require.NoError(t, err)

		_, err = lib.ReturnBook(102, 3)
		assert.ErrorIs(t, err, ErrNotHeld)
		requireAvailable(t, lib, 3, true)

		_, err = lib.ReturnBook(102, 2)
		require.NoError(t, err)
		_, err = lib.ReturnBook(102, 2)
		assert.Equal(t, NotHeld, OutcomeOf(err))

		_, err = lib.BorrowBook(101, 99)
		assert.Equal(t, BookNotFound, OutcomeOf(err))

		_, err = lib.BorrowBook(999, 1)
		assert.Equal(t, UserNotFound, OutcomeOf(err))

		found, err = lib.SearchBooksByTitle("Quantum Physics")
		require.NoError(t, err)
		assert.NotNil(t, found)
		assert.Empty(t, found)

		books, err := lib.ListBooks()
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, bookIDs(books))
		for _, b := range books {
			assert.True(t, b.Available, "book %d", b.ID)
		}
		requireHeld(t, lib, 101)
		requireHeld(t, lib, 102)
		require.NoError(t, lib.Verify())
	})
}

func Test_Library_FailedBorrowLeavesStateUntouched(t *testing.T) {
	tests := []struct {
		name   string
		userID int
		bookID int
		want   Outcome
	}{
		{name: "unknown_book", userID: 101, bookID: 99, want: BookNotFound},
		{name: "unknown_user", userID: 999, bookID: 1, want: UserNotFound},
		{name: "unknown_both", userID: 999, bookID: 99, want: BookNotFound},
		{name: "already_borrowed", userID: 102, bookID: 2, want: AlreadyBorrowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			forEachStore(t, func(t *testing.T, lib *Library) {
				seedDriverCatalog(t, lib)
				_, err := lib.BorrowBook(101, 2)
				require.NoError(t, err)

				before, err := lib.Loans()
				require.NoError(t, err)

				loan, err := lib.BorrowBook(tc.userID, tc.bookID)
				assert.Equal(t, tc.want, OutcomeOf(err))
				assert.Equal(t, Loan{}, loan)

				after, err := lib.Loans()
				require.NoError(t, err)
				assert.Len(t, after, len(before))
				requireAvailable(t, lib, 1, true)
				requireAvailable(t, lib, 2, false)
				requireHeld(t, lib, 101, 2)
				requireHeld(t, lib, 102)
				require.NoError(t, lib.Verify())
			})
		})
	}
}

func Test_Library_ReturnErrors(t *testing.T) {
	forEachStore(t, func(t *testing.T, lib *Library) {
		seedDriverCatalog(t, lib)
		_, err := lib.BorrowBook(101, 1)
		require.NoError(t, err)

		_, err = lib.ReturnBook(101, 42)
		assert.ErrorIs(t, err, ErrBookNotFound)

		_, err = lib.ReturnBook(404, 1)
		assert.ErrorIs(t, err, ErrUserNotFound)

		// Bob cannot hand back Alice's book.
		_, err = lib.ReturnBook(102, 1)
		assert.ErrorIs(t, err, ErrNotHeld)
		requireAvailable(t, lib, 1, false)
		requireHeld(t, lib, 101, 1)

		require.NoError(t, lib.Verify())
	})
}

func Test_Library_LoanLedger(t *testing.T) {
	forEachStore(t, func(t *testing.T, lib *Library) {
		seedDriverCatalog(t, lib)

		first, err := lib.BorrowBook(101, 2)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, first.ID)
		assert.True(t, first.Active())

		returned, err := lib.ReturnBook(101, 2)
		require.NoError(t, err)
		assert.Equal(t, first.ID, returned.ID)
		require.NotNil(t, returned.ReturnedAt)
		assert.True(t, returned.ReturnedAt.After(first.BorrowedAt))

		second, err := lib.BorrowBook(102, 2)
		require.NoError(t, err)

		loans, err := lib.Loans()
		require.NoError(t, err)
		require.Len(t, loans, 2)
		assert.Equal(t, first.ID, loans[0].ID)
		assert.False(t, loans[0].Active())
		assert.Equal(t, second.ID, loans[1].ID)
		assert.Equal(t, 102, loans[1].UserID)
		assert.True(t, loans[1].Active())
	})
}

func Test_Library_HeldSetKeepsBorrowOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, lib *Library) {
		seedDriverCatalog(t, lib)
		for _, id := range []int{3, 1, 2} {
			_, err := lib.BorrowBook(101, id)
			require.NoError(t, err)
		}
		requireHeld(t, lib, 101, 3, 1, 2)

		_, err := lib.ReturnBook(101, 1)
		require.NoError(t, err)
		requireHeld(t, lib, 101, 3, 2)
		require.NoError(t, lib.Verify())
	})
}

func Test_Library_DuplicateIDsRejected(t *testing.T) {
	forEachStore(t, func(t *testing.T, lib *Library) {
		seedDriverCatalog(t, lib)

		err := lib.AddBook(NewBook(2, "Another Clean Code", "Someone Else"))
		assert.ErrorIs(t, err, ErrDuplicateBook)
		assert.Equal(t, DuplicateID, OutcomeOf(err))

		err = lib.RegisterUser(NewUser(101, "Alice Again"))
		assert.ErrorIs(t, err, ErrDuplicateUser)

		b, err := lib.Book(2)
		require.NoError(t, err)
		assert.Equal(t, "Clean Code", b.Title)

		users, err := lib.ListUsers()
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})
}

func Test_Library_AddBookStartsAvailable(t *testing.T) {
	forEachStore(t, func(t *testing.T, lib *Library) {
		require.NoError(t, lib.AddBook(Book{ID: 7, Title: "Refactoring", Author: "Martin Fowler"}))
		requireAvailable(t, lib, 7, true)
	})
}

func Test_Library_RemoveBook(t *testing.T) {
	forEachStore(t, func(t *testing.T, lib *Library) {
		seedDriverCatalog(t, lib)

		_, err := lib.BorrowBook(101, 2)
		require.NoError(t, err)

		err = lib.RemoveBook(2)
		assert.ErrorIs(t, err, ErrBookOnLoan)
		assert.Equal(t, BookOnLoan, OutcomeOf(err))
		requireAvailable(t, lib, 2, false)

		assert.ErrorIs(t, lib.RemoveBook(99), ErrBookNotFound)

		require.NoError(t, lib.RemoveBook(1))
		_, err = lib.Book(1)
		assert.ErrorIs(t, err, ErrBookNotFound)

		_, err = lib.ReturnBook(101, 2)
		require.NoError(t, err)
		require.NoError(t, lib.RemoveBook(2))

		// Re-adding a removed id goes to the end of the collection.
		require.NoError(t, lib.AddBook(NewBook(1, "C++ Fundamentals", "Bjarne Stroustrup")))
		books, err := lib.ListBooks()
		require.NoError(t, err)
		assert.Equal(t, []int{3, 1}, bookIDs(books))
		require.NoError(t, lib.Verify())
	})
}

func Test_Library_SearchIsCaseSensitiveSubstring(t *testing.T) {
	forEachStore(t, func(t *testing.T, lib *Library) {
		seedDriverCatalog(t, lib)
		require.NoError(t, lib.AddBook(NewBook(4, "Code Complete", "Steve McConnell")))

		found, err := lib.SearchBooksByTitle("Code")
		require.NoError(t, err)
		assert.Equal(t, []int{2, 4}, bookIDs(found))

		found, err = lib.SearchBooksByTitle("code")
		require.NoError(t, err)
		assert.Empty(t, found)

		found, err = lib.SearchBooksByTitle("Prag")
		require.NoError(t, err)
		assert.Equal(t, []int{3}, bookIDs(found))

		found, err = lib.SearchBooksByTitle("")
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3, 4}, bookIDs(found))
	})
}

func Test_Library_VerifyDetectsBrokenStore(t *testing.T) {
	store := NewMemoryStore()
	lib := New(store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	seedDriverCatalog(t, lib)

	// Flip availability behind the Library's back.
	store.books[0].Borrow()
	err := lib.Verify()
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Contains(t, err.Error(), "book 1 is borrowed but held 0 time(s)")
}

func Test_OutcomeOf(t *testing.T) {
	assert.Equal(t, Success, OutcomeOf(nil))
	assert.Equal(t, Failure, OutcomeOf(io.ErrUnexpectedEOF))
	assert.Equal(t, "no such user", UserNotFound.Reason())
}
