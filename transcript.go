package main

import (
	"fmt"
	"io"

	"library-catalog/library"
)

// transcript runs library operations and prints the outcome of each one as
// human-readable console lines.
type transcript struct {
	out io.Writer
	lib *library.Library
}

func (t transcript) listAllBooks() {
	books, err := t.lib.ListBooks()
	if err != nil {
		fmt.Fprintf(t.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(t.out, "Listing all books:")
	for _, b := range books {
		fmt.Fprintln(t.out, library.PrettyBook(b))
	}
}

func (t transcript) searchBooksByTitle(keyword string) {
	books, err := t.lib.SearchBooksByTitle(keyword)
	if err != nil {
		fmt.Fprintf(t.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(t.out, "Search results for title containing '%s':\n", keyword)
	for _, b := range books {
		fmt.Fprintln(t.out, library.PrettyBook(b))
	}
}

func (t transcript) borrowBook(userID, bookID int) library.Outcome {
	_, err := t.lib.BorrowBook(userID, bookID)
	outcome := library.OutcomeOf(err)
	if err != nil {
		fmt.Fprintf(t.out, "Cannot borrow book: %s.\n", outcome.Reason())
		return outcome
	}
	user, _ := t.lib.User(userID)
	book, _ := t.lib.Book(bookID)
	fmt.Fprintf(t.out, "%s borrowed: %s\n", user.Name, book.Title)
	return outcome
}

func (t transcript) returnBook(userID, bookID int) library.Outcome {
	_, err := t.lib.ReturnBook(userID, bookID)
	outcome := library.OutcomeOf(err)
	if err != nil {
		fmt.Fprintf(t.out, "Cannot return book: %s.\n", outcome.Reason())
		return outcome
	}
	user, _ := t.lib.User(userID)
	book, _ := t.lib.Book(bookID)
	fmt.Fprintf(t.out, "%s returned: %s\n", user.Name, book.Title)
	return outcome
}

// runDemo replays the original console walkthrough on lib.
func runDemo(out io.Writer, lib *library.Library) error {
	for _, b := range []library.Book{
		library.NewBook(1, "C++ Fundamentals", "Bjarne Stroustrup"),
		library.NewBook(2, "Clean Code", "Robert C. Martin"),
		library.NewBook(3, "The Pragmatic Programmer", "Andy Hunt"),
	} {
		if err := lib.AddBook(b); err != nil {
			return err
		}
	}
	for _, u := range []library.User{library.NewUser(101, "Alice"), library.NewUser(102, "Bob")} {
		if err := lib.RegisterUser(u); err != nil {
			return err
		}
	}

	t := transcript{out: out, lib: lib}
	t.listAllBooks()

	t.borrowBook(101, 2)
	t.borrowBook(102, 2)

	t.searchBooksByTitle("Code")

	t.returnBook(101, 2)
	t.borrowBook(102, 2)

	t.listAllBooks()

	fmt.Fprintln(out, "\n--- Test: Returning a book that wasn't borrowed (Fail) ---")
	t.returnBook(102, 3)

	fmt.Fprintln(out, "\n--- Test: Returning a book twice (Fail on second return) ---")
	t.returnBook(102, 2)
	t.returnBook(102, 2)

	fmt.Fprintln(out, "\n--- Test: Borrowing a non-existent book (Fail) ---")
	t.borrowBook(101, 99)

	fmt.Fprintln(out, "\n--- Test: Borrowing with invalid user (Fail) ---")
	t.borrowBook(999, 1)

	fmt.Fprintln(out, "\n--- Test: Searching for non-existent title ---")
	t.searchBooksByTitle("Quantum Physics")

	fmt.Fprintln(out, "\n--- Final Book List ---")
	t.listAllBooks()

	fmt.Fprintln(out, "\n--- End of Library Management System ---")
	return lib.Verify()
}
