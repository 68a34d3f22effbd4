package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"library-catalog/library"

	"golang.org/x/term"
)

const defaultTableWidth = 60

// shell is the interactive command loop.
type shell struct {
	sc          *bufio.Scanner
	out         io.Writer
	lib         *library.Library
	interactive bool
	width       int
}

func newShell(in io.Reader, out io.Writer, lib *library.Library) *shell {
	sh := &shell{
		sc:    bufio.NewScanner(in),
		out:   out,
		lib:   lib,
		width: defaultTableWidth,
	}
	// Prompts are noise when input is piped, so only show them on a terminal.
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sh.interactive = true
	}
	if f, ok := out.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && w < defaultTableWidth {
			sh.width = w
		}
	}
	return sh
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, "Available commands:")
	fmt.Fprintln(sh.out, "  Books: add book, remove book, list books, search")
	fmt.Fprintln(sh.out, "  Users: add user, list users")
	fmt.Fprintln(sh.out, "  Circulation: borrow, return, loans")
	fmt.Fprintln(sh.out, "  System: check, help, exit")
}

func (sh *shell) run() {
	if sh.interactive {
		fmt.Fprintln(sh.out, "Welcome to the Library Catalog!")
		sh.printHelp()
	}

	t := transcript{out: sh.out, lib: sh.lib}
	for {
		if sh.interactive {
			fmt.Fprint(sh.out, "\n> ")
		}
		if !sh.sc.Scan() {
			break
		}
		cmd := strings.TrimSpace(sh.sc.Text())

		switch cmd {
		case "":
			continue
		case "add book":
			sh.handleAddBook()
		case "remove book":
			sh.handleRemoveBook()
		case "add user":
			sh.handleAddUser()
		case "list books":
			t.listAllBooks()
		case "list users":
			sh.handleListUsers()
		case "search":
			if keyword, ok := sh.prompt("Title contains: "); ok {
				t.searchBooksByTitle(keyword)
			}
		case "borrow":
			if userID, bookID, ok := sh.promptLoan(); ok {
				t.borrowBook(userID, bookID)
			}
		case "return":
			if userID, bookID, ok := sh.promptLoan(); ok {
				t.returnBook(userID, bookID)
			}
		case "loans":
			sh.handleListLoans()
		case "check":
			sh.handleCheck()
		case "help":
			sh.printHelp()
		case "exit":
			fmt.Fprintln(sh.out, "Goodbye!")
			return
		default:
			fmt.Fprintln(sh.out, "Unknown command. Type 'help' to see the available commands.")
		}
	}
}

// prompt prints label when interactive and reads one trimmed line.
func (sh *shell) prompt(label string) (string, bool) {
	if sh.interactive {
		fmt.Fprint(sh.out, label)
	}
	if !sh.sc.Scan() {
		return "", false
	}
	return strings.TrimSpace(sh.sc.Text()), true
}

func (sh *shell) promptInt(label string) (int, bool) {
	s, ok := sh.prompt(label + ": ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		fmt.Fprintf(sh.out, "Invalid %s: %s\n", strings.ToLower(label), s)
		return 0, false
	}
	return n, true
}

func (sh *shell) promptLoan() (userID, bookID int, ok bool) {
	if userID, ok = sh.promptInt("User ID"); !ok {
		return 0, 0, false
	}
	if bookID, ok = sh.promptInt("Book ID"); !ok {
		return 0, 0, false
	}
	return userID, bookID, true
}

func (sh *shell) handleAddBook() {
	id, ok := sh.promptInt("Book ID")
	if !ok {
		return
	}
	title, ok := sh.prompt("Title: ")
	if !ok {
		return
	}
	author, ok := sh.prompt("Author: ")
	if !ok {
		return
	}

	if err := sh.lib.AddBook(library.NewBook(id, title, author)); err != nil {
		fmt.Fprintf(sh.out, "Cannot add book: %s.\n", library.OutcomeOf(err).Reason())
		return
	}
	fmt.Fprintf(sh.out, "Added book %d: %s\n", id, title)
}

func (sh *shell) handleRemoveBook() {
	id, ok := sh.promptInt("Book ID")
	if !ok {
		return
	}
	if err := sh.lib.RemoveBook(id); err != nil {
		fmt.Fprintf(sh.out, "Cannot remove book: %s.\n", library.OutcomeOf(err).Reason())
		return
	}
	fmt.Fprintf(sh.out, "Removed book %d\n", id)
}

func (sh *shell) handleAddUser() {
	id, ok := sh.promptInt("User ID")
	if !ok {
		return
	}
	name, ok := sh.prompt("Name: ")
	if !ok {
		return
	}
	if err := sh.lib.RegisterUser(library.NewUser(id, name)); err != nil {
		fmt.Fprintf(sh.out, "Cannot register user: %s.\n", library.OutcomeOf(err).Reason())
		return
	}
	fmt.Fprintf(sh.out, "Registered user '%s' with ID %d\n", name, id)
}

func (sh *shell) handleListUsers() {
	users, err := sh.lib.ListUsers()
	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
		return
	}
	if len(users) == 0 {
		fmt.Fprintln(sh.out, "No users registered.")
		return
	}

	fmt.Fprintf(sh.out, "%-5s %-25s %s\n", "ID", "Name", "Borrowed")
	fmt.Fprintln(sh.out, strings.Repeat("-", sh.width))
	for _, u := range users {
		held := "None"
		if ids := u.BorrowedBooks(); len(ids) > 0 {
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = strconv.Itoa(id)
			}
			held = strings.Join(parts, ", ")
		}
		fmt.Fprintf(sh.out, "%-5d %-25s %s\n", u.ID, truncateString(u.Name, 25), held)
	}
}

func (sh *shell) handleListLoans() {
	loans, err := sh.lib.Loans()
	if err != nil {
		fmt.Fprintf(sh.out, "Error: %v\n", err)
		return
	}
	if len(loans) == 0 {
		fmt.Fprintln(sh.out, "No loans recorded.")
		return
	}

	fmt.Fprintf(sh.out, "%-8s %-6s %-6s %-20s %s\n", "Loan", "User", "Book", "Borrowed", "Returned")
	fmt.Fprintln(sh.out, strings.Repeat("-", sh.width))
	for _, l := range loans {
		returned := "-"
		if !l.Active() {
			returned = l.ReturnedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(sh.out, "%-8s %-6d %-6d %-20s %s\n",
			l.ID.String()[:8], l.UserID, l.BookID, l.BorrowedAt.Format("2006-01-02 15:04:05"), returned)
	}
}

func (sh *shell) handleCheck() {
	if err := sh.lib.Verify(); err != nil {
		fmt.Fprintf(sh.out, "Catalog check failed: %v\n", err)
		return
	}
	fmt.Fprintln(sh.out, "Catalog is consistent.")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
