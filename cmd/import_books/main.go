package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"library-catalog/internal/logging"
	"library-catalog/library"
)

// import_books loads a YAML catalog into a fresh in-memory library and reports
// which entries would be accepted. Nothing is written anywhere.
//
//	go run ./cmd/import_books catalog.yaml [memory|sqlite]
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: import_books <catalog.yaml> [memory|sqlite]")
		os.Exit(2)
	}
	driver := library.DriverMemory
	if len(os.Args) > 2 {
		driver = os.Args[2]
	}

	logger, err := logging.Init(os.Getenv("LIBRARY_LOG_LEVEL"), os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	errorCount, err := importCatalog(os.Stdout, os.Args[1], driver, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if errorCount > 0 {
		os.Exit(1)
	}
}

// importCatalog prints one line per catalog entry and a summary table, and
// returns how many entries were rejected.
func importCatalog(out io.Writer, path, driver string, logger *slog.Logger) (int, error) {
	catalog, err := library.LoadCatalogFile(path)
	if err != nil {
		return 0, err
	}

	lib, err := library.Open(driver, library.WithLogger(logger))
	if err != nil {
		return 0, fmt.Errorf("open catalog: %w", err)
	}
	defer lib.Close()

	fmt.Fprintf(out, "Importing %d book(s) and %d user(s) from %s...\n", len(catalog.Books), len(catalog.Users), path)

	successCount := 0
	errorCount := 0

	for _, b := range catalog.Books {
		fmt.Fprintf(out, "Importing: %s by %s... ", b.Title, b.Author)
		if strings.TrimSpace(b.Title) == "" {
			fmt.Fprintln(out, "ERROR - missing title")
			errorCount++
			continue
		}
		if err := lib.AddBook(b); err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", b.ID)
		successCount++
	}

	for _, u := range catalog.Users {
		fmt.Fprintf(out, "Registering: %s... ", u.Name)
		if err := lib.RegisterUser(u); err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %d)\n", u.ID)
		successCount++
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d entries\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)

	books, err := lib.ListBooks()
	if err != nil {
		return errorCount, err
	}
	if len(books) > 0 {
		fmt.Fprintln(out, "\nImported books:")
		fmt.Fprintf(out, "%-5s %-50s %-30s\n", "ID", "Title", "Author")
		fmt.Fprintln(out, strings.Repeat("-", 87))
		for _, book := range books {
			fmt.Fprintf(out, "%-5d %-50s %-30s\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30))
		}
	}
	return errorCount, nil
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
