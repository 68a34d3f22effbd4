package library

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Catalog is the on-disk seed format:
//
//	books:
//	  - id: 1
//	    title: Clean Code
//	    author: Robert C. Martin
//	users:
//	  - id: 101
//	    name: Alice
type Catalog struct {
	Books []Book `yaml:"books"`
	Users []User `yaml:"users"`
}

// LoadCatalog decodes a catalog from r. Unknown keys are rejected.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return c, nil
}

// LoadCatalogFile reads the catalog at path.
func LoadCatalogFile(path string) (Catalog, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// SeedError is one catalog entry that could not be loaded.
type SeedError struct {
	Kind string // "book" or "user"
	ID   int
	Err  error
}

func (e SeedError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Kind, e.ID, e.Err)
}

func (e SeedError) Unwrap() error { return e.Err }

// SeedReport summarises a Seed call.
type SeedReport struct {
	Books  int
	Users  int
	Errors []SeedError
}

// Seed adds every book and registers every user in c, in file order. Entries
// that fail (duplicate ids) are reported and skipped; the rest still load.
func (l *Library) Seed(c Catalog) SeedReport {
	var report SeedReport
	for _, b := range c.Books {
		if err := l.AddBook(b); err != nil {
			report.Errors = append(report.Errors, SeedError{Kind: "book", ID: b.ID, Err: err})
			continue
		}
		report.Books++
	}
	for _, u := range c.Users {
		if err := l.RegisterUser(u); err != nil {
			report.Errors = append(report.Errors, SeedError{Kind: "user", ID: u.ID, Err: err})
			continue
		}
		report.Users++
	}
	l.logger.Info("catalog seeded", "books", report.Books, "users", report.Users, "errors", len(report.Errors))
	return report
}
