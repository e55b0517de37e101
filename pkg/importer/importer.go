// Package importer parses credential exports from other password managers
// into plain entries ready for the vault.
package importer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Source identifies an export format.
type Source string

const (
	SourceCSV       Source = "csv"
	SourceBitwarden Source = "bitwarden"
)

// Credential is one parsed entry.
type Credential struct {
	Service  string
	Login    string
	Password string
	Note     string
}

// Result carries parsed entries plus per-row warnings. A warning never
// aborts the import; the row is skipped.
type Result struct {
	Credentials []Credential
	Warnings    []string
}

// Parser converts export data into credentials.
type Parser interface {
	Source() Source
	Parse(data []byte) (*Result, error)
}

// ForSource returns the parser for a format name.
func ForSource(s string) (Parser, error) {
	switch Source(strings.ToLower(s)) {
	case SourceCSV:
		return &CSVParser{}, nil
	case SourceBitwarden:
		return &BitwardenParser{}, nil
	default:
		return nil, fmt.Errorf("importer: unknown source %q (use csv or bitwarden)", s)
	}
}

// normalizeService canonicalizes a service name: NFKC normalization so
// visually identical names compare equal, then whitespace collapsing.
func normalizeService(name string) string {
	name = norm.NFKC.String(name)
	return strings.Join(strings.Fields(name), " ")
}
