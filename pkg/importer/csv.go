package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses a generic CSV export with a header row. Recognized
// columns are service (or name/title), login (or username/email), password,
// and note (or notes/extra); anything else is ignored.
type CSVParser struct{}

func (p *CSVParser) Source() Source { return SourceCSV }

// Column aliases seen across common CSV exports.
var (
	csvServiceCols  = []string{"service", "name", "title"}
	csvLoginCols    = []string{"login", "username", "email"}
	csvPasswordCols = []string{"password"}
	csvNoteCols     = []string{"note", "notes", "extra"}
)

func (p *CSVParser) Parse(data []byte) (*Result, error) {
	// Strip a UTF-8 BOM; spreadsheet exports often carry one.
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	serviceIdx, ok := findColumn(colIndex, csvServiceCols)
	if !ok {
		return nil, errors.New("importer: no service column (looked for service, name, title)")
	}
	passwordIdx, ok := findColumn(colIndex, csvPasswordCols)
	if !ok {
		return nil, errors.New("importer: no password column")
	}
	loginIdx, hasLogin := findColumn(colIndex, csvLoginCols)
	noteIdx, hasNote := findColumn(colIndex, csvNoteCols)

	result := &Result{}
	row := 1
	for {
		row++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: failed to parse: %v", row, err))
			continue
		}
		if len(record) != len(header) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: expected %d columns, got %d", row, len(header), len(record)))
			continue
		}

		cred := Credential{
			Service:  normalizeService(record[serviceIdx]),
			Password: record[passwordIdx],
		}
		if hasLogin {
			cred.Login = strings.TrimSpace(record[loginIdx])
		}
		if hasNote {
			cred.Note = strings.TrimSpace(record[noteIdx])
		}

		if cred.Service == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: empty service name", row))
			continue
		}
		if cred.Password == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d: no password for %q", row, cred.Service))
			continue
		}

		result.Credentials = append(result.Credentials, cred)
	}

	return result, nil
}

func findColumn(colIndex map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := colIndex[name]; ok {
			return idx, true
		}
	}
	return 0, false
}
