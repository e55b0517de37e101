package importer

import (
	"encoding/json"
	"fmt"
)

// BitwardenParser parses Bitwarden JSON exports. Only login items carry a
// password; other item types are skipped with a warning.
type BitwardenParser struct{}

const bitwardenTypeLogin = 1

type bitwardenExport struct {
	Items []bitwardenItem `json:"items"`
}

type bitwardenItem struct {
	Type  int             `json:"type"`
	Name  string          `json:"name"`
	Notes string          `json:"notes"`
	Login *bitwardenLogin `json:"login"`
}

type bitwardenLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (p *BitwardenParser) Source() Source { return SourceBitwarden }

func (p *BitwardenParser) Parse(data []byte) (*Result, error) {
	var export bitwardenExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("importer: failed to parse Bitwarden export: %w", err)
	}

	result := &Result{}
	for i, item := range export.Items {
		if item.Type != bitwardenTypeLogin || item.Login == nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("item %d (%s): not a login item, skipped", i+1, item.Name))
			continue
		}

		cred := Credential{
			Service:  normalizeService(item.Name),
			Login:    item.Login.Username,
			Password: item.Login.Password,
			Note:     item.Notes,
		}
		if cred.Service == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("item %d: empty name", i+1))
			continue
		}
		if cred.Password == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("item %d (%s): no password, skipped", i+1, item.Name))
			continue
		}

		result.Credentials = append(result.Credentials, cred)
	}

	return result, nil
}
