package importer

import (
	"testing"
)

func TestBitwardenParse(t *testing.T) {
	data := []byte(`{
		"items": [
			{
				"type": 1,
				"name": "GitHub",
				"notes": "work account",
				"login": {"username": "alice", "password": "hunter2"}
			},
			{
				"type": 2,
				"name": "Some note"
			},
			{
				"type": 1,
				"name": "No password",
				"login": {"username": "alice", "password": ""}
			}
		]
	}`)

	result, err := (&BitwardenParser{}).Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Credentials) != 1 {
		t.Fatalf("got %d credentials, want 1", len(result.Credentials))
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(result.Warnings), result.Warnings)
	}

	got := result.Credentials[0]
	if got.Service != "GitHub" || got.Login != "alice" || got.Password != "hunter2" || got.Note != "work account" {
		t.Errorf("unexpected credential: %+v", got)
	}
}

func TestBitwardenParseInvalidJSON(t *testing.T) {
	if _, err := (&BitwardenParser{}).Parse([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestBitwardenParseEmptyExport(t *testing.T) {
	result, err := (&BitwardenParser{}).Parse([]byte(`{"items": []}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Credentials) != 0 {
		t.Fatalf("got %d credentials, want 0", len(result.Credentials))
	}
}
