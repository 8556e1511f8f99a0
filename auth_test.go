package main

import "testing"

func TestValidateRegistration(t *testing.T) {
	cases := []struct {
		name     string
		email    string
		password string
		fullName string
		wantErr  bool
	}{
		{"valid", "a@example.com", "pass123", "Al", false},
		{"short password", "a@example.com", "12345", "Alice", true},
		{"six char password ok", "a@example.com", "123456", "Alice", false},
		{"short name", "a@example.com", "pass123", "A", true},
		{"missing email", "", "pass123", "Alice", true},
		{"malformed email", "not-an-email", "pass123", "Alice", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateRegistration(tc.email, tc.password, tc.fullName)
			if (err != nil) != tc.wantErr {
				t.Fatalf("validateRegistration(%q, %q, %q) err=%v wantErr=%v", tc.email, tc.password, tc.fullName, err, tc.wantErr)
			}
		})
	}
}

func TestParseEntryDate(t *testing.T) {
	if _, err := parseEntryDate("2024-05-01"); err != nil {
		t.Fatalf("plain date should parse: %v", err)
	}
	if _, err := parseEntryDate("2024-05-01T10:30:00Z"); err != nil {
		t.Fatalf("RFC3339 should parse: %v", err)
	}
	if _, err := parseEntryDate("May 1st"); err == nil {
		t.Fatal("expected error for free-form date")
	}
}
