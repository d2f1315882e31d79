package goAccount

import "testing"

func TestIsEmailValid(t *testing.T) {
	valid := []string{
		"alice@example.com",
		"a.b-c_d@mail.example.org",
		"first.last@sub-domain.example.co",
		"UPPER@EXAMPLE.COM",
		"x@y.io",
	}
	invalid := []string{
		"",
		"alice",
		"alice@",
		"@example.com",
		"alice@localhost",
		"alice@example.c",
		"alice@example.123",
		"alice..bob@example.com",
		".alice@example.com",
		"alice+tag@example.com",
		"alice@exa_mple.com",
		"alice@example.com ",
		"alice bob@example.com",
	}

	for _, s := range valid {
		if !IsEmailValid(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range invalid {
		if IsEmailValid(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
