package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValid(t *testing.T) {
	for _, addr := range []string{
		"alice@example.com",
		"a.b-c_d@mail.co.uk",
		"user123@sub.domain.org",
	} {
		assert.True(t, Valid(addr), addr)
	}

	for _, addr := range []string{
		"",
		"not-an-address",
		"@example.com",
		"alice@",
		"alice@@example.com",
		"alice example@example.com",
	} {
		assert.False(t, Valid(addr), addr)
	}
}

func TestDeriveNameFromEmail(t *testing.T) {
	tests := []struct {
		in    string
		first string
		last  string
	}{
		{"ivan.petrov@example.com", "Ivan", "Petrov"},
		{"alice@example.com", "Alice", "User"},
		{"a_b-c@example.com", "A", "C"},
		{"@example.com", "User", "User"},
	}
	for _, tt := range tests {
		first, last := DeriveNameFromEmail(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
