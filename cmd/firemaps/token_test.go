package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTokenInput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		token     string
		sharedURL string
	}{
		{"bare token", "92ea9308ff2587864c49", "92ea9308ff2587864c49", ""},
		{"shared url", "https://figshare.com/s/92ea9308ff2587864c49", "92ea9308ff2587864c49", "https://figshare.com/s/92ea9308ff2587864c49"},
		{"trailing slash", "https://figshare.com/s/abc123/", "abc123", "https://figshare.com/s/abc123/"},
		{"not a share path", "https://figshare.com/articles/s/x/1", "https://figshare.com/articles/s/x/1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := parseTokenInput(tt.input)
			assert.Equal(t, tt.token, tok.Token)
			assert.Equal(t, tt.sharedURL, tok.SharedURL)
		})
	}
}
