package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"talkback/pkg/voice"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantText  string
		wantIndex int
		wantErr   bool
	}{
		{"text only", []string{"hello"}, "hello", 0, false},
		{"text and index", []string{"hello", "3"}, "hello", 3, false},
		{"no args", nil, "", 0, true},
		{"non-numeric index", []string{"hello", "seven"}, "", 0, true},
		{"zero index", []string{"hello", "0"}, "", 0, true},
		{"negative index", []string{"hello", "-2"}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, idx, err := parseArgs(tt.args)
			if tt.wantErr {
				assert.True(t, voice.IsInputError(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantIndex, idx)
		})
	}
}
