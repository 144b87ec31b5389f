package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"3s", 3 * time.Second, false},
		{"500ms", 500 * time.Millisecond, false},
		{"2h45m", 2*time.Hour + 45*time.Minute, false},
		{"1d", Day, false},
		{"1w", Week, false},
		{"1d12h", Day + 12*time.Hour, false},
		{"", 0, false},
		{"bogus", 0, true},
		{"5x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDuration(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDuration(%q) failed: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDurationYAMLRoundTrip(t *testing.T) {
	type wrapper struct {
		D Duration `yaml:"d"`
	}

	var w wrapper
	if err := yaml.Unmarshal([]byte("d: 3s\n"), &w); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if time.Duration(w.D) != 3*time.Second {
		t.Errorf("expected 3s, got %v", time.Duration(w.D))
	}

	out, err := yaml.Marshal(w)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != "d: 3s\n" {
		t.Errorf("unexpected marshal output: %q", out)
	}
}
