package token

import (
	"testing"
)

func TestParseScopes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Scope
		wantErr bool
	}{
		{
			name:  "single scope",
			input: "read",
			want:  []Scope{ScopeRead},
		},
		{
			name:  "exchange response",
			input: "read,activity:read_all, profile:read_all",
			want:  []Scope{ScopeRead, ScopeActivityReadAll, ScopeProfileReadAll},
		},
		{
			name:  "empty",
			input: "",
			want:  nil,
		},
		{
			name:    "unknown scope",
			input:   "read,view_private",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScopes(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScopes() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseScopes() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("scope[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEntry_ScopeMatching(t *testing.T) {
	entry := &Entry{Scopes: []Scope{ScopeRead, ScopeActivityRead, ScopeActivityWrite}}

	tests := []struct {
		name        string
		required    []Scope
		wantAtLeast bool
		wantExact   bool
	}{
		{"subset", []Scope{ScopeRead}, true, false},
		{"equal set", []Scope{ScopeActivityWrite, ScopeRead, ScopeActivityRead}, true, true},
		{"equal set with duplicates", []Scope{ScopeRead, ScopeRead, ScopeActivityRead, ScopeActivityWrite}, true, true},
		{"superset", []Scope{ScopeRead, ScopeActivityRead, ScopeActivityWrite, ScopeReadAll}, false, false},
		{"disjoint", []Scope{ScopeProfileWrite}, false, false},
		{"nothing required", nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entry.HasAll(tt.required); got != tt.wantAtLeast {
				t.Errorf("HasAll() = %v, want %v", got, tt.wantAtLeast)
			}
			if got := entry.HasExactly(tt.required); got != tt.wantExact {
				t.Errorf("HasExactly() = %v, want %v", got, tt.wantExact)
			}
		})
	}
}

func TestEntry_ScopeString(t *testing.T) {
	entry := &Entry{Scopes: []Scope{ScopeActivityRead, ScopeRead, ScopeActivityRead}}
	if got := entry.ScopeString(); got != "activity:read,read" {
		t.Errorf("ScopeString() = %q", got)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		principal string
		want      string
	}{
		{"rider@example.com", "strava:token:rider@example.com"},
		{"  Rider@Example.COM ", "strava:token:rider@example.com"},
	}

	for _, tt := range tests {
		if got := Key(tt.principal); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.principal, got, tt.want)
		}
	}
}
