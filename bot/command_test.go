package bot

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		text string
		want Command
	}{
		{"!cw", CommandContentWarning},
		{"!contentwarning", CommandContentWarning},
		{"hey everyone !cw please", CommandContentWarning},
		{"!cw what's this game like", CommandContentWarning},
		{"!start", CommandJoin},
		{"!join", CommandJoin},
		{"can I !join?", CommandJoin},
		{"!stop", CommandLeave},
		{"!leave", CommandLeave},
		{"hello chat", CommandNone},
		{"cw", CommandNone},
		{"!CW", CommandNone}, // matching is case-sensitive
		{"", CommandNone},
	}
	for _, tt := range tests {
		if got := ParseCommand(tt.text); got != tt.want {
			t.Errorf("ParseCommand(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestCommandString(t *testing.T) {
	if CommandContentWarning.String() != "contentwarning" {
		t.Errorf("unexpected name %q", CommandContentWarning.String())
	}
	if CommandNone.String() != "none" {
		t.Errorf("unexpected name %q", CommandNone.String())
	}
}
