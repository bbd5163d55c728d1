package bot

import "strings"

// Command is the recognized intent of a chat line.
type Command int

const (
	CommandNone Command = iota
	CommandContentWarning
	CommandJoin
	CommandLeave
)

// String returns the command name used in logs and metrics.
func (c Command) String() string {
	switch c {
	case CommandContentWarning:
		return "contentwarning"
	case CommandJoin:
		return "join"
	case CommandLeave:
		return "leave"
	default:
		return "none"
	}
}

// ParseCommand classifies a chat line by case-sensitive substring matching.
// This is deliberately not a command grammar: "!cw please" and "hey !cw"
// both trigger, matching the behavior streamers already rely on.
func ParseCommand(text string) Command {
	switch {
	case strings.Contains(text, "!cw") || strings.Contains(text, "!contentwarning"):
		return CommandContentWarning
	case strings.Contains(text, "!start") || strings.Contains(text, "!join"):
		return CommandJoin
	case strings.Contains(text, "!stop") || strings.Contains(text, "!leave"):
		return CommandLeave
	default:
		return CommandNone
	}
}
