package bot

import (
	"regexp"
	"strings"
)

// systemMessageRules is the closed set of rules classifying transport
// noise the bot must not treat as user commands.
var systemMessageRules = struct {
	prefixes []string
	exact    []string
	patterns []*regexp.Regexp
}{
	prefixes: []string{
		"contact deleted",
		"This conversation is protected by quantum resistant end-to-end encryption",
		"Disappearing messages:",
		"Full deletion:",
		"Message reactions:",
		"Voice messages:",
		"Audio/video calls:",
		"Profile updated",
		"Notification:",
		"System:",
	},
	exact: []string{
		"updated profile",
	},
	patterns: []*regexp.Regexp{
		regexp.MustCompile(`^\[.*\]\s*Contact\s`),
	},
}

// IsSystemMessage reports whether text is system/connection noise
// rather than a user message.
func IsSystemMessage(text string) bool {
	for _, prefix := range systemMessageRules.prefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	for _, exact := range systemMessageRules.exact {
		if text == exact {
			return true
		}
	}
	for _, pattern := range systemMessageRules.patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
