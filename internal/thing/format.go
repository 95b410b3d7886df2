package thing

import "unicode/utf8"

// Buffer sizes of the firmware. Both include a terminator byte, so the
// longest topic or payload is one byte shorter.
const (
	DefaultTopicBufferSize   = 32
	DefaultPayloadBufferSize = 32
)

// truncate cuts s to at most max bytes. It backs off to a rune boundary so
// the result stays valid UTF-8, which brokers require of topic names.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
