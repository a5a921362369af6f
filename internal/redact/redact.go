// Package redact strips personally identifying substrings from free text before
// it is scored, stored, audited or sent to a model.
package redact

import "regexp"

const (
	EmailPlaceholder = "[REDACTED_EMAIL]"
	PhonePlaceholder = "[REDACTED_PHONE]"
)

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	// An optional plus, then at least seven digits with dashes or spaces in between.
	phonePattern = regexp.MustCompile(`\+?\d[\d\-\s]{6,}\d`)
)

// Text is content that has already passed through Redact. Components that
// forward candidate text to external services accept Text rather than string.
type Text string

func (t Text) String() string { return string(t) }

// Redact replaces phone numbers and email addresses with fixed placeholders and
// leaves every other byte untouched.
//
// Phones are replaced first: a phone number wedged between "@" and a domain
// suffix would otherwise turn into a fresh email match on a second pass, and
// Redact(Redact(x)) must equal Redact(x).
func Redact(text string) Text {
	out := phonePattern.ReplaceAllLiteralString(text, PhonePlaceholder)
	out = emailPattern.ReplaceAllLiteralString(out, EmailPlaceholder)
	return Text(out)
}
