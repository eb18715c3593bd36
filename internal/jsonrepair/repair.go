// Package jsonrepair undoes the specific malformations the reasoning model is
// known to produce around JSON output: markdown fences, stray tokens appended
// after quoted values, and commentary before or after the object. It is not a
// lenient JSON parser; anything still invalid after cleanup is an error.
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MalformedResponseError reports a structured response that could not be
// decoded even after repair. Raw preserves the cleaned text for diagnostics.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed structured response: %v (raw: %q)", e.Err, e.Raw)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

var (
	fencedRe = regexp.MustCompile("```(?:json)?([\\s\\S]*?)```")

	// Matches a bare word the model sometimes appends between a quoted value
	// and the following delimiter, e.g. `"question": "What brand?" extra,`.
	strayTokenRe = regexp.MustCompile(`(:\s*".*?")\s+([a-zA-Z]+)\s*([,}])`)
)

// Repair applies the cleanup passes in order. Each pass leaves the text
// unchanged when its pattern is absent, so Repair is idempotent on text that
// is already a clean JSON object.
func Repair(raw string) string {
	text := raw

	if m := fencedRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	text = strayTokenRe.ReplaceAllString(text, "$1$3")

	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last > first {
		text = text[first : last+1]
	}

	return text
}

// Decode repairs raw and strictly decodes the result into v. On failure it
// returns a *MalformedResponseError carrying the offending text; it never
// fills v with a partial or default value.
func Decode(raw string, v interface{}) error {
	cleaned := Repair(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &MalformedResponseError{Raw: cleaned, Err: err}
	}
	return nil
}
