// ABOUTME: Mutations applied to a discovery document during a call
// ABOUTME: Client name splitting, rapport notes, and set-field-at-path
package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	ErrUnknownPath      = errors.New("unknown document path")
	ErrRapportAppend    = errors.New("rapport notes are append-only")
	ErrImmutableSession = errors.New("meta.sessionId is immutable")
)

// ApplyClientName splits a display name on whitespace. The first token becomes
// the first name; any remaining tokens, joined by single spaces, become the
// last name. A single token leaves the last name untouched.
//
// Multi-word surnames with particles ("Van Der Berg") are split naively.
func (d *Document) ApplyClientName(fullName string) {
	tokens := strings.Fields(fullName)
	if len(tokens) == 0 {
		return
	}
	d.Client.FirstName = tokens[0]
	if len(tokens) > 1 {
		d.Client.LastName = strings.Join(tokens[1:], " ")
	}
}

// AppendRapport adds a timestamped note. Blank text is ignored and reported
// as false.
func (d *Document) AppendRapport(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	d.Rapport = append(d.Rapport, RapportNote{Text: text, Ts: now().UTC()})
	return true
}

// validPath keeps gjson/sjson query syntax out of field paths.
var validPath = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// Set assigns value to the field at a dotted path such as "client.zip" or
// "coverage.current.premium". The value must be JSON-compatible with the
// field's type. Numeric segments index into lists ("doctors.0.name").
func (d *Document) Set(path string, value any) error {
	if !validPath.MatchString(path) {
		return fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	if path == "rapport" || strings.HasPrefix(path, "rapport.") {
		return ErrRapportAppend
	}
	if path == "meta.sessionId" {
		return ErrImmutableSession
	}

	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if !gjson.GetBytes(data, path).Exists() {
		return fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}

	data, err = sjson.SetBytes(data, path, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", path, err)
	}
	next := &Document{}
	if err := json.Unmarshal(data, next); err != nil {
		return fmt.Errorf("invalid value for %s: %w", path, err)
	}
	// Covers whole-object writes such as "meta".
	if next.Meta.SessionID != d.Meta.SessionID {
		return ErrImmutableSession
	}
	next.Normalize()
	*d = *next
	d.Touch()
	return nil
}

// Get returns the JSON value at a dotted path, or ErrUnknownPath. Numbers
// come back as float64, objects as map[string]any.
func (d *Document) Get(path string) (any, error) {
	if !validPath.MatchString(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	return result.Value(), nil
}
