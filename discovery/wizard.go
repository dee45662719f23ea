// ABOUTME: Step-by-step state container for filling a discovery document
// ABOUTME: Holds the in-memory document and persists it through a Saver
package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldNumber
	FieldInteger
	FieldBool
	FieldList
	// FieldNameList is a comma-separated list of objects keyed by "name"
	// (household members, doctors).
	FieldNameList
)

type Field struct {
	Path  string
	Label string
	Kind  FieldKind
}

type Step struct {
	Key    string
	Title  string
	Fields []Field
}

// DefaultSteps is the call script order.
var DefaultSteps = []Step{
	{Key: "client", Title: "Client", Fields: []Field{
		{Path: "client.firstName", Label: "First name"},
		{Path: "client.lastName", Label: "Last name"},
		{Path: "client.dob", Label: "Date of birth"},
		{Path: "client.zip", Label: "ZIP"},
		{Path: "client.state", Label: "State"},
		{Path: "client.county", Label: "County"},
		{Path: "client.household", Label: "Household (comma separated)", Kind: FieldNameList},
		{Path: "client.contact.phone", Label: "Phone"},
		{Path: "client.contact.email", Label: "Email"},
	}},
	{Key: "discovery", Title: "Situation", Fields: []Field{
		{Path: "discovery.leadSource", Label: "Lead source"},
		{Path: "discovery.situation", Label: "Situation summary"},
		{Path: "discovery.losingCoverage", Label: "Losing coverage?", Kind: FieldBool},
		{Path: "discovery.payingTooMuch", Label: "Paying too much?", Kind: FieldBool},
		{Path: "discovery.uninsured", Label: "Uninsured?", Kind: FieldBool},
		{Path: "discovery.understandsFlow", Label: "Understands call flow?", Kind: FieldBool},
	}},
	{Key: "coverage", Title: "Current coverage", Fields: []Field{
		{Path: "coverage.current.carrier", Label: "Carrier"},
		{Path: "coverage.current.channel", Label: "Channel (employer/marketplace/private)"},
		{Path: "coverage.current.cobra", Label: "On COBRA?", Kind: FieldBool},
		{Path: "coverage.current.cobraCost", Label: "COBRA cost", Kind: FieldNumber},
		{Path: "coverage.current.lastCoverageDay", Label: "Last day of coverage"},
		{Path: "coverage.current.deductible", Label: "Deductible", Kind: FieldNumber},
		{Path: "coverage.current.outOfPocketMax", Label: "Out-of-pocket max", Kind: FieldNumber},
		{Path: "coverage.current.copays", Label: "Copays"},
		{Path: "coverage.current.network", Label: "Network"},
		{Path: "coverage.current.premium", Label: "Monthly premium", Kind: FieldNumber},
		{Path: "coverage.current.likes", Label: "Likes"},
		{Path: "coverage.current.dislikes", Label: "Dislikes"},
	}},
	{Key: "income", Title: "Income & health", Fields: []Field{
		{Path: "income.year", Label: "Income year", Kind: FieldInteger},
		{Path: "income.amount", Label: "Household income", Kind: FieldNumber},
		{Path: "income.basis", Label: "Income basis (gross/net/MAGI)"},
		{Path: "health.conditions", Label: "Conditions (comma separated)", Kind: FieldList},
		{Path: "health.medications", Label: "Medications (comma separated)", Kind: FieldList},
	}},
	{Key: "doctors", Title: "Doctors & priorities", Fields: []Field{
		{Path: "doctors", Label: "Doctors (comma separated)", Kind: FieldNameList},
		{Path: "priorities", Label: "Priorities (comma separated)", Kind: FieldList},
		{Path: "dentalVision.dental", Label: "Wants dental?", Kind: FieldBool},
		{Path: "dentalVision.vision", Label: "Wants vision?", Kind: FieldBool},
	}},
	{Key: "life", Title: "Life insurance", Fields: []Field{
		{Path: "lifeInsurance.has", Label: "Has life insurance?", Kind: FieldBool},
		{Path: "lifeInsurance.type", Label: "Type (term/whole/universal)"},
		{Path: "lifeInsurance.cashValue", Label: "Cash value?", Kind: FieldBool},
		{Path: "lifeInsurance.throughEmployer", Label: "Through employer?", Kind: FieldBool},
	}},
	{Key: "budget", Title: "Budget", Fields: []Field{
		{Path: "budget.notes", Label: "Budget notes"},
		{Path: "budget.min", Label: "Budget min", Kind: FieldNumber},
		{Path: "budget.max", Label: "Budget max", Kind: FieldNumber},
	}},
	{Key: "nextCall", Title: "Next call", Fields: []Field{
		{Path: "nextCall.slots", Label: "Proposed times (comma separated)", Kind: FieldList},
		{Path: "nextCall.spouseJoining", Label: "Spouse joining?", Kind: FieldBool},
		{Path: "nextCall.screenShare", Label: "Screen share?", Kind: FieldBool},
		{Path: "nextCall.inviteEmail", Label: "Invite email"},
		{Path: "privateMpEducation.understood", Label: "Understood private vs marketplace?", Kind: FieldBool},
	}},
}

// Saver persists a document together with its text rendering.
type Saver interface {
	SaveDocument(ctx context.Context, doc *Document, yamlText string) error
}

// Wizard is single-writer state for one discovery call.
type Wizard struct {
	doc       *Document
	steps     []Step
	index     int
	dirty     bool
	autosave  bool
	saver     Saver
	lastSaved time.Time
}

// NewWizard wraps doc. When autosave is set, moving to the next step saves a
// dirty document first.
func NewWizard(doc *Document, saver Saver, autosave bool) *Wizard {
	doc.Normalize()
	return &Wizard{
		doc:      doc,
		steps:    DefaultSteps,
		saver:    saver,
		autosave: autosave,
	}
}

func (w *Wizard) Document() *Document  { return w.doc }
func (w *Wizard) Steps() []Step        { return w.steps }
func (w *Wizard) Index() int           { return w.index }
func (w *Wizard) Current() Step        { return w.steps[w.index] }
func (w *Wizard) Dirty() bool          { return w.dirty }
func (w *Wizard) LastSaved() time.Time { return w.lastSaved }
func (w *Wizard) IsLast() bool         { return w.index == len(w.steps)-1 }

func (w *Wizard) Set(path string, value any) error {
	if err := w.doc.Set(path, value); err != nil {
		return err
	}
	w.dirty = true
	return nil
}

// SetInput parses raw text for field and assigns it.
func (w *Wizard) SetInput(field Field, raw string) error {
	value, err := ParseInput(field.Kind, raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field.Label, err)
	}
	if field.Kind == FieldNameList {
		current, _ := w.doc.Get(field.Path)
		value = mergeNamed(current, value.([]map[string]any))
	}
	return w.Set(field.Path, value)
}

// mergeNamed keeps the stored entry for every name that is still listed, so
// renaming the list never drops a doctor's specialty or a member's DOB.
// Order follows entries; names compare case-insensitively.
func mergeNamed(current any, entries []map[string]any) []map[string]any {
	items, _ := current.([]any)
	byName := make(map[string]map[string]any, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		key := strings.ToLower(strings.TrimSpace(name))
		if _, seen := byName[key]; !seen {
			byName[key] = m
		}
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		name, _ := e["name"].(string)
		if prev, ok := byName[strings.ToLower(name)]; ok {
			merged := make(map[string]any, len(prev))
			for k, v := range prev {
				merged[k] = v
			}
			merged["name"] = name
			out = append(out, merged)
			continue
		}
		out = append(out, e)
	}
	return out
}

// InputValue formats the current value of field for editing.
func (w *Wizard) InputValue(field Field) string {
	v, err := w.doc.Get(field.Path)
	if err != nil {
		return ""
	}
	return FormatValue(v)
}

func (w *Wizard) AddRapport(text string) bool {
	if !w.doc.AppendRapport(text) {
		return false
	}
	w.doc.Touch()
	w.dirty = true
	return true
}

// Next advances one step, autosaving first when configured.
func (w *Wizard) Next(ctx context.Context) error {
	if w.autosave && w.dirty {
		if err := w.Save(ctx); err != nil {
			return err
		}
	}
	if w.index < len(w.steps)-1 {
		w.index++
	}
	return nil
}

func (w *Wizard) Prev() {
	if w.index > 0 {
		w.index--
	}
}

// Save renders the document and hands both forms to the saver.
func (w *Wizard) Save(ctx context.Context) error {
	if w.saver == nil {
		return fmt.Errorf("wizard has no saver")
	}
	text, err := ToText(w.doc)
	if err != nil {
		return err
	}
	if err := w.saver.SaveDocument(ctx, w.doc, text); err != nil {
		return fmt.Errorf("failed to save discovery session: %w", err)
	}
	w.dirty = false
	w.lastSaved = now()
	return nil
}

// ParseInput converts raw form text into a JSON-compatible value for kind.
// Blank numbers become null.
func ParseInput(kind FieldKind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case FieldNumber:
		if raw == "" {
			return nil, nil
		}
		clean := strings.NewReplacer("$", "", ",", "").Replace(raw)
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", raw)
		}
		return f, nil
	case FieldInteger:
		if raw == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("not a whole number: %q", raw)
		}
		return n, nil
	case FieldBool:
		switch strings.ToLower(raw) {
		case "y", "yes", "true", "1":
			return true, nil
		case "", "n", "no", "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("expected yes or no: %q", raw)
	case FieldList:
		return splitList(raw), nil
	case FieldNameList:
		names := splitList(raw)
		out := make([]map[string]any, 0, len(names))
		for _, n := range names {
			out = append(out, map[string]any{"name": n})
		}
		return out, nil
	}
	return raw, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// FormatValue is the inverse of ParseInput for prefilling inputs.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				items = append(items, FormatValue(m["name"]))
				continue
			}
			items = append(items, FormatValue(item))
		}
		return strings.Join(items, ", ")
	}
	return fmt.Sprint(v)
}
