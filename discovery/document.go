// ABOUTME: Discovery call document model and its default/seed construction
// ABOUTME: The document is the record of truth for a discovery session
package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Document is the accumulated data of one discovery call. Field order here is
// the section order used by the text rendering.
type Document struct {
	Client             Client             `json:"client"`
	Discovery          Situation          `json:"discovery"`
	Coverage           Coverage           `json:"coverage"`
	Income             Income             `json:"income"`
	Health             Health             `json:"health"`
	Doctors            []Doctor           `json:"doctors"`
	Priorities         []string           `json:"priorities"`
	DentalVision       DentalVision       `json:"dentalVision"`
	LifeInsurance      LifeInsurance      `json:"lifeInsurance"`
	Budget             Budget             `json:"budget"`
	NextCall           NextCall           `json:"nextCall"`
	PrivateMPEducation PrivateMPEducation `json:"privateMpEducation"`
	Rapport            []RapportNote      `json:"rapport"`
	Meta               Meta               `json:"meta"`
}

type Client struct {
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	DOB       string            `json:"dob"`
	Zip       string            `json:"zip"`
	State     string            `json:"state"`
	County    string            `json:"county"`
	Household []HouseholdMember `json:"household"`
	Contact   ContactInfo       `json:"contact"`
}

type HouseholdMember struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	DOB          string `json:"dob"`
	Tobacco      bool   `json:"tobacco"`
}

type ContactInfo struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Situation struct {
	LeadSource      string `json:"leadSource"`
	Situation       string `json:"situation"`
	LosingCoverage  bool   `json:"losingCoverage"`
	PayingTooMuch   bool   `json:"payingTooMuch"`
	Uninsured       bool   `json:"uninsured"`
	UnderstandsFlow bool   `json:"understandsFlow"`
}

type Coverage struct {
	Current CurrentCoverage `json:"current"`
}

type CurrentCoverage struct {
	Carrier         string   `json:"carrier"`
	Channel         string   `json:"channel"`
	Cobra           bool     `json:"cobra"`
	CobraCost       *float64 `json:"cobraCost"`
	LastCoverageDay string   `json:"lastCoverageDay"`
	Deductible      *float64 `json:"deductible"`
	OutOfPocketMax  *float64 `json:"outOfPocketMax"`
	Copays          string   `json:"copays"`
	Network         string   `json:"network"`
	Premium         *float64 `json:"premium"`
	Likes           string   `json:"likes"`
	Dislikes        string   `json:"dislikes"`
}

type Income struct {
	Year   *int     `json:"year"`
	Amount *float64 `json:"amount"`
	Basis  string   `json:"basis"`
}

type Health struct {
	Conditions  []string `json:"conditions"`
	Medications []string `json:"medications"`
}

type Doctor struct {
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	MustKeep  bool   `json:"mustKeep"`
}

type DentalVision struct {
	Dental bool `json:"dental"`
	Vision bool `json:"vision"`
}

type LifeInsurance struct {
	Has             bool   `json:"has"`
	Type            string `json:"type"`
	CashValue       bool   `json:"cashValue"`
	ThroughEmployer bool   `json:"throughEmployer"`
}

type Budget struct {
	Notes string   `json:"notes"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

type NextCall struct {
	Slots         []string `json:"slots"`
	SpouseJoining bool     `json:"spouseJoining"`
	ScreenShare   bool     `json:"screenShare"`
	InviteEmail   string   `json:"inviteEmail"`
}

type PrivateMPEducation struct {
	Understood bool `json:"understood"`
}

// RapportNote is a timestamped call note. Notes are append-only.
type RapportNote struct {
	Text string    `json:"text"`
	Ts   time.Time `json:"ts"`
}

type Meta struct {
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Agent        string    `json:"agent"`
	SessionID    string    `json:"sessionId"`
	ClientID     string    `json:"clientId"`
	CallDuration *int64    `json:"callDuration"`
}

// Sections lists the top-level keys of a document in rendering order.
var Sections = []string{
	"client", "discovery", "coverage", "income", "health", "doctors",
	"priorities", "dentalVision", "lifeInsurance", "budget", "nextCall",
	"privateMpEducation", "rapport", "meta",
}

var now = time.Now

// ErrInvalidSeed is returned when a seed is not a JSON object of sections.
var ErrInvalidSeed = errors.New("invalid seed")

// CreateDefault returns a fully populated document for a new session.
//
// A non-empty seed must be a JSON object. Each top-level section present in
// the seed replaces the default section wholesale; fields inside a section are
// not merged individually. Unknown seed keys are ignored.
func CreateDefault(sessionID, clientID string, seed json.RawMessage) (*Document, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	doc := &Document{}
	if len(seed) > 0 && strings.TrimSpace(string(seed)) != "null" {
		var sections map[string]json.RawMessage
		if err := json.Unmarshal(seed, &sections); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
		}
		for _, key := range Sections {
			raw, ok := sections[key]
			if !ok {
				continue
			}
			if err := doc.replaceSection(key, raw); err != nil {
				return nil, fmt.Errorf("%w: section %s: %v", ErrInvalidSeed, key, err)
			}
		}
	}

	doc.Normalize()

	ts := now().UTC()
	if doc.Meta.CreatedAt.IsZero() {
		doc.Meta.CreatedAt = ts
	}
	doc.Meta.UpdatedAt = ts
	doc.Meta.SessionID = sessionID
	if clientID != "" {
		doc.Meta.ClientID = clientID
	}

	return doc, nil
}

func (d *Document) replaceSection(key string, raw json.RawMessage) error {
	switch key {
	case "client":
		d.Client = Client{}
		return json.Unmarshal(raw, &d.Client)
	case "discovery":
		d.Discovery = Situation{}
		return json.Unmarshal(raw, &d.Discovery)
	case "coverage":
		d.Coverage = Coverage{}
		return json.Unmarshal(raw, &d.Coverage)
	case "income":
		d.Income = Income{}
		return json.Unmarshal(raw, &d.Income)
	case "health":
		d.Health = Health{}
		return json.Unmarshal(raw, &d.Health)
	case "doctors":
		d.Doctors = nil
		return json.Unmarshal(raw, &d.Doctors)
	case "priorities":
		d.Priorities = nil
		return json.Unmarshal(raw, &d.Priorities)
	case "dentalVision":
		d.DentalVision = DentalVision{}
		return json.Unmarshal(raw, &d.DentalVision)
	case "lifeInsurance":
		d.LifeInsurance = LifeInsurance{}
		return json.Unmarshal(raw, &d.LifeInsurance)
	case "budget":
		d.Budget = Budget{}
		return json.Unmarshal(raw, &d.Budget)
	case "nextCall":
		d.NextCall = NextCall{}
		return json.Unmarshal(raw, &d.NextCall)
	case "privateMpEducation":
		d.PrivateMPEducation = PrivateMPEducation{}
		return json.Unmarshal(raw, &d.PrivateMPEducation)
	case "rapport":
		d.Rapport = nil
		return json.Unmarshal(raw, &d.Rapport)
	case "meta":
		d.Meta = Meta{}
		return json.Unmarshal(raw, &d.Meta)
	}
	return fmt.Errorf("unknown section %q", key)
}

// Normalize replaces nil lists with empty ones so that every section renders.
func (d *Document) Normalize() {
	if d.Client.Household == nil {
		d.Client.Household = []HouseholdMember{}
	}
	if d.Health.Conditions == nil {
		d.Health.Conditions = []string{}
	}
	if d.Health.Medications == nil {
		d.Health.Medications = []string{}
	}
	if d.Doctors == nil {
		d.Doctors = []Doctor{}
	}
	if d.Priorities == nil {
		d.Priorities = []string{}
	}
	if d.NextCall.Slots == nil {
		d.NextCall.Slots = []string{}
	}
	if d.Rapport == nil {
		d.Rapport = []RapportNote{}
	}
}

// Touch stamps meta.updatedAt.
func (d *Document) Touch() {
	d.Meta.UpdatedAt = now().UTC()
}

// FullName is the client's display name.
func (d *Document) FullName() string {
	return strings.TrimSpace(d.Client.FirstName + " " + d.Client.LastName)
}

// Clone returns a deep copy via JSON.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	out := &Document{}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, err
	}
	out.Normalize()
	return out, nil
}
