// ABOUTME: Data models for CRM entities
// ABOUTME: Defines Contact, Activity, Task, Setting and DiscoverySession structs
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/leadline/discovery"
)

// Contact is a lead or client. Email and Phone are stored as NULL when empty.
type Contact struct {
	ID              uuid.UUID  `json:"id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Stage           string     `json:"stage"`
	Source          string     `json:"source,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	DOB             string     `json:"dob,omitempty"`
	Zip             string     `json:"zip,omitempty"`
	State           string     `json:"state,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (c Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Pipeline stages, in funnel order.
const (
	StageNewLead   = "NEW_LEAD"
	StageContacted = "CONTACTED"
	StageQuote     = "QUOTE"
	StageFollowUp  = "FOLLOW_UP"
	StageSold      = "SOLD"
	StageLost      = "LOST"
)

var Stages = []string{StageNewLead, StageContacted, StageQuote, StageFollowUp, StageSold, StageLost}

func IsValidStage(s string) bool {
	for _, st := range Stages {
		if st == s {
			return true
		}
	}
	return false
}

// Activity types. DIAL, CONNECT and CLOSE double as call outcomes.
const (
	ActivityDial    = "DIAL"
	ActivityConnect = "CONNECT"
	ActivityClose   = "CLOSE"
	ActivityRevenue = "REVENUE"
	ActivityCall    = "CALL"
	ActivityTask    = "TASK"
	ActivityNote    = "NOTE"
	ActivityEmail   = "EMAIL"
	ActivityMeeting = "MEETING"
)

var ActivityTypes = []string{
	ActivityDial, ActivityConnect, ActivityClose, ActivityRevenue,
	ActivityCall, ActivityTask, ActivityNote, ActivityEmail, ActivityMeeting,
}

func IsValidActivityType(s string) bool {
	for _, t := range ActivityTypes {
		if t == s {
			return true
		}
	}
	return false
}

func IsValidOutcome(s string) bool {
	switch s {
	case "", ActivityDial, ActivityConnect, ActivityClose:
		return true
	}
	return false
}

type Activity struct {
	ID        uuid.UUID  `json:"id"`
	ContactID *uuid.UUID `json:"contactId,omitempty"`
	Type      string     `json:"type"`
	Outcome   string     `json:"outcome,omitempty"`
	Count     int        `json:"count"`
	Revenue   *float64   `json:"revenue,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	Date      time.Time  `json:"date"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Task statuses and priorities.
const (
	TaskOpen = "OPEN"
	TaskDone = "DONE"

	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

type Task struct {
	ID          uuid.UUID  `json:"id"`
	ContactID   *uuid.UUID `json:"contactId,omitempty"`
	Title       string     `json:"title"`
	Label       string     `json:"label,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt"`
	ArchivedAt  *time.Time `json:"archivedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DiscoverySession is a persisted discovery call. Payload is the record of
// truth; ClientName through Rapport are copies extracted from it on every
// write.
type DiscoverySession struct {
	ID          uuid.UUID               `json:"id"`
	SessionID   string                  `json:"sessionId"`
	ClientID    *uuid.UUID              `json:"clientId"`
	ClientName  string                  `json:"clientName"`
	PrimaryDOB  string                  `json:"primaryDob"`
	Zip         string                  `json:"zip"`
	State       string                  `json:"state"`
	County      string                  `json:"county"`
	Payload     discovery.Document      `json:"jsonPayload"`
	YAMLPayload string                  `json:"yamlPayload"`
	Rapport     []discovery.RapportNote `json:"rapport"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}
