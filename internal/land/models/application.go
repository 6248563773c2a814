package models

import (
	"time"

	id "landledger/pkg/domain"
)

// ApplicationType identifies the kind of land service requested.
type ApplicationType string

const (
	TypeAddNewLand         ApplicationType = "AddNewLand"
	TypeTransferLand       ApplicationType = "TransferLand"
	TypeBuildingPermission ApplicationType = "BuildingPermission"
)

// ApplicationTypes lists every supported type in display order.
var ApplicationTypes = []ApplicationType{TypeAddNewLand, TypeTransferLand, TypeBuildingPermission}

func (t ApplicationType) IsValid() bool {
	_, ok := requirements[t]
	return ok
}

// ParseApplicationType accepts the canonical type names only.
func ParseApplicationType(s string) (ApplicationType, bool) {
	t := ApplicationType(s)
	return t, t.IsValid()
}

// Status is the workflow state of an application. Approved and Rejected are
// terminal.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Action is an admin decision applied to a pending application.
type Action string

const (
	ActionApprove Action = "Approve"
	ActionReject  Action = "Reject"
)

// TargetStatus returns the terminal status an action leads to.
func (a Action) TargetStatus() (Status, bool) {
	switch a {
	case ActionApprove:
		return StatusApproved, true
	case ActionReject:
		return StatusRejected, true
	default:
		return "", false
	}
}

// DocumentRef points at an uploaded document held by the document store.
type DocumentRef struct {
	Handle      string `json:"handle"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// LandApplication is a citizen-submitted, document-gated land request. It is
// created once by intake, mutated once by a decision and never deleted.
type LandApplication struct {
	ID                 id.ApplicationID
	Type               ApplicationType
	SubmittedBy        id.UserID
	OwnerName          string
	LandLocation       string
	LandType           string
	TypeSpecificFields map[string]string
	Documents          map[DocumentKind]DocumentRef
	Status             Status
	RejectionReason    string
	SubmissionDate     time.Time
	DecisionDate       *time.Time
	DecidedBy          *string
}

// Decision is the state change written by the workflow's conditional update.
type Decision struct {
	Status          Status
	RejectionReason string
	DecidedAt       time.Time
	DecidedBy       string
}

// Apply copies the decision onto a pending application.
func (a *LandApplication) Apply(d Decision) {
	decidedAt := d.DecidedAt
	decidedBy := d.DecidedBy
	a.Status = d.Status
	a.RejectionReason = ""
	if d.Status == StatusRejected {
		a.RejectionReason = d.RejectionReason
	}
	a.DecisionDate = &decidedAt
	a.DecidedBy = &decidedBy
}

// Clone returns a deep copy so stores never hand out shared maps.
func (a *LandApplication) Clone() *LandApplication {
	if a == nil {
		return nil
	}
	out := *a
	if a.TypeSpecificFields != nil {
		out.TypeSpecificFields = make(map[string]string, len(a.TypeSpecificFields))
		for k, v := range a.TypeSpecificFields {
			out.TypeSpecificFields[k] = v
		}
	}
	if a.Documents != nil {
		out.Documents = make(map[DocumentKind]DocumentRef, len(a.Documents))
		for k, v := range a.Documents {
			out.Documents[k] = v
		}
	}
	if a.DecisionDate != nil {
		t := *a.DecisionDate
		out.DecisionDate = &t
	}
	if a.DecidedBy != nil {
		s := *a.DecidedBy
		out.DecidedBy = &s
	}
	return &out
}

// ListFilter narrows application listings. Zero values match everything.
type ListFilter struct {
	Status      Status
	Type        ApplicationType
	SubmittedBy id.UserID
}

// Page selects a window of a listing; Number is 1-based.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps the page into its valid range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// StatusCounts holds off-chain application counts per status.
type StatusCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

func (c *StatusCounts) Add(s Status, n int) {
	switch s {
	case StatusPending:
		c.Pending += n
	case StatusApproved:
		c.Approved += n
	case StatusRejected:
		c.Rejected += n
	}
}

func (c StatusCounts) Total() int {
	return c.Pending + c.Approved + c.Rejected
}
