package handler

import (
	"strings"
	"time"

	"landledger/internal/audit"
	ledgerhandler "landledger/internal/ledger/handler"
	"landledger/internal/land/models"
	"landledger/internal/land/service"
)

type DocumentResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type ApplicationResponse struct {
	ID                 string                      `json:"id"`
	ApplicationType    string                      `json:"application_type"`
	SubmittedBy        string                      `json:"submitted_by"`
	OwnerName          string                      `json:"owner_name"`
	LandLocation       string                      `json:"land_location"`
	LandType           string                      `json:"land_type"`
	TypeSpecificFields map[string]string           `json:"type_specific_fields,omitempty"`
	Documents          map[string]DocumentResponse `json:"documents"`
	Status             string                      `json:"status"`
	RejectionReason    string                      `json:"rejection_reason,omitempty"`
	SubmissionDate     time.Time                   `json:"submission_date"`
	DecisionDate       *time.Time                  `json:"decision_date,omitempty"`
	DecidedBy          *string                     `json:"decided_by,omitempty"`
}

func toApplicationResponse(app *models.LandApplication) ApplicationResponse {
	docs := make(map[string]DocumentResponse, len(app.Documents))
	for kind, ref := range app.Documents {
		docs[string(kind)] = DocumentResponse{Filename: ref.Filename, ContentType: ref.ContentType, Size: ref.Size}
	}
	return ApplicationResponse{
		ID:                 app.ID.String(),
		ApplicationType:    string(app.Type),
		SubmittedBy:        app.SubmittedBy.String(),
		OwnerName:          app.OwnerName,
		LandLocation:       app.LandLocation,
		LandType:           app.LandType,
		TypeSpecificFields: app.TypeSpecificFields,
		Documents:          docs,
		Status:             string(app.Status),
		RejectionReason:    app.RejectionReason,
		SubmissionDate:     app.SubmissionDate,
		DecisionDate:       app.DecisionDate,
		DecidedBy:          app.DecidedBy,
	}
}

type ListResponse struct {
	Items    []ApplicationResponse `json:"items"`
	Total    int                   `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

func toListResponse(page *service.ApplicationPage) ListResponse {
	items := make([]ApplicationResponse, 0, len(page.Items))
	for _, app := range page.Items {
		items = append(items, toApplicationResponse(app))
	}
	return ListResponse{Items: items, Total: page.Total, Page: page.Page.Number, PageSize: page.Page.Size}
}

// AdminListResponse puts off-chain status counts beside the ledger view. The
// two are independent and never joined.
type AdminListResponse struct {
	ListResponse
	StatusCounts models.StatusCounts         `json:"status_counts"`
	LedgerStats  ledgerhandler.StatsResponse `json:"ledger_stats"`
}

type ChecklistItemResponse struct {
	Kind     string            `json:"kind"`
	Present  bool              `json:"present"`
	Document *DocumentResponse `json:"document,omitempty"`
}

type AuditEntryResponse struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Kind      string    `json:"kind"`
	Decision  string    `json:"decision,omitempty"`
	Note      string    `json:"note,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func toAuditResponse(entries []audit.Entry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, AuditEntryResponse{
			ID:        e.ID.String(),
			Actor:     e.Actor,
			Kind:      string(e.Kind),
			Decision:  e.Decision,
			Note:      e.Note,
			Timestamp: e.Timestamp,
		})
	}
	return out
}

type DetailResponse struct {
	Application ApplicationResponse     `json:"application"`
	Checklist   []ChecklistItemResponse `json:"checklist"`
	Audit       []AuditEntryResponse    `json:"audit"`
}

func toDetailResponse(d *service.Detail) DetailResponse {
	checklist := make([]ChecklistItemResponse, 0, len(d.Checklist))
	for _, item := range d.Checklist {
		resp := ChecklistItemResponse{Kind: string(item.Kind), Present: item.Present}
		if item.Document != nil {
			resp.Document = &DocumentResponse{
				Filename:    item.Document.Filename,
				ContentType: item.Document.ContentType,
				Size:        item.Document.Size,
			}
		}
		checklist = append(checklist, resp)
	}
	return DetailResponse{
		Application: toApplicationResponse(d.Application),
		Checklist:   checklist,
		Audit:       toAuditResponse(d.Audit),
	}
}

type RequirementResponse struct {
	ApplicationType string   `json:"application_type"`
	Documents       []string `json:"documents"`
	RequiredFields  []string `json:"required_fields"`
	OptionalFields  []string `json:"optional_fields"`
}

func toRequirementsResponse(reqs []models.Requirement) []RequirementResponse {
	out := make([]RequirementResponse, 0, len(reqs))
	for _, r := range reqs {
		docs := make([]string, 0, len(r.Documents))
		for _, d := range r.Documents {
			docs = append(docs, string(d))
		}
		optional := r.OptionalFields
		if optional == nil {
			optional = []string{}
		}
		out = append(out, RequirementResponse{
			ApplicationType: string(r.Type),
			Documents:       docs,
			RequiredFields:  r.RequiredFields,
			OptionalFields:  optional,
		})
	}
	return out
}

// DecisionRequest is {status: Approved|Rejected, rejection_reason?}.
type DecisionRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
}

// Validate only normalizes; the workflow owns the transition rules.
func (r *DecisionRequest) Validate() error {
	r.Status = strings.TrimSpace(r.Status)
	r.RejectionReason = strings.TrimSpace(r.RejectionReason)
	return nil
}

func (r *DecisionRequest) Action() models.Action {
	switch models.Status(r.Status) {
	case models.StatusApproved:
		return models.ActionApprove
	case models.StatusRejected:
		return models.ActionReject
	default:
		return models.Action(r.Status)
	}
}

type NoteRequest struct {
	Note string `json:"note"`
}

func (r *NoteRequest) Validate() error {
	r.Note = strings.TrimSpace(r.Note)
	if r.Note == "" {
		return models.MissingField("note")
	}
	return nil
}
