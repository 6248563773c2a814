package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"landledger/internal/audit"
	auditstore "landledger/internal/audit/store"
	"landledger/internal/documents"
	"landledger/internal/land/handler"
	"landledger/internal/land/models"
	"landledger/internal/land/service"
	landstore "landledger/internal/land/store"
	"landledger/internal/ledger/reconcile"
	"landledger/pkg/platform/tx"
	"landledger/pkg/testutil"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

type staticStats reconcile.AggregateStats

func (s staticStats) Stats(context.Context) reconcile.AggregateStats {
	return reconcile.AggregateStats(s)
}

type HandlerSuite struct {
	suite.Suite
	router http.Handler
	docs   *documents.InMemoryStore
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	apps := landstore.NewInMemoryStore()
	s.docs = documents.NewInMemoryStore()
	trail := audit.NewTrail(auditstore.NewInMemoryStore(), nil)

	intake, err := service.NewIntakeService(apps, s.docs, documents.NewContentInspector(false))
	s.Require().NoError(err)
	workflow, err := service.NewWorkflowService(apps, trail, tx.NewMemoryRunner())
	s.Require().NoError(err)
	queries, err := service.NewQueryService(apps, trail, s.docs)
	s.Require().NoError(err)

	validator := testutil.Tokens{}
	validator.Add("alice", "citizen")
	validator.Add("bob", "citizen")
	validator.Add("admin", "admin")
	stats := staticStats{TotalLands: 12, VerifiedLands: 9, PendingLands: 3, DataFreshness: reconcile.FreshnessFresh}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	handler.New(intake, workflow, queries, stats, logger, nil, validator).Register(r)
	s.router = r
}

// =============================================================================
// Helpers
// =============================================================================

func (s *HandlerSuite) submit(token string, appType models.ApplicationType, skip models.DocumentKind) *httptest.ResponseRecorder {
	fields := map[string]string{
		models.FieldOwnerName:    "Abebe Kebede",
		models.FieldLandLocation: "Bole, Addis Ababa",
		models.FieldLandType:     "residential",
	}
	if appType == models.TypeBuildingPermission {
		fields[models.FieldBuildingPurpose] = "clinic"
		fields[models.FieldBuildingSize] = "300"
		fields[models.FieldEstimatedCost] = "9000000"
	}
	var files []testutil.File
	for _, kind := range models.RequiredDocuments(appType) {
		if kind == skip {
			continue
		}
		files = append(files, testutil.File{Field: string(kind), Filename: string(kind) + ".pdf", Data: pdfBytes})
	}
	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/land/applications/"+string(appType), fields, files)
	return testutil.DoRequest(s.router, testutil.WithBearer(req, token))
}

func (s *HandlerSuite) submitOK(token string, appType models.ApplicationType) handler.ApplicationResponse {
	rec := s.submit(token, appType, "")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return *testutil.UnmarshalResponse[handler.ApplicationResponse](s.T(), rec)
}

func (s *HandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	return testutil.DoRequest(s.router, testutil.WithBearer(req, token))
}

func decodeError(rec *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	return body
}

// =============================================================================
// Citizen endpoints
// =============================================================================

func (s *HandlerSuite) TestSubmitRequiresAuth() {
	rec := s.submit("", models.TypeAddNewLand, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestSubmitCreatesPendingApplication() {
	app := s.submitOK("alice", models.TypeBuildingPermission)
	s.Equal("Pending", app.Status)
	s.Equal("BuildingPermission", app.ApplicationType)
	s.Len(app.Documents, 5)
	s.Equal(documents.ContentTypePDF, app.Documents[string(models.DocBuildingPlan)].ContentType)
	s.Equal("clinic", app.TypeSpecificFields[models.FieldBuildingPurpose])
}

func (s *HandlerSuite) TestSubmitMissingDocumentIsRejected() {
	rec := s.submit("alice", models.TypeAddNewLand, models.DocLandTitleDeed)
	s.Equal(http.StatusBadRequest, rec.Code)
	body := decodeError(rec)
	s.Equal("validation_error", body["error"])
	s.Contains(body["error_description"], "landTitleDeed")
	s.Zero(s.docs.Len())
}

func (s *HandlerSuite) TestSubmitUnknownType() {
	rec := s.submit("alice", models.ApplicationType("Mortgage"), "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestSubmitRejectsNonMultipartBody() {
	rec := s.do(http.MethodPost, "/land/applications/AddNewLand", "alice", map[string]string{"ownerName": "x"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestCitizenSeesOnlyOwnApplications() {
	mine := s.submitOK("alice", models.TypeAddNewLand)
	s.submitOK("bob", models.TypeTransferLand)

	rec := s.do(http.MethodGet, "/land/applications", "alice", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list handler.ListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&list))
	s.Equal(1, list.Total)
	s.Equal(mine.ID, list.Items[0].ID)
	s.Equal(models.DefaultPageSize, list.PageSize)

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/land/applications/"+mine.ID, "alice", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/land/applications/"+mine.ID, "bob", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/land/applications/not-a-uuid", "alice", nil).Code)
}

func (s *HandlerSuite) TestDownloadStreamsDocument() {
	app := s.submitOK("alice", models.TypeAddNewLand)
	path := "/land/applications/" + app.ID + "/documents/" + string(models.DocSurveyPlan)

	rec := s.do(http.MethodGet, path, "alice", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(documents.ContentTypePDF, rec.Header().Get("Content-Type"))
	s.Contains(rec.Header().Get("Content-Disposition"), "surveyPlan.pdf")
	s.Equal(pdfBytes, rec.Body.Bytes())

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, path, "bob", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/admin/land/applications/"+app.ID+"/documents/surveyPlan", "admin", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/land/applications/"+app.ID+"/documents/buildingPlan", "alice", nil).Code)
}

func (s *HandlerSuite) TestRequirements() {
	rec := s.do(http.MethodGet, "/land/requirements", "alice", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var reqs []handler.RequirementResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&reqs))
	s.Len(reqs, 3)
	s.Equal("AddNewLand", reqs[0].ApplicationType)
	s.Contains(reqs[0].Documents, "landTitleDeed")
}

// =============================================================================
// Admin endpoints
// =============================================================================

func (s *HandlerSuite) TestAdminRoutesRequireAdminRole() {
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/admin/land/applications", "alice", nil).Code)
}

func (s *HandlerSuite) TestAdminListIncludesCountsAndLedgerStats() {
	s.submitOK("alice", models.TypeAddNewLand)
	s.submitOK("bob", models.TypeTransferLand)

	rec := s.do(http.MethodGet, "/admin/land/applications?page_size=1", "admin", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list handler.AdminListResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&list))
	s.Equal(2, list.Total)
	s.Len(list.Items, 1)
	s.Equal(2, list.StatusCounts.Pending)
	s.Equal(uint64(3), list.LedgerStats.PendingLands)
	s.Equal(reconcile.PendingLandsBasis, list.LedgerStats.PendingLandsBasis)

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/admin/land/applications?page=two", "admin", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/admin/land/applications?status=Archived", "admin", nil).Code)
}

func (s *HandlerSuite) TestDecisionFlow() {
	app := s.submitOK("alice", models.TypeTransferLand)
	path := "/admin/land/applications/" + app.ID + "/decision"

	rec := s.do(http.MethodPost, path, "admin", map[string]string{"status": "Rejected"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("validation_error", decodeError(rec)["error"])

	rec = s.do(http.MethodPost, path, "admin", map[string]string{"status": "Approved"})
	s.Require().Equal(http.StatusOK, rec.Code)
	var decided handler.ApplicationResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&decided))
	s.Equal("Approved", decided.Status)
	s.NotNil(decided.DecisionDate)

	rec = s.do(http.MethodPost, path, "admin", map[string]string{"status": "Rejected", "rejection_reason": "too late"})
	s.Equal(http.StatusConflict, rec.Code)
	s.True(strings.Contains(decodeError(rec)["error_description"], "Approved"))

	rec = s.do(http.MethodPost, path, "admin", map[string]string{"status": "Pending"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/admin/land/applications/"+app.ID+"/audit", "admin", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var entries []handler.AuditEntryResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&entries))
	s.Require().Len(entries, 1)
	s.Equal("Approved", entries[0].Decision)
}

func (s *HandlerSuite) TestNotesAndDetail() {
	app := s.submitOK("alice", models.TypeAddNewLand)
	base := "/admin/land/applications/" + app.ID

	s.Equal(http.StatusNoContent, s.do(http.MethodPost, base+"/notes", "admin", map[string]string{"note": "site visit booked"}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, base+"/notes", "admin", map[string]string{"note": " "}).Code)

	rec := s.do(http.MethodGet, base, "admin", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var detail handler.DetailResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&detail))
	s.Len(detail.Checklist, 5)
	for _, item := range detail.Checklist {
		s.True(item.Present)
	}
	s.Require().Len(detail.Audit, 1)
	s.Equal("note", detail.Audit[0].Kind)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/admin/land/applications/"+uuid.NewString(), "admin", nil).Code)
}
