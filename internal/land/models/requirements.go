package models

// DocumentKind names one required upload, e.g. "landTitleDeed".
type DocumentKind string

const (
	DocLandTitleDeed               DocumentKind = "landTitleDeed"
	DocSurveyPlan                  DocumentKind = "surveyPlan"
	DocIdentificationDocument      DocumentKind = "identificationDocument"
	DocPropertyTaxReceipt          DocumentKind = "propertyTaxReceipt"
	DocLandUseCertificate          DocumentKind = "landUseCertificate"
	DocSellerIdentification        DocumentKind = "sellerIdentification"
	DocBuyerIdentification         DocumentKind = "buyerIdentification"
	DocSalesAgreement              DocumentKind = "salesAgreement"
	DocTransferTaxReceipt          DocumentKind = "transferTaxReceipt"
	DocBuildingPlan                DocumentKind = "buildingPlan"
	DocEngineeringReport           DocumentKind = "engineeringReport"
	DocEnvironmentalAssessment     DocumentKind = "environmentalAssessment"
	DocStructuralDesignCertificate DocumentKind = "structuralDesignCertificate"
)

// Descriptive field names shared by every application type.
const (
	FieldOwnerName    = "ownerName"
	FieldLandLocation = "landLocation"
	FieldLandType     = "landType"
)

// Building permission fields.
const (
	FieldBuildingPurpose = "buildingPurpose"
	FieldBuildingSize    = "buildingSize"
	FieldEstimatedCost   = "estimatedCost"
)

// Optional transfer fields.
const (
	FieldBuyerName  = "buyerName"
	FieldSellerName = "sellerName"
)

// MaxDocumentSize is the per-document upload ceiling (5 MB).
const MaxDocumentSize int64 = 5 << 20

// AllowedContentTypes are the accepted upload formats.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// Requirement is one row of the required-document table.
type Requirement struct {
	Type           ApplicationType
	Documents      []DocumentKind
	RequiredFields []string
	OptionalFields []string
}

// requirements is the single source of truth consulted by intake validation,
// admin document listings and downloads.
var requirements = map[ApplicationType]Requirement{
	TypeAddNewLand: {
		Type: TypeAddNewLand,
		Documents: []DocumentKind{
			DocLandTitleDeed,
			DocSurveyPlan,
			DocIdentificationDocument,
			DocPropertyTaxReceipt,
			DocLandUseCertificate,
		},
	},
	TypeTransferLand: {
		Type: TypeTransferLand,
		Documents: []DocumentKind{
			DocSellerIdentification,
			DocBuyerIdentification,
			DocSalesAgreement,
			DocLandTitleDeed,
			DocTransferTaxReceipt,
		},
		OptionalFields: []string{FieldBuyerName, FieldSellerName},
	},
	TypeBuildingPermission: {
		Type: TypeBuildingPermission,
		Documents: []DocumentKind{
			DocLandTitleDeed,
			DocBuildingPlan,
			DocEngineeringReport,
			DocEnvironmentalAssessment,
			DocStructuralDesignCertificate,
		},
		RequiredFields: []string{FieldBuildingPurpose, FieldBuildingSize, FieldEstimatedCost},
	},
}

// commonFields are required for every application type.
var commonFields = []string{FieldOwnerName, FieldLandLocation, FieldLandType}

// RequirementFor returns the table row for t.
func RequirementFor(t ApplicationType) (Requirement, bool) {
	r, ok := requirements[t]
	if !ok {
		return Requirement{}, false
	}
	r.Documents = append([]DocumentKind(nil), r.Documents...)
	r.RequiredFields = append(append([]string(nil), commonFields...), r.RequiredFields...)
	r.OptionalFields = append([]string(nil), r.OptionalFields...)
	return r, true
}

// RequiredDocuments lists the document kinds t needs, in table order.
func RequiredDocuments(t ApplicationType) []DocumentKind {
	r, _ := RequirementFor(t)
	return r.Documents
}

// IsDocumentFor reports whether kind belongs to t's table row.
func IsDocumentFor(t ApplicationType, kind DocumentKind) bool {
	for _, k := range requirements[t].Documents {
		if k == kind {
			return true
		}
	}
	return false
}

// Requirements returns every row in display order.
func Requirements() []Requirement {
	out := make([]Requirement, 0, len(ApplicationTypes))
	for _, t := range ApplicationTypes {
		r, _ := RequirementFor(t)
		out = append(out, r)
	}
	return out
}

// ChecklistItem reports one required document of an application.
type ChecklistItem struct {
	Kind     DocumentKind
	Present  bool
	Document *DocumentRef
}

// Checklist lists the documents app's type requires, in table order.
func Checklist(app *LandApplication) []ChecklistItem {
	kinds := RequiredDocuments(app.Type)
	items := make([]ChecklistItem, 0, len(kinds))
	for _, kind := range kinds {
		item := ChecklistItem{Kind: kind}
		if ref, ok := app.Documents[kind]; ok {
			r := ref
			item.Present = true
			item.Document = &r
		}
		items = append(items, item)
	}
	return items
}
