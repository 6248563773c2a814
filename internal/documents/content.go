package documents

import (
	"bytes"
	"net/http"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
)

var disableConfigDir sync.Once

// ContentInspector derives a document's media type from its bytes, never from
// the client's declared header.
type ContentInspector struct {
	strictPDF bool
	conf      *model.Configuration
}

// NewContentInspector builds an inspector. With strictPDF set, anything that
// sniffs as PDF must also pass a structural validation.
func NewContentInspector(strictPDF bool) *ContentInspector {
	if strictPDF {
		disableConfigDir.Do(api.DisableConfigDir)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &ContentInspector{strictPDF: strictPDF, conf: conf}
}

// Inspect returns the detected media type and whether the content is usable.
// Detection only looks at the first 512 bytes.
func (c *ContentInspector) Inspect(data []byte) (string, bool) {
	contentType := http.DetectContentType(data)
	if contentType != ContentTypePDF {
		return contentType, contentType == ContentTypeJPEG || contentType == ContentTypePNG
	}
	if !c.strictPDF {
		return contentType, true
	}
	if err := api.Validate(bytes.NewReader(data), c.conf); err != nil {
		return contentType, false
	}
	return contentType, true
}
