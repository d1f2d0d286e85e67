package documents

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Preflight inspects a file before it is sent to the backend and returns its
// page count.
type Preflight func(name string, data []byte) (int, error)

// PDFPreflight parses and validates data with pdfcpu.
func PDFPreflight(name string, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%s: %w: empty file", name, ErrNotPDF)
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", name, ErrNotPDF, err)
	}
	if ctx.PageCount < 1 {
		return 0, fmt.Errorf("%s: %w: no pages", name, ErrNotPDF)
	}
	return ctx.PageCount, nil
}
