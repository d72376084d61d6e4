// Package pdf edits rendered documents.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var ErrEmptyDocument = errors.New("pdf: empty document")

// PageReplacer swaps the final page of a PDF for an addendum.
type PageReplacer struct {
	conf *model.Configuration
}

func NewPageReplacer() *PageReplacer {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PageReplacer{conf: conf}
}

// ReplaceLastPage returns doc with its last page removed and every page of
// addendum appended. A single-page doc yields the addendum alone.
func (p *PageReplacer) ReplaceLastPage(doc, addendum []byte) ([]byte, error) {
	if len(doc) == 0 || len(addendum) == 0 {
		return nil, ErrEmptyDocument
	}

	n, err := api.PageCount(bytes.NewReader(doc), p.conf)
	if err != nil {
		return nil, fmt.Errorf("count pages: %w", err)
	}
	if n <= 1 {
		return addendum, nil
	}

	var trimmed bytes.Buffer
	if err := api.RemovePages(bytes.NewReader(doc), &trimmed, []string{strconv.Itoa(n)}, p.conf); err != nil {
		return nil, fmt.Errorf("remove last page: %w", err)
	}

	var out bytes.Buffer
	sources := []io.ReadSeeker{bytes.NewReader(trimmed.Bytes()), bytes.NewReader(addendum)}
	if err := api.MergeRaw(sources, &out, false, p.conf); err != nil {
		return nil, fmt.Errorf("append addendum: %w", err)
	}
	return out.Bytes(), nil
}
