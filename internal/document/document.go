// Package document adapts pdfcpu into the annotation surface the rest
// of the application works against: page bounds, annotation
// attach/detach, and serialization. Page text for the viewer panel is
// extracted separately with ledongthuc/pdf.
package document

import (
	"fmt"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdfmark/pdfmark/internal/annotate"
)

// Document is an open PDF held in memory as a pdfcpu context. All
// methods must be called from a single goroutine; serialization via
// WriteTo observes whatever annotations were attached before the call.
type Document struct {
	ctx    *model.Context
	path   string
	bounds []annotate.Rect
	text   []string
	nextNM int
}

// Open reads and validates a PDF. Page text extraction is best effort:
// a text-less or extraction-hostile document still opens, with empty
// viewer panels.
func Open(path string) (*Document, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("invalid pdf: %w", err)
	}

	d := &Document{ctx: ctx, path: path}
	if err := d.readPageBounds(); err != nil {
		return nil, err
	}
	d.text = extractPageText(path, ctx.PageCount)
	return d, nil
}

func (d *Document) readPageBounds() error {
	d.bounds = make([]annotate.Rect, d.ctx.PageCount)
	for i := 1; i <= d.ctx.PageCount; i++ {
		_, _, attrs, err := d.ctx.PageDict(i, false)
		if err != nil {
			return fmt.Errorf("page %d dict: %w", i, err)
		}
		if attrs != nil && attrs.MediaBox != nil {
			d.bounds[i-1] = annotate.Rect{
				X0: attrs.MediaBox.LL.X,
				Y0: attrs.MediaBox.LL.Y,
				X1: attrs.MediaBox.UR.X,
				Y1: attrs.MediaBox.UR.Y,
			}
			continue
		}
		// US Letter fallback, same as the extraction layer assumes.
		d.bounds[i-1] = annotate.Rect{X1: 612, Y1: 792}
	}
	return nil
}

// Path returns the source location the document was opened from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.ctx.PageCount }

// Bounds implements annotate.Target for 0-based page indices.
func (d *Document) Bounds(page int) (annotate.Rect, bool) {
	if page < 0 || page >= len(d.bounds) {
		return annotate.Rect{}, false
	}
	return d.bounds[page], true
}

// Text returns the extracted plain text of a 0-based page.
func (d *Document) Text(page int) string {
	if page < 0 || page >= len(d.text) {
		return ""
	}
	return d.text[page]
}

// AnnotationCount returns the length of a page's /Annots array.
func (d *Document) AnnotationCount(page int) int {
	annots, _, err := d.pageAnnots(page)
	if err != nil {
		return 0
	}
	return len(annots)
}

// WriteTo serializes the context, annotations included, to a path.
func (d *Document) WriteTo(path string) error {
	if err := api.WriteContextFile(d.ctx, path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (d *Document) pageAnnots(page int) (types.Array, types.Dict, error) {
	if page < 0 || page >= d.ctx.PageCount {
		return nil, nil, fmt.Errorf("page %d out of range [0, %d)", page, d.ctx.PageCount)
	}
	pageDict, _, _, err := d.ctx.PageDict(page+1, false)
	if err != nil {
		return nil, nil, fmt.Errorf("page %d dict: %w", page, err)
	}
	if pageDict == nil {
		return nil, nil, fmt.Errorf("page %d dict missing", page)
	}
	obj, found := pageDict["Annots"]
	if !found || obj == nil {
		return nil, pageDict, nil
	}
	resolved, err := d.ctx.Dereference(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("page %d annots: %w", page, err)
	}
	annots, ok := resolved.(types.Array)
	if !ok {
		return nil, nil, fmt.Errorf("page %d annots: unexpected %T", page, resolved)
	}
	return annots, pageDict, nil
}

func extractPageText(path string, pageCount int) []string {
	text := make([]string, pageCount)
	file, reader, err := ledongthuc.Open(path)
	if err != nil {
		return text
	}
	defer file.Close()

	for i := 1; i <= pageCount && i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text[i-1] = normalizeText(content)
	}
	return text
}

func normalizeText(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
