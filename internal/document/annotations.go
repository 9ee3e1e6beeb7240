package document

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdfmark/pdfmark/internal/annotate"
)

// annotFlagPrint makes annotations survive printing (PDF 32000-1, 12.5.3).
const annotFlagPrint = 1 << 2

// Attach implements annotate.Target. The annotation is stored as a
// first-class PDF object of its kind, with a vector appearance stream
// built from the geometry in page coordinates. It never rasterizes.
func (d *Document) Attach(a annotate.Annotation) (annotate.Ref, error) {
	if _, _, err := d.pageAnnots(a.Page); err != nil {
		return annotate.Ref{}, err
	}

	var dict types.Dict
	var err error
	switch a.Kind {
	case annotate.KindInk:
		dict, err = d.inkDict(a)
	case annotate.KindText:
		dict, err = d.freeTextDict(a)
	case annotate.KindHighlight:
		dict, err = d.highlightDict(a)
	default:
		return annotate.Ref{}, fmt.Errorf("unsupported annotation kind %v", a.Kind)
	}
	if err != nil {
		return annotate.Ref{}, err
	}

	d.nextNM++
	dict["NM"] = types.StringLiteral(fmt.Sprintf("pdfmark-%d", d.nextNM))

	ref, err := d.ctx.IndRefForNewObject(dict)
	if err != nil {
		return annotate.Ref{}, fmt.Errorf("register annotation: %w", err)
	}

	annots, pageDict, err := d.pageAnnots(a.Page)
	if err != nil {
		return annotate.Ref{}, err
	}
	if annots == nil {
		pageDict["Annots"] = types.Array{*ref}
	} else {
		pageDict["Annots"] = append(annots, *ref)
	}

	return annotate.Ref{Page: a.Page, ID: int(ref.ObjectNumber)}, nil
}

// Detach implements annotate.Target by removing the annotation's
// indirect reference from its page's /Annots array.
func (d *Document) Detach(ref annotate.Ref) error {
	annots, pageDict, err := d.pageAnnots(ref.Page)
	if err != nil {
		return err
	}
	filtered := make(types.Array, 0, len(annots))
	found := false
	for _, entry := range annots {
		if ir, ok := entry.(types.IndirectRef); ok && int(ir.ObjectNumber) == ref.ID {
			found = true
			continue
		}
		filtered = append(filtered, entry)
	}
	if !found {
		return fmt.Errorf("annotation %d not attached to page %d", ref.ID, ref.Page)
	}
	if len(filtered) == 0 {
		delete(pageDict, "Annots")
	} else {
		pageDict["Annots"] = filtered
	}
	return nil
}

func (d *Document) inkDict(a annotate.Annotation) (types.Dict, error) {
	path := make(types.Array, 0, 2*len(a.Points))
	for _, p := range a.Points {
		path = append(path, types.Float(p.X), types.Float(p.Y))
	}

	ap, err := d.appearanceStream(a.Bounds, nil, inkContent(a))
	if err != nil {
		return nil, err
	}

	return types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Ink"),
		"Rect":    rectArray(a.Bounds),
		"F":       types.Integer(annotFlagPrint),
		"InkList": types.Array{path},
		"C":       colorArray(a.Style.Color),
		"CA":      types.Float(a.Style.Color.A),
		"BS": types.Dict{
			"Type": types.Name("Border"),
			"W":    types.Float(a.Style.Width),
		},
		"AP": types.Dict{"N": *ap},
	}, nil
}

func (d *Document) freeTextDict(a annotate.Annotation) (types.Dict, error) {
	resources := types.Dict{
		"Font": types.Dict{
			"Helv": types.Dict{
				"Type":     types.Name("Font"),
				"Subtype":  types.Name("Type1"),
				"BaseFont": types.Name("Helvetica"),
			},
		},
	}
	ap, err := d.appearanceStream(a.Bounds, resources, freeTextContent(a))
	if err != nil {
		return nil, err
	}

	c := a.Style.Color
	da := fmt.Sprintf("/Helv %s Tf %s %s %s rg",
		num(annotate.DefaultFontSize), num(c.R), num(c.G), num(c.B))

	return types.Dict{
		"Type":     types.Name("Annot"),
		"Subtype":  types.Name("FreeText"),
		"Rect":     rectArray(a.Bounds),
		"F":        types.Integer(annotFlagPrint),
		"Contents": types.StringLiteral(escapePDFString(a.Contents)),
		"DA":       types.StringLiteral(da),
		"C":        colorArray(a.Style.Color),
		"AP":       types.Dict{"N": *ap},
	}, nil
}

func (d *Document) highlightDict(a annotate.Annotation) (types.Dict, error) {
	resources := types.Dict{
		"ExtGState": types.Dict{
			"GS0": types.Dict{
				"Type": types.Name("ExtGState"),
				"ca":   types.Float(a.Style.Color.A),
			},
		},
	}
	ap, err := d.appearanceStream(a.Bounds, resources, highlightContent(a))
	if err != nil {
		return nil, err
	}

	return types.Dict{
		"Type":    types.Name("Annot"),
		"Subtype": types.Name("Square"),
		"Rect":    rectArray(a.Bounds),
		"F":       types.Integer(annotFlagPrint),
		"C":       colorArray(a.Style.Color),
		"IC":      colorArray(a.Style.Color),
		"CA":      types.Float(a.Style.Color.A),
		"AP":      types.Dict{"N": *ap},
	}, nil
}

// appearanceStream builds a Form XObject whose BBox matches the
// annotation rect, so content operators use page coordinates directly.
func (d *Document) appearanceStream(bounds annotate.Rect, resources types.Dict, content string) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("appearance stream: %w", err)
	}
	dict := types.Dict{
		"Type":    types.Name("XObject"),
		"Subtype": types.Name("Form"),
		"BBox":    rectArray(bounds),
	}
	if resources != nil {
		dict["Resources"] = resources
	}
	sd.Dict = dict
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("encode appearance: %w", err)
	}
	return d.ctx.IndRefForNewObject(sd)
}

func inkContent(a annotate.Annotation) string {
	c := a.Style.Color
	var b strings.Builder
	fmt.Fprintf(&b, "q\n1 J 1 j\n%s w\n%s %s %s RG\n", num(a.Style.Width), num(c.R), num(c.G), num(c.B))
	for i, p := range a.Points {
		op := "l"
		if i == 0 {
			op = "m"
		}
		fmt.Fprintf(&b, "%s %s %s\n", num(p.X), num(p.Y), op)
	}
	if len(a.Points) == 1 {
		// A single point still leaves a visible dot.
		p := a.Points[0]
		fmt.Fprintf(&b, "%s %s l\n", num(p.X), num(p.Y))
	}
	b.WriteString("S\nQ\n")
	return b.String()
}

func freeTextContent(a annotate.Annotation) string {
	c := a.Style.Color
	r := a.Bounds
	var b strings.Builder
	b.WriteString("q\n")
	// Pale background so the note reads over page content.
	fmt.Fprintf(&b, "1 1 0.88 rg\n%s %s %s %s re\nf\n",
		num(r.X0), num(r.Y0), num(r.Width()), num(r.Height()))
	fmt.Fprintf(&b, "BT\n/Helv %s Tf\n%s %s %s rg\n%s %s Td\n(%s) Tj\nET\nQ\n",
		num(annotate.DefaultFontSize), num(c.R), num(c.G), num(c.B),
		num(r.X0+4), num(r.Y0+4), escapePDFString(a.Contents))
	return b.String()
}

func highlightContent(a annotate.Annotation) string {
	c := a.Style.Color
	r := a.Bounds
	return fmt.Sprintf("q\n/GS0 gs\n%s %s %s rg\n%s %s %s %s re\nf\nQ\n",
		num(c.R), num(c.G), num(c.B),
		num(r.X0), num(r.Y0), num(r.Width()), num(r.Height()))
}

func rectArray(r annotate.Rect) types.Array {
	return types.Array{
		types.Float(r.X0),
		types.Float(r.Y0),
		types.Float(r.X1),
		types.Float(r.Y1),
	}
}

func colorArray(c annotate.Color) types.Array {
	return types.Array{types.Float(c.R), types.Float(c.G), types.Float(c.B)}
}

func num(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func escapePDFString(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return replacer.Replace(s)
}
