package labelpdf

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/boombuler/barcode/code128"

	"challanbook/internal/domain/documents/challan"
)

//go:embed templates/label.html
var templates embed.FS

// Bar is one dark run of the barcode in module units.
type Bar struct {
	X int
	W int
}

// Bars encodes code as Code 128 and merges adjacent dark modules into bars.
// It returns the bars and the total symbol width in modules.
func Bars(code string) ([]Bar, int, error) {
	bc, err := code128.Encode(code)
	if err != nil {
		return nil, 0, fmt.Errorf("encode %q: %w", code, err)
	}
	width := bc.Bounds().Dx()

	var bars []Bar
	start := -1
	for x := 0; x <= width; x++ {
		dark := false
		if x < width {
			r, _, _, _ := bc.At(bc.Bounds().Min.X+x, bc.Bounds().Min.Y).RGBA()
			dark = r == 0
		}
		switch {
		case dark && start < 0:
			start = x
		case !dark && start >= 0:
			bars = append(bars, Bar{X: start, W: x - start})
			start = -1
		}
	}
	return bars, width, nil
}

type htmlRenderer struct {
	tpl *template.Template
}

type labelView struct {
	Header  string
	Rows    []Row
	Barcode string
	Bars    []Bar
	Modules int
	Width   float64
	Height  float64
}

func newHTMLRenderer() *htmlRenderer {
	tpl := template.Must(template.New("label.html").ParseFS(templates, "templates/label.html"))
	return &htmlRenderer{tpl: tpl}
}

func (h *htmlRenderer) render(l challan.Label) ([]byte, error) {
	bars, modules, err := Bars(l.Line.Barcode)
	if err != nil {
		return nil, err
	}
	view := labelView{
		Header:  l.Header,
		Rows:    Rows(l),
		Barcode: l.Line.Barcode,
		Bars:    bars,
		Modules: modules,
		Width:   Width,
		Height:  Height,
	}

	var buf bytes.Buffer
	if err := h.tpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render label %s: %w", l.Line.Barcode, err)
	}
	return buf.Bytes(), nil
}
