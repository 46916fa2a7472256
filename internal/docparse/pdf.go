package docparse

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/Faitltd/houzz-to-zoho/internal/domain/extract"
)

// ParsePDF reads a PDF and returns one page per document page, with text
// pulled from the content streams and tables inferred from aligned lines.
// A page with no extractable text falls back to OCR over its image streams
// when OCR support is compiled in.
func (p *Parser) ParsePDF(path string) (extract.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return extract.Document{}, fmt.Errorf("docparse: open %s: %w", path, err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return extract.Document{}, fmt.Errorf("docparse: read pdf: %w", err)
	}

	var doc extract.Document
	ocrUnavailable := false
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		text := extractPageText(ctx, pageNr)
		if text == "" && !ocrUnavailable {
			text, err = p.ocrPage(ctx, pageNr)
			if err != nil {
				if errors.Is(err, ErrOCRNotEnabled) {
					ocrUnavailable = true
					p.logger.Debug("page has no text layer and OCR is not compiled in",
						slog.Int("page", pageNr))
				} else {
					p.logger.Warn("ocr failed", slog.Int("page", pageNr), slog.Any("error", err))
				}
				text = ""
			}
		}
		if text == "" {
			continue
		}
		doc.Pages = append(doc.Pages, extract.Page{
			Text:   text,
			Tables: inferTables(text),
		})
	}

	if len(doc.Pages) == 0 {
		return extract.Document{}, fmt.Errorf("docparse: %s: %w", path, ErrNoContent)
	}
	p.logger.Info("parsed pdf",
		slog.String("path", path),
		slog.Int("pages", len(doc.Pages)),
	)
	return doc, nil
}

// extractPageText pulls the raw content stream of one page and decodes its
// text show operators.
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return extractTextFromStream(data)
}

// ocrPage runs OCR over every image stream on the page and joins the
// recognized text.
func (p *Parser) ocrPage(ctx *model.Context, pageNr int) (string, error) {
	images := pageImageStreams(ctx, pageNr)
	if len(images) == 0 {
		return "", nil
	}
	var parts []string
	for _, data := range images {
		text, err := recognizeImage(data)
		if err != nil {
			return "", err
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), nil
}

// pageImageStreams returns the raw encoded bytes of every image XObject on
// the page. JPEG-encoded streams go straight into the OCR engine.
func pageImageStreams(ctx *model.Context, pageNr int) [][]byte {
	if ctx.Optimize == nil {
		return nil
	}
	var out [][]byte
	for _, objNr := range pdfcpu.ImageObjNrs(ctx, pageNr) {
		entry, ok := ctx.Table[objNr]
		if !ok || entry == nil || entry.Free {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" && len(sd.Raw) > 0 {
				out = append(out, sd.Raw)
			}
		}
	}
	return out
}
