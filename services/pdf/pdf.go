// Package pdfsvc renders reports as PDF documents.
package pdfsvc

import (
	"bytes"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/Nucleo-de-Educacao-Permamente-em-Saude/SIGA/core"
)

const (
	pageMargin   = 15.0
	rowHeight    = 8.0
	headerHeight = 9.0
)

type pdfService struct {
	appName string
}

var _ core.ReportService = (*pdfService)(nil)

func NewPDFService(conf *core.Config) *pdfService {
	return &pdfService{appName: conf.AppName}
}

func (svc pdfService) ContentType() string { return "application/pdf" }

func (svc pdfService) Render(r core.Report) ([]byte, error) {
	pdf := fpdf.New(fpdf.OrientationPortrait, fpdf.UnitMillimeter, fpdf.PageSizeLetter, "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	usableW := pageW - 2*pageMargin

	// title
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(usableW, 10, r.Title, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// meta lines
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range r.Meta {
		pdf.CellFormat(usableW, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	colW := usableW / float64(len(r.Table.Header))

	// table header
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(220, 220, 220)
	for _, h := range r.Table.Header {
		pdf.CellFormat(colW, headerHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	// data rows
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range r.Table.Rows {
		for _, cell := range row {
			pdf.CellFormat(colW, rowHeight, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	// summary row
	if len(r.Table.FooterRow) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(240, 240, 240)
		for _, cell := range r.Table.FooterRow {
			pdf.CellFormat(colW, rowHeight, cell, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(usableW, 5, svc.appName+" - generated at "+r.GeneratedAt.Format("2006-01-02 15:04:05"), "", 1, "R", false, 0, "")

	var buff bytes.Buffer
	if err := pdf.Output(&buff); err != nil {
		return nil, errors.Wrap(err, "rendering pdf report")
	}
	return buff.Bytes(), nil
}
