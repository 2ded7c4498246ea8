package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

// PDFService renders the executive view of an analysis as a PDF for
// the completion email attachment.
type PDFService struct{}

// NewPDFService creates a new PDF service
func NewPDFService() *PDFService {
	return &PDFService{}
}

// GenerateExecutivePDF renders the executive summary of a validated
// analysis record as a PDF document
func (s *PDFService) GenerateExecutivePDF(caseNumber string, output *models.ForensicOutput) ([]byte, error) {
	if output == nil {
		return nil, fmt.Errorf("invalid analysis output")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("{nb}")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "", 9)
		pdf.SetTextColor(108, 117, 125)
		pdf.SetX(15)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 22)
	pdf.SetTextColor(25, 118, 210)
	pdf.CellFormat(0, 15, "Forensic Analysis - Executive Summary", "", 0, "C", false, 0, "")

	pdf.Ln(18)
	pdf.SetFont("Arial", "", 12)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(0, 8, fmt.Sprintf("Case %s", caseNumber), "", 0, "C", false, 0, "")

	s.addSectionHeader(pdf, "Confidence Dashboard")
	s.addKeyValue(pdf, "Overall Confidence", output.ConfidenceDashboard.OverallConfidence)
	s.addKeyValue(pdf, "Document Completeness", output.ConfidenceDashboard.DocumentCompleteness)
	s.addKeyValue(pdf, "Legal Framework", output.ConfidenceDashboard.LegalFrameworkCertainty)
	s.addKeyValue(pdf, "Asset Identification", output.ConfidenceDashboard.AssetIdentificationConfidence)
	s.addKeyValue(pdf, "Concealment Detection", output.ConfidenceDashboard.ConcealmentDetectionConfidence)

	s.addSectionHeader(pdf, "Financial Summary")
	s.addKeyValue(pdf, "Total Assets", fmt.Sprintf("%s (%s confidence)", formatUSD(output.TotalAssetsValue), output.TotalAssetsConfidence))
	s.addKeyValue(pdf, "Total Liabilities", formatUSD(output.TotalLiabilitiesAmount))
	s.addKeyValue(pdf, "Net Worth", formatUSD(output.NetWorth))
	s.addKeyValue(pdf, "Confidence Range", output.NetWorthConfidenceRange)

	s.addSectionHeader(pdf, "Strategic Intelligence")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(33, 37, 41)
	pdf.MultiCell(180, 5, output.ExecutiveSummary, "", "L", false)

	if len(output.SettlementScenarios) > 0 {
		s.addSectionHeader(pdf, "Settlement Scenarios")
		limit := len(output.SettlementScenarios)
		if limit > 3 {
			limit = 3
		}
		for _, scenario := range output.SettlementScenarios[:limit] {
			pdf.SetFont("Arial", "B", 11)
			pdf.SetTextColor(33, 37, 41)
			pdf.CellFormat(0, 7, scenario.ScenarioName, "", 1, "L", false, 0, "")

			pdf.SetFont("Arial", "", 10)
			pdf.SetTextColor(73, 80, 87)
			pdf.CellFormat(0, 6, fmt.Sprintf("Probability: %.0f%% (%s)", scenario.Probability*100, scenario.ConfidenceInterval), "", 1, "L", false, 0, "")
			pdf.CellFormat(0, 6, fmt.Sprintf("Expected Value: %s", formatUSD(scenario.ExpectedValue)), "", 1, "L", false, 0, "")
			pdf.Ln(3)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *PDFService) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(10)
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")

	pdf.SetLineWidth(0.5)
	pdf.SetDrawColor(25, 118, 210)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(4)
}

func (s *PDFService) addKeyValue(pdf *gofpdf.Fpdf, key, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(60, 6, key, "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(73, 80, 87)
	pdf.MultiCell(120, 6, value, "", "L", false)
}
