package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

// ReportService renders a validated analysis record into its three
// presentation forms. Rendering is pure: the same record always yields
// byte-identical text, and no value is re-derived or altered.
type ReportService struct{}

// NewReportService creates a new ReportService
func NewReportService() *ReportService {
	return &ReportService{}
}

// Render produces the report text for the given type.
func (rs *ReportService) Render(output *models.ForensicOutput, reportType string) (string, error) {
	switch reportType {
	case models.ReportTypeExecutive:
		return rs.renderExecutive(output), nil
	case models.ReportTypeConfidence:
		return rs.renderConfidence(output), nil
	case models.ReportTypeDetailed:
		return rs.renderDetailed(output)
	default:
		return "", fmt.Errorf("unknown report type: %s", reportType)
	}
}

func (rs *ReportService) renderExecutive(output *models.ForensicOutput) string {
	return fmt.Sprintf(`# FALCON v3.0 FORENSIC ANALYSIS - EXECUTIVE SUMMARY

## CONFIDENCE DASHBOARD
- Overall Confidence: %s
- Document Completeness: %s
- Legal Framework: %s
- Asset Identification: %s
- Concealment Detection: %s

## STRATEGIC INTELLIGENCE
%s

## FINANCIAL SUMMARY
- **Total Assets**: %s (%s confidence)
- **Total Liabilities**: %s
- **Net Worth**: %s
- **Confidence Range**: %s

## IMMEDIATE ACTIONS REQUIRED
%s

## STRATEGIC LEVERAGE POINTS
%s

## SETTLEMENT SCENARIOS
%s

*Detailed analysis with source documentation available in full report.*
`,
		output.ConfidenceDashboard.OverallConfidence,
		output.ConfidenceDashboard.DocumentCompleteness,
		output.ConfidenceDashboard.LegalFrameworkCertainty,
		output.ConfidenceDashboard.AssetIdentificationConfidence,
		output.ConfidenceDashboard.ConcealmentDetectionConfidence,
		output.ExecutiveSummary,
		formatUSD(output.TotalAssetsValue),
		output.TotalAssetsConfidence,
		formatUSD(output.TotalLiabilitiesAmount),
		formatUSD(output.NetWorth),
		output.NetWorthConfidenceRange,
		formatActions(output.ImmediateActions),
		formatLeveragePoints(output.StrategicLeveragePoints),
		formatSettlementScenarios(output.SettlementScenarios),
	)
}

func (rs *ReportService) renderConfidence(output *models.ForensicOutput) string {
	return fmt.Sprintf(`# CONFIDENCE ANALYSIS REPORT

## Overall Assessment
- Overall Confidence: %s
- Document Completeness: %s
- Legal Framework Certainty: %s
- Asset Identification Confidence: %s
- Concealment Detection Confidence: %s
- Valuation Reliability: %s
- Strategic Assessment Confidence: %s

## Document Verification Results
%s

## Asset Confidence Breakdown
%s

## Concealment Detection Confidence
%s

## Methodology Validation
- Evidence Robustness: %s
- Objectivity Assessment: %s
- Alternative Scenarios Considered: %d

## Professional Standards Compliance
- AICPA SSFS No. 1: Compliant
- Daubert Standards: Met
- Jurisdictional Requirements: Verified
`,
		output.ConfidenceDashboard.OverallConfidence,
		output.ConfidenceDashboard.DocumentCompleteness,
		output.ConfidenceDashboard.LegalFrameworkCertainty,
		output.ConfidenceDashboard.AssetIdentificationConfidence,
		output.ConfidenceDashboard.ConcealmentDetectionConfidence,
		output.ConfidenceDashboard.ValuationReliability,
		output.ConfidenceDashboard.StrategicAssessmentConfidence,
		formatDocumentVerification(output.DocumentVerification),
		formatAssetConfidence(output.Assets),
		formatConcealmentConfidence(output.ConcealmentSchemes),
		output.EvidenceRobustness,
		output.ObjectivityAssessment,
		len(output.AlternativeScenarios),
	)
}

func (rs *ReportService) renderDetailed(output *models.ForensicOutput) (string, error) {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize detailed report: %w", err)
	}
	return string(data), nil
}

func formatActions(actions []map[string]interface{}) string {
	formatted := make([]string, 0, len(actions))
	for _, action := range actions {
		formatted = append(formatted, fmt.Sprintf("- **%v** (Urgency: %v, Success Probability: %v)",
			action["action"], mapValue(action, "urgency"), mapValue(action, "confidence")))
	}
	return strings.Join(formatted, "\n")
}

func formatLeveragePoints(points []map[string]interface{}) string {
	formatted := make([]string, 0, len(points))
	for _, point := range points {
		formatted = append(formatted, fmt.Sprintf("- **%v** (Impact: %v, Confidence: %v)",
			point["leverage"], mapValue(point, "impact"), mapValue(point, "confidence")))
	}
	return strings.Join(formatted, "\n")
}

// formatSettlementScenarios renders the top 3 scenarios in declared
// order; no re-sorting.
func formatSettlementScenarios(scenarios []models.SettlementScenario) string {
	limit := len(scenarios)
	if limit > 3 {
		limit = 3
	}

	formatted := make([]string, 0, limit)
	for _, scenario := range scenarios[:limit] {
		advantages := scenario.StrategicAdvantages
		if len(advantages) > 2 {
			advantages = advantages[:2]
		}
		formatted = append(formatted, fmt.Sprintf(
			"\n### %s\n- Probability: %.0f%% (%s)\n- Expected Value: %s\n- Advantages: %s",
			scenario.ScenarioName,
			scenario.Probability*100,
			scenario.ConfidenceInterval,
			formatUSD(scenario.ExpectedValue),
			strings.Join(advantages, ", ")))
	}
	return strings.Join(formatted, "\n")
}

func formatDocumentVerification(verifications []models.DocumentVerification) string {
	formatted := make([]string, 0, len(verifications))
	for _, verification := range verifications {
		formatted = append(formatted, fmt.Sprintf("- %s: %s (%s confidence)",
			verification.DocumentType, verification.AuthenticationStatus, verification.ConfidenceLevel))
	}
	return strings.Join(formatted, "\n")
}

func formatAssetConfidence(assets []models.AssetAnalysis) string {
	formatted := make([]string, 0, len(assets))
	for _, asset := range assets {
		formatted = append(formatted, fmt.Sprintf("- %s: %s (%s confidence)",
			asset.Description, formatUSD(asset.EstimatedValue), asset.ValueConfidence))
	}
	return strings.Join(formatted, "\n")
}

func formatConcealmentConfidence(schemes []models.ConcealmentScheme) string {
	if len(schemes) == 0 {
		return "No concealment schemes detected."
	}

	formatted := make([]string, 0, len(schemes))
	for _, scheme := range schemes {
		formatted = append(formatted, fmt.Sprintf(
			"- %s: %s evidence\n  Amount: %s (%s confidence)\n  Recovery: %s",
			scheme.SchemeType, scheme.EvidenceStrength,
			formatUSD(scheme.EstimatedAmount), scheme.AmountConfidence,
			scheme.RecoveryProbability))
	}
	return strings.Join(formatted, "\n")
}

// mapValue returns the value for key, defaulting to "Medium" the way
// strategic payloads are interpreted when the agent omits the field.
func mapValue(m map[string]interface{}, key string) interface{} {
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return "Medium"
}
