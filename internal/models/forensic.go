package models

// DocumentVerification is the Phase 1 result for one supplied document.
type DocumentVerification struct {
	DocumentType         string          `json:"document_type"`
	CompletenessStatus   string          `json:"completeness_status"`
	AuthenticationStatus string          `json:"authentication_status"`
	ConfidenceLevel      ConfidenceLevel `json:"confidence_level"`
	GapsIdentified       []string        `json:"gaps_identified"`
	DiscoveryPriorities  []string        `json:"discovery_priorities"`
}

// AssetAnalysis describes one asset or liability. Valuation and
// characterization carry independent confidence levels.
type AssetAnalysis struct {
	AssetType                   string                 `json:"asset_type"`
	Description                 string                 `json:"description"`
	EstimatedValue              float64                `json:"estimated_value"`
	ValueConfidence             ConfidenceLevel        `json:"value_confidence"`
	OwnershipPercentage         float64                `json:"ownership_percentage"`
	Characterization            string                 `json:"characterization"`
	CharacterizationConfidence  ConfidenceLevel        `json:"characterization_confidence"`
	DocumentationReference      []string               `json:"documentation_reference"`
	TracingMethod               string                 `json:"tracing_method,omitempty"`
	TracingConfidence           ConfidenceLevel        `json:"tracing_confidence,omitempty"`
	MooreMarsdenCalculation     map[string]interface{} `json:"moore_marsden_calculation,omitempty"`
	Notes                       string                 `json:"notes"`
}

// ConcealmentScheme is a suspected pattern of hidden or diverted assets.
type ConcealmentScheme struct {
	SchemeType          string          `json:"scheme_type"`
	Description         string          `json:"description"`
	EvidenceStrength    ConfidenceLevel `json:"evidence_strength"`
	EstimatedAmount     float64         `json:"estimated_amount"`
	AmountConfidence    ConfidenceLevel `json:"amount_confidence"`
	DetectionMethod     string          `json:"detection_method"`
	SupportingEvidence  []string        `json:"supporting_evidence"`
	RecoveryProbability string          `json:"recovery_probability"`
	RecommendedActions  []string        `json:"recommended_actions"`
}

// DigitalAssetFindings reports cryptocurrency exposure in three
// traceability tiers. A nil value means no digital-asset activity was
// detected, which is a valid outcome.
type DigitalAssetFindings struct {
	AssetType            string          `json:"asset_type"`
	BlockchainAddresses  []string        `json:"blockchain_addresses"`
	TraceableAmount      float64         `json:"traceable_amount"`
	TraceableConfidence  ConfidenceLevel `json:"traceable_confidence"`
	MixedAmount          float64         `json:"mixed_amount"`
	MixedConfidence      ConfidenceLevel `json:"mixed_confidence"`
	PrivacyCoinAmount    float64         `json:"privacy_coin_amount"`
	PrivacyConfidence    ConfidenceLevel `json:"privacy_confidence"`
	TotalEstimated       float64         `json:"total_estimated"`
	TotalConfidenceRange string          `json:"total_confidence_range"`
	PreservationUrgency  string          `json:"preservation_urgency"`
}

// SettlementScenario is one simulated division of the marital estate.
type SettlementScenario struct {
	ScenarioName        string             `json:"scenario_name"`
	AssetDivision       map[string]float64 `json:"asset_division"`
	Probability         float64            `json:"probability"`
	ConfidenceInterval  string             `json:"confidence_interval"`
	ExpectedValue       float64            `json:"expected_value"`
	StrategicAdvantages []string           `json:"strategic_advantages"`
	Risks               []string           `json:"risks"`
}

// ConfidenceDashboard rolls up analysis certainty per dimension.
type ConfidenceDashboard struct {
	OverallConfidence              string `json:"overall_confidence"`
	DocumentCompleteness           string `json:"document_completeness"`
	LegalFrameworkCertainty        string `json:"legal_framework_certainty"`
	AssetIdentificationConfidence  string `json:"asset_identification_confidence"`
	ConcealmentDetectionConfidence string `json:"concealment_detection_confidence"`
	ValuationReliability           string `json:"valuation_reliability"`
	StrategicAssessmentConfidence  string `json:"strategic_assessment_confidence"`
}

// ForensicOutput is the single validated record a full analysis run
// produces. Partial or per-phase output is never returned to callers.
type ForensicOutput struct {
	// Phase 1: Constitutional Verification
	DocumentVerification    []DocumentVerification `json:"document_verification"`
	JurisdictionalFramework map[string]interface{} `json:"jurisdictional_framework"`
	KnowledgeBoundaries     map[string][]string    `json:"knowledge_boundaries"`

	// Phase 2: Sequential Analysis
	Assets               []AssetAnalysis          `json:"assets"`
	Liabilities          []AssetAnalysis          `json:"liabilities"`
	IncomeAnalysis       []map[string]interface{} `json:"income_analysis"`
	ConcealmentSchemes   []ConcealmentScheme      `json:"concealment_schemes"`
	DigitalAssets        *DigitalAssetFindings    `json:"digital_assets"`
	BehavioralAssessment map[string]interface{}   `json:"behavioral_assessment"`

	// Phase 3: Self-Correction
	MethodologyChallenges []string                 `json:"methodology_challenges"`
	EvidenceRobustness    string                   `json:"evidence_robustness"`
	ObjectivityAssessment string                   `json:"objectivity_assessment"`
	AlternativeScenarios  []map[string]interface{} `json:"alternative_scenarios"`

	// Phase 4: Strategic Output
	ExecutiveSummary        string                   `json:"executive_summary"`
	ConfidenceDashboard     ConfidenceDashboard      `json:"confidence_dashboard"`
	SettlementScenarios     []SettlementScenario     `json:"settlement_scenarios"`
	ImmediateActions        []map[string]interface{} `json:"immediate_actions"`
	DiscoveryPriorities     []map[string]interface{} `json:"discovery_priorities"`
	StrategicLeveragePoints []map[string]interface{} `json:"strategic_leverage_points"`

	// Financial Summary
	TotalAssetsValue        float64         `json:"total_assets_value"`
	TotalAssetsConfidence   ConfidenceLevel `json:"total_assets_confidence"`
	TotalLiabilitiesAmount  float64         `json:"total_liabilities_amount"`
	NetWorth                float64         `json:"net_worth"`
	NetWorthConfidenceRange string          `json:"net_worth_confidence_range"`
}
