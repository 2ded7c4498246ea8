package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/autosolutionsai-didac/Falcon/internal/config"
	"github.com/autosolutionsai-didac/Falcon/internal/models"
	"github.com/autosolutionsai-didac/Falcon/internal/validation"
)

// maxToolIterations bounds the tool-calling loop per phase
const maxToolIterations = 8

// defaultSystemPrompt is used when no prompt file is configured or readable
const defaultSystemPrompt = `You are Falcon v3.0, an AI-powered Jurisprudent Forensic Engine with Revolutionary Anti-Hallucination Architecture.
You embody the principle of Radical Verifiability - every conclusion must be traceable to verifiable source evidence.

Core Constitutional Laws:
1. NEVER fabricate, guess, or extrapolate information when source evidence is absent
2. ALWAYS provide confidence levels (High/Medium/Low/Uncertain) for every finding
3. When evidence is insufficient, say "insufficient data" instead of estimating

Execute analysis through four phases:
- Phase 1: Constitutional Verification (document authentication, jurisdictional framework, knowledge boundaries)
- Phase 2: Sequential Analysis (asset mapping, concealment detection, behavioral analysis, valuation)
- Phase 3: Self-Correction (methodology challenges, bias detection, alternative scenarios)
- Phase 4: Strategic Output (chain of density summaries, confidence dashboards, settlement scenarios)

Maintain absolute intellectual honesty about the boundaries of available evidence.`

// communityPropertyStates drives the jurisdiction-to-regime lookup.
var communityPropertyStates = map[string]bool{
	"AZ": true, "CA": true, "ID": true, "LA": true, "NV": true,
	"NM": true, "TX": true, "WA": true, "WI": true,
}

// ChatCompleter is the reasoning backend contract. *openai.Client
// satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ForensicService drives a case through the four analysis phases and
// assembles one validated output record. It is constructed once at
// startup and shared by reference.
type ForensicService struct {
	client       ChatCompleter
	cfg          config.OpenAIConfig
	systemPrompt string
}

// NewForensicService creates a ForensicService with the given reasoning
// backend
func NewForensicService(client ChatCompleter, cfg config.OpenAIConfig) *ForensicService {
	prompt := defaultSystemPrompt
	if cfg.PromptPath != "" {
		if data, err := os.ReadFile(cfg.PromptPath); err == nil {
			prompt = string(data)
		} else {
			log.Printf("WARNING: failed to read prompt file %s, using built-in prompt: %v", cfg.PromptPath, err)
		}
	}

	return &ForensicService{
		client:       client,
		cfg:          cfg,
		systemPrompt: prompt,
	}
}

// LookupPropertyRegime maps a jurisdiction to its marital property
// regime. Unknown jurisdictions default to equitable distribution.
func LookupPropertyRegime(jurisdiction string) string {
	code := strings.ToUpper(strings.TrimSpace(jurisdiction))
	if communityPropertyStates[code] {
		return "community_property"
	}
	return "equitable_distribution"
}

// phase2Result is the agent's Phase 2 payload before deterministic
// supplements are applied.
type phase2Result struct {
	Assets               []models.AssetAnalysis     `json:"assets"`
	Liabilities          []models.AssetAnalysis     `json:"liabilities"`
	IncomeAnalysis       []map[string]interface{}   `json:"income_analysis"`
	ConcealmentSchemes   []models.ConcealmentScheme `json:"concealment_schemes"`
	BehavioralAssessment map[string]interface{}     `json:"behavioral_assessment"`
}

type phase3Result struct {
	MethodologyChallenges []string                 `json:"methodology_challenges"`
	EvidenceRobustness    string                   `json:"evidence_robustness"`
	ObjectivityAssessment string                   `json:"objectivity_assessment"`
	AlternativeScenarios  []map[string]interface{} `json:"alternative_scenarios"`
}

type phase4Result struct {
	ExecutiveSummary        string                     `json:"executive_summary"`
	ConfidenceDashboard     models.ConfidenceDashboard `json:"confidence_dashboard"`
	ImmediateActions        []map[string]interface{}   `json:"immediate_actions"`
	DiscoveryPriorities     []map[string]interface{}   `json:"discovery_priorities"`
	StrategicLeveragePoints []map[string]interface{}   `json:"strategic_leverage_points"`
}

// AnalyzeCase runs the four phases in strict order and returns the
// single validated output record. Partial per-phase output is never
// returned.
func (s *ForensicService) AnalyzeCase(ctx context.Context, request models.AnalysisRequest) (*models.ForensicOutput, error) {
	tools := NewForensicTools(request.Documents)

	// Phase 1: Constitutional Verification. Document verification and
	// the legal framework are deterministic; the agent is not consulted
	// for facts the snapshot already settles.
	verifications := make([]models.DocumentVerification, 0, len(request.Documents))
	for _, doc := range request.Documents {
		verifications = append(verifications, tools.VerifyDocument(doc.ID))
	}

	framework := map[string]interface{}{
		"jurisdiction":        request.Jurisdiction,
		"property_regime":     LookupPropertyRegime(request.Jurisdiction),
		"governing_principle": "Characterization and division follow the property regime of the filing jurisdiction",
	}

	boundaries := knowledgeBoundaries(request.Documents)

	caseContext, err := s.buildCaseContext(request, verifications, framework, boundaries)
	if err != nil {
		return nil, err
	}

	// Phase 2: Sequential Analysis
	var phase2 phase2Result
	if err := s.runPhase(ctx, tools, caseContext, phase2Prompt, &phase2); err != nil {
		return nil, fmt.Errorf("phase 2 failed: %w", err)
	}

	phase2JSON, err := json.Marshal(phase2)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize phase 2 context: %w", err)
	}

	// Phase 3: Self-Correction, with Phase 2 findings as visible context
	var phase3 phase3Result
	phase3Context := caseContext + "\n\nPRIOR PHASE FINDINGS:\n" + string(phase2JSON)
	if err := s.runPhase(ctx, tools, phase3Context, phase3Prompt, &phase3); err != nil {
		return nil, fmt.Errorf("phase 3 failed: %w", err)
	}

	phase3JSON, err := json.Marshal(phase3)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize phase 3 context: %w", err)
	}

	// Phase 4: Strategic Output
	var phase4 phase4Result
	phase4Context := phase3Context + "\n\nSELF-CORRECTION FINDINGS:\n" + string(phase3JSON)
	if err := s.runPhase(ctx, tools, phase4Context, phase4Prompt, &phase4); err != nil {
		return nil, fmt.Errorf("phase 4 failed: %w", err)
	}

	// Deterministic supplements: digital-asset scan, settlement
	// simulation, and financial rollups are computed here, never taken
	// from narrative output.
	digitalAssets := DetectCryptoActivity(bankRecordLines(request.Documents))
	scenarios := SimulateSettlementScenarios(phase2.Assets)

	var totalAssets, totalLiabilities float64
	confidences := make([]models.ConfidenceLevel, 0, len(phase2.Assets)*2+len(phase2.Liabilities))
	for _, asset := range phase2.Assets {
		totalAssets += asset.EstimatedValue
		confidences = append(confidences, asset.ValueConfidence, asset.CharacterizationConfidence)
	}
	for _, liability := range phase2.Liabilities {
		totalLiabilities += liability.EstimatedValue
		confidences = append(confidences, liability.ValueConfidence)
	}

	assetConfidences := make([]models.ConfidenceLevel, 0, len(phase2.Assets))
	for _, asset := range phase2.Assets {
		assetConfidences = append(assetConfidences, asset.ValueConfidence)
	}

	netWorth := totalAssets - totalLiabilities
	weakest := models.WeakestConfidence(confidences...)

	output := &models.ForensicOutput{
		DocumentVerification:    verifications,
		JurisdictionalFramework: framework,
		KnowledgeBoundaries:     boundaries,

		Assets:               phase2.Assets,
		Liabilities:          phase2.Liabilities,
		IncomeAnalysis:       phase2.IncomeAnalysis,
		ConcealmentSchemes:   phase2.ConcealmentSchemes,
		DigitalAssets:        digitalAssets,
		BehavioralAssessment: phase2.BehavioralAssessment,

		MethodologyChallenges: phase3.MethodologyChallenges,
		EvidenceRobustness:    phase3.EvidenceRobustness,
		ObjectivityAssessment: phase3.ObjectivityAssessment,
		AlternativeScenarios:  phase3.AlternativeScenarios,

		ExecutiveSummary:        phase4.ExecutiveSummary,
		ConfidenceDashboard:     phase4.ConfidenceDashboard,
		SettlementScenarios:     scenarios,
		ImmediateActions:        phase4.ImmediateActions,
		DiscoveryPriorities:     phase4.DiscoveryPriorities,
		StrategicLeveragePoints: phase4.StrategicLeveragePoints,

		TotalAssetsValue:        totalAssets,
		TotalAssetsConfidence:   models.WeakestConfidence(assetConfidences...),
		TotalLiabilitiesAmount:  totalLiabilities,
		NetWorth:                netWorth,
		NetWorthConfidenceRange: NetWorthConfidenceRange(netWorth, weakest),
	}

	normalizeOutput(output)

	if err := validation.ValidateOutputRecord(output); err != nil {
		return nil, err
	}

	return output, nil
}

const phase2Prompt = `Run Phase 2 (Sequential Analysis) for this case. Enumerate every asset and liability with an estimated value, an ownership percentage, a characterization (separate/community/mixed), and independent confidence levels for value and characterization. Detect concealment schemes and assess behavioral patterns. Use the available tools for document verification, bank statement analysis, and Moore/Marsden apportionment; never invent figures the documents do not support.

Respond with ONLY a JSON object of this shape, no markdown fences or prose:
{"assets": [...], "liabilities": [...], "income_analysis": [...], "concealment_schemes": [...], "behavioral_assessment": {...}}

Each asset/liability object requires: asset_type, description, estimated_value (number), value_confidence, ownership_percentage (number), characterization, characterization_confidence, documentation_reference (string array), notes. Each concealment scheme requires: scheme_type, description, evidence_strength, estimated_amount, amount_confidence, detection_method, supporting_evidence, recovery_probability, recommended_actions. Confidence levels are exactly one of High, Medium, Low, Uncertain.`

const phase3Prompt = `Run Phase 3 (Self-Correction) against the prior findings. Your job is to surface disconfirming analysis, not to re-affirm Phase 2: challenge the methodology, state how robust the evidence base actually is, assess your own objectivity, and produce at least one alternative scenario that would explain the evidence differently.

Respond with ONLY a JSON object of this shape, no markdown fences or prose:
{"methodology_challenges": ["..."], "evidence_robustness": "...", "objectivity_assessment": "...", "alternative_scenarios": [{...}]}`

const phase4Prompt = `Run Phase 4 (Strategic Output). Produce a maximally information-dense executive summary (chain of density), a confidence dashboard with one rollup string per dimension, immediate actions, discovery priorities, and strategic leverage points.

Respond with ONLY a JSON object of this shape, no markdown fences or prose:
{"executive_summary": "...", "confidence_dashboard": {"overall_confidence": "...", "document_completeness": "...", "legal_framework_certainty": "...", "asset_identification_confidence": "...", "concealment_detection_confidence": "...", "valuation_reliability": "...", "strategic_assessment_confidence": "..."}, "immediate_actions": [{...}], "discovery_priorities": [{...}], "strategic_leverage_points": [{...}]}`

// buildCaseContext renders the Phase 1 record and document snapshot as
// the shared user-message preamble for the agent phases.
func (s *ForensicService) buildCaseContext(request models.AnalysisRequest, verifications []models.DocumentVerification, framework map[string]interface{}, boundaries map[string][]string) (string, error) {
	snapshot, err := json.Marshal(request.Documents)
	if err != nil {
		return "", fmt.Errorf("failed to serialize document snapshot: %w", err)
	}
	verificationJSON, err := json.Marshal(verifications)
	if err != nil {
		return "", fmt.Errorf("failed to serialize verifications: %w", err)
	}
	frameworkJSON, err := json.Marshal(framework)
	if err != nil {
		return "", fmt.Errorf("failed to serialize framework: %w", err)
	}
	boundariesJSON, err := json.Marshal(boundaries)
	if err != nil {
		return "", fmt.Errorf("failed to serialize knowledge boundaries: %w", err)
	}

	return fmt.Sprintf(
		"CASE ID: %d\nJURISDICTION: %s\n\nDOCUMENT SNAPSHOT:\n%s\n\nPHASE 1 VERIFICATION:\n%s\n\nJURISDICTIONAL FRAMEWORK:\n%s\n\nKNOWLEDGE BOUNDARIES:\n%s",
		request.CaseID, request.Jurisdiction, snapshot, verificationJSON, frameworkJSON, boundariesJSON), nil
}

// runPhase drives one tool-calling conversation with the reasoning
// backend and parses the final message into target.
func (s *ForensicService) runPhase(ctx context.Context, tools *ForensicTools, caseContext, phasePrompt string, target interface{}) error {
	available := tools.GetAllTools()
	toolIndex := make(map[string]Tool, len(available))
	openaiTools := make([]openai.Tool, 0, len(available))
	for _, tool := range available {
		toolIndex[tool.Name] = tool
		openaiTools = append(openaiTools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: s.systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: caseContext + "\n\n" + phasePrompt},
	}

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", models.ErrJobTimeout, err)
		}

		request := openai.ChatCompletionRequest{
			Model:       s.cfg.Model,
			Messages:    messages,
			Tools:       openaiTools,
			Temperature: float32(s.cfg.Temperature),
		}
		if s.cfg.MaxTokens > 0 {
			request.MaxTokens = s.cfg.MaxTokens
		}

		response, err := s.client.CreateChatCompletion(ctx, request)
		if err != nil {
			return fmt.Errorf("reasoning backend call failed: %w", err)
		}
		if len(response.Choices) == 0 {
			return fmt.Errorf("reasoning backend returned no choices")
		}

		message := response.Choices[0].Message
		if len(message.ToolCalls) == 0 {
			cleaned := stripCodeFences(message.Content)
			if err := json.Unmarshal([]byte(cleaned), target); err != nil {
				return fmt.Errorf("%w: failed to parse phase output: %v", models.ErrValidation, err)
			}
			return nil
		}

		messages = append(messages, message)
		for _, toolCall := range message.ToolCalls {
			result := s.executeToolCall(toolIndex, toolCall)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    result,
				ToolCallID: toolCall.ID,
			})
		}
	}

	return fmt.Errorf("%w: phase exceeded %d tool iterations without a final answer", models.ErrValidation, maxToolIterations)
}

// executeToolCall dispatches one tool call against the closed tool set.
// Unknown tool names and execution failures become structured tool
// results so the conversation can recover.
func (s *ForensicService) executeToolCall(toolIndex map[string]Tool, toolCall openai.ToolCall) string {
	tool, ok := toolIndex[toolCall.Function.Name]
	if !ok {
		log.Printf("WARNING: agent requested unknown tool %q", toolCall.Function.Name)
		return cannotDetermine(fmt.Sprintf("unknown tool: %s", toolCall.Function.Name))
	}

	var params map[string]interface{}
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &params); err != nil {
		return cannotDetermine("tool arguments were not a JSON object")
	}

	result, err := tool.Execute(params)
	if err != nil {
		log.Printf("ERROR: tool %s failed: %v", tool.Name, err)
		return cannotDetermine(fmt.Sprintf("tool execution failed: %v", err))
	}
	return result
}

// stripCodeFences removes markdown code fences the model sometimes
// wraps around JSON output
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}
	return content
}

// knowledgeBoundaries enumerates facts the snapshot cannot settle.
func knowledgeBoundaries(documents []models.DocumentSnapshot) map[string][]string {
	boundaries := map[string][]string{
		"valuation": {"Valuations reflect document dates, not present-day appraisals"},
	}

	hasBankStatement := false
	for _, doc := range documents {
		if doc.Type == "bank_statement" {
			hasBankStatement = true
		}
		if doc.Status != models.DocumentStatusProcessed {
			boundaries["documents"] = append(boundaries["documents"],
				fmt.Sprintf("Document %s (%s) has no extracted content; its contents cannot inform this analysis", doc.ID, doc.Filename))
		}
	}
	if !hasBankStatement {
		boundaries["cash_flow"] = []string{"No bank statements provided; transaction-level cash flow cannot be established"}
	}

	return boundaries
}

// bankRecordLines flattens extracted bank-statement content into the
// textual lines the digital-asset scan operates on.
func bankRecordLines(documents []models.DocumentSnapshot) []string {
	var lines []string
	for _, doc := range documents {
		if doc.Type != "bank_statement" {
			continue
		}
		for _, value := range doc.ExtractedData {
			switch v := value.(type) {
			case string:
				lines = append(lines, strings.Split(v, "\n")...)
			case []interface{}:
				for _, item := range v {
					lines = append(lines, fmt.Sprint(item))
				}
			}
		}
	}
	return lines
}

// normalizeOutput replaces nil collections with empty ones so the
// rendered record always carries the full shape.
func normalizeOutput(output *models.ForensicOutput) {
	if output.DocumentVerification == nil {
		output.DocumentVerification = []models.DocumentVerification{}
	}
	if output.Assets == nil {
		output.Assets = []models.AssetAnalysis{}
	}
	if output.Liabilities == nil {
		output.Liabilities = []models.AssetAnalysis{}
	}
	if output.IncomeAnalysis == nil {
		output.IncomeAnalysis = []map[string]interface{}{}
	}
	if output.ConcealmentSchemes == nil {
		output.ConcealmentSchemes = []models.ConcealmentScheme{}
	}
	if output.BehavioralAssessment == nil {
		output.BehavioralAssessment = map[string]interface{}{}
	}
	if output.MethodologyChallenges == nil {
		output.MethodologyChallenges = []string{}
	}
	if output.AlternativeScenarios == nil {
		output.AlternativeScenarios = []map[string]interface{}{}
	}
	if output.ImmediateActions == nil {
		output.ImmediateActions = []map[string]interface{}{}
	}
	if output.DiscoveryPriorities == nil {
		output.DiscoveryPriorities = []map[string]interface{}{}
	}
	if output.StrategicLeveragePoints == nil {
		output.StrategicLeveragePoints = []map[string]interface{}{}
	}
}

// NetWorthConfidenceRange derives the textual net-worth range. The
// half-width is driven by the weakest constituent confidence level:
// High 5%, Medium 15%, Low 30%. Uncertain yields an unbounded statement
// instead of a fabricated interval.
func NetWorthConfidenceRange(netWorth float64, weakest models.ConfidenceLevel) string {
	var width float64
	switch weakest {
	case models.ConfidenceHigh:
		width = 0.05
	case models.ConfidenceMedium:
		width = 0.15
	case models.ConfidenceLow:
		width = 0.30
	default:
		return "Insufficient data to bound net worth (Uncertain confidence)"
	}

	delta := math.Abs(netWorth) * width
	return fmt.Sprintf("%s - %s (%s confidence)",
		formatUSD(netWorth-delta), formatUSD(netWorth+delta), weakest)
}

// formatUSD renders a dollar amount with thousands separators.
func formatUSD(value float64) string {
	negative := value < 0
	s := strconv.FormatFloat(math.Abs(value), 'f', 2, 64)

	parts := strings.SplitN(s, ".", 2)
	integer := parts[0]
	var grouped strings.Builder
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	result := "$" + grouped.String() + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}
