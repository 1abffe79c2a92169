package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ChatMessage is one entry of the conversation history sent with a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of the backend chat endpoint.
type ChatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []ChatMessage `json:"conversation_history"`
	ExecuteAPI          bool          `json:"execute_api"`
}

// ChatResponse is the structured answer of the chat endpoint. Every field is
// optional; the backend does not validate the shape centrally.
type ChatResponse struct {
	Response          string            `json:"response,omitempty"`
	RecommendedAPIs   json.RawMessage   `json:"recommended_apis,omitempty"`
	NeedsMoreInfo     bool              `json:"needs_more_info,omitempty"`
	MissingParameters []string          `json:"missing_parameters,omitempty"`
	APIResults        json.RawMessage   `json:"api_results,omitempty"`
	Metadata          *ResponseMetadata `json:"metadata,omitempty"`
}

type ResponseMetadata struct {
	Understanding           string           `json:"understanding,omitempty"`
	ConfidenceLevel         string           `json:"confidence_level,omitempty"`
	ClarificationNote       string           `json:"clarification_note,omitempty"`
	ResultsAnalysis         *ResultsAnalysis `json:"results_analysis,omitempty"`
	AlternativeApplications json.RawMessage  `json:"alternative_applications,omitempty"`
}

type ResultsAnalysis struct {
	ResultsSummary   string            `json:"results_summary,omitempty"`
	DetailedAnalysis string            `json:"detailed_analysis,omitempty"`
	KeyTakeaways     []string          `json:"key_takeaways,omitempty"`
	Recommendations  json.RawMessage   `json:"recommendations,omitempty"`
	TechnicalContext *TechnicalContext `json:"technical_context,omitempty"`
	Limitations      string            `json:"limitations,omitempty"`
}

type TechnicalContext struct {
	APIUsed           string          `json:"api_used,omitempty"`
	AreaAnalyzed      json.RawMessage `json:"area_analyzed,omitempty"`
	TimePeriods       json.RawMessage `json:"time_periods,omitempty"`
	KeyThresholds     json.RawMessage `json:"key_thresholds,omitempty"`
	ConfidenceMetrics json.RawMessage `json:"confidence_metrics,omitempty"`
}

func (r ChatResponse) ResultsAnalysis() *ResultsAnalysis {
	if r.Metadata == nil {
		return nil
	}
	return r.Metadata.ResultsAnalysis
}

// APIUsed returns the capability identifier recorded by the analysis pass.
func (r ChatResponse) APIUsed() string {
	ra := r.ResultsAnalysis()
	if ra == nil || ra.TechnicalContext == nil {
		return ""
	}
	return ra.TechnicalContext.APIUsed
}

// HasAnalysis reports whether the response carries an analysis-bearing field.
func (r ChatResponse) HasAnalysis() bool {
	return hasValue(r.APIResults) || r.ResultsAnalysis() != nil
}

func hasValue(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// DecodeChatResponse accepts either a bare JSON string or a response object.
func DecodeChatResponse(raw []byte) (ChatResponse, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ChatResponse{}, fmt.Errorf("domain: decode text response: %w", err)
		}
		return ChatResponse{Response: s}, nil
	}
	var out ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return ChatResponse{}, fmt.Errorf("domain: decode chat response: %w", err)
	}
	return out, nil
}
