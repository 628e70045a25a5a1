package mcp

// CompleteRequest is the params of "sampling/complete", a server-to-client
// request asking the client to run an LLM completion on its behalf.
type CompleteRequest struct {
	Argument CompletionArgument `json:"argument"`
}

// CompletionArgument carries the messages and sampling controls for a
// completion request.
type CompletionArgument struct {
	Messages         []SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
	SystemPrompt     *string           `json:"systemPrompt,omitempty"`
	IncludeContext   *string           `json:"includeContext,omitempty"`
	Temperature      *float64          `json:"temperature,omitempty"`
	MaxTokens        *int              `json:"maxTokens,omitempty"`
	StopSequences    []string          `json:"stopSequences,omitempty"`
}

// ModelPreferences expresses soft constraints over which model the client
// should pick to satisfy a completion request.
type ModelPreferences struct {
	Models               []string         `json:"models,omitempty"`
	CostPriority         *PreferenceLevel `json:"costPriority,omitempty"`
	SpeedPriority        *PreferenceLevel `json:"speedPriority,omitempty"`
	IntelligencePriority *PreferenceLevel `json:"intelligencePriority,omitempty"`
}

// PreferenceLevel is a coarse tier used by ModelPreferences.
type PreferenceLevel string

const (
	PreferenceLow    PreferenceLevel = "low"
	PreferenceMedium PreferenceLevel = "medium"
	PreferenceHigh   PreferenceLevel = "high"
)

// SamplingMessage is one turn of the conversation handed to the client's
// LLM.
type SamplingMessage struct {
	Role    MessageRole     `json:"role"`
	Content SamplingContent `json:"content"`
}

// SamplingContent is a tagged-variant message body: text or image.
type SamplingContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// TextSamplingContent builds a "text" sampling content entry.
func TextSamplingContent(text string) SamplingContent {
	return SamplingContent{Type: "text", Text: text}
}

// CompleteResponse is the result of "sampling/complete".
type CompleteResponse struct {
	Completion CompletionResult `json:"completion"`
	Model      *string          `json:"model,omitempty"`
	StopReason *StopReason      `json:"stopReason,omitempty"`
}

// CompletionResult is a tagged-variant completion payload; currently only
// text completions are defined.
type CompletionResult struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// StopReason explains why a completion stopped generating.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
	StopReasonToolUse      StopReason = "tool_use"
)
