package httpserver

import "encoding/json"

// Voice-platform webhook envelope. The platform batches tool calls inside a
// message; arguments arrive as either a JSON object or a JSON-encoded
// string, so they are decoded in two steps.

type webhookRequest struct {
	Message webhookMessage `json:"message"`
}

type webhookMessage struct {
	ToolCalls []toolCall `json:"toolCalls"`
	Call      *callInfo  `json:"call,omitempty"`
	// Conversation is the prior turn history; its length feeds the
	// session contamination check.
	Conversation []json.RawMessage `json:"conversation,omitempty"`
}

type callInfo struct {
	ID       string        `json:"id"`
	Customer *callCustomer `json:"customer,omitempty"`
}

type callCustomer struct {
	Number string `json:"number"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type toolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

type webhookResponse struct {
	Results []toolResult `json:"results"`
}

// decodeArguments unpacks tool arguments into dst, unwrapping the
// string-encoded form the platform sometimes sends.
func decodeArguments(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "" {
			return nil
		}
		return json.Unmarshal([]byte(asString), dst)
	}
	return json.Unmarshal(raw, dst)
}

func (m webhookMessage) callID() string {
	if m.Call != nil {
		return m.Call.ID
	}
	return ""
}

func (m webhookMessage) callerNumber() string {
	if m.Call != nil && m.Call.Customer != nil {
		return m.Call.Customer.Number
	}
	return ""
}

// turnCount reports the prior conversation length, or -1 when the platform
// did not include one (which skips the contamination check).
func (m webhookMessage) turnCount() int {
	if m.Conversation == nil {
		return -1
	}
	return len(m.Conversation)
}
