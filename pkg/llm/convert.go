package llm

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/killallgit/loom/pkg/chat"
	"github.com/tmc/langchaingo/llms"
)

// toMessageContent converts the conversation transcript to LangChain format.
// Assistant tool calls and tool results round-trip through the dedicated
// content parts so backends see the full call/response pairing.
func toMessageContent(messages []chat.Message) []llms.MessageContent {
	converted := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		switch {
		case msg.IsAssistant() && msg.HasToolCalls():
			parts := make([]llms.ContentPart, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				parts = append(parts, llms.TextContent{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: encodeArguments(call.Arguments),
					},
				})
			}
			converted = append(converted, llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: parts,
			})

		case msg.IsTool():
			converted = append(converted, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: msg.ToolCallID,
						Name:       msg.ToolName,
						Content:    msg.Content,
					},
				},
			})

		default:
			converted = append(converted, llms.TextParts(roleToMessageType(msg.Role), msg.Content))
		}
	}
	return converted
}

func roleToMessageType(role string) llms.ChatMessageType {
	switch role {
	case chat.RoleSystem:
		return llms.ChatMessageTypeSystem
	case chat.RoleAssistant:
		return llms.ChatMessageTypeAI
	case chat.RoleTool:
		return llms.ChatMessageTypeTool
	default:
		return llms.ChatMessageTypeHuman
	}
}

// fromContentChoice converts a LangChain response choice back into an
// assistant message. Backends that omit call ids (ollama does) get one
// generated so the tool result can still be correlated.
func fromContentChoice(choice *llms.ContentChoice) chat.Message {
	if len(choice.ToolCalls) == 0 {
		return chat.NewAssistantMessage(choice.Content)
	}

	calls := make([]chat.ToolCall, 0, len(choice.ToolCalls))
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		id := tc.ID
		if id == "" {
			id = uuid.NewString()
		}
		calls = append(calls, chat.ToolCall{
			ID:        id,
			Name:      tc.FunctionCall.Name,
			Arguments: decodeArguments(tc.FunctionCall.Arguments),
		})
	}

	if len(calls) == 0 {
		return chat.NewAssistantMessage(choice.Content)
	}
	return chat.NewAssistantMessageWithToolCalls(choice.Content, calls)
}

func encodeArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// decodeArguments parses the JSON argument string a backend produced.
// Malformed payloads are preserved under a raw key so the tool layer can
// report a useful validation error instead of losing the input.
func decodeArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{"raw": raw, "parse_error": fmt.Sprintf("%v", err)}
	}
	return args
}
