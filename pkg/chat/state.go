package chat

// State is the full conversation history for one thread. Messages are
// append-only: every operation returns a new State and never mutates the
// receiver's message slice, so a checkpointed State can be held safely while
// a turn continues to grow a copy.
type State struct {
	ThreadID string    `json:"thread_id"`
	UserID   string    `json:"user_id,omitempty"`
	Messages []Message `json:"messages"`
}

func NewState(threadID string) State {
	return State{
		ThreadID: threadID,
		Messages: make([]Message, 0),
	}
}

func NewStateWithSystem(threadID, systemPrompt string) State {
	state := NewState(threadID)
	if systemPrompt != "" {
		state = AddMessage(state, NewSystemMessage(systemPrompt))
	}
	return state
}

func AddMessage(state State, msg Message) State {
	messages := make([]Message, len(state.Messages)+1)
	copy(messages, state.Messages)
	messages[len(state.Messages)] = msg

	return State{
		ThreadID: state.ThreadID,
		UserID:   state.UserID,
		Messages: messages,
	}
}

func GetMessages(state State) []Message {
	result := make([]Message, len(state.Messages))
	copy(result, state.Messages)
	return result
}

func GetMessageCount(state State) int {
	return len(state.Messages)
}

func GetLastMessage(state State) (Message, bool) {
	if len(state.Messages) == 0 {
		return Message{}, false
	}
	return state.Messages[len(state.Messages)-1], true
}

func GetLastAssistantMessage(state State) (Message, bool) {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		msg := state.Messages[i]
		if msg.IsAssistant() {
			return msg, true
		}
	}
	return Message{}, false
}

func GetLastUserMessage(state State) (Message, bool) {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		msg := state.Messages[i]
		if msg.IsUser() {
			return msg, true
		}
	}
	return Message{}, false
}

func IsEmpty(state State) bool {
	return len(state.Messages) == 0
}

func HasSystemMessage(state State) bool {
	for _, msg := range state.Messages {
		if msg.IsSystem() {
			return true
		}
	}
	return false
}

// IsPrefixOf reports whether state's messages form a strict or equal prefix
// of other's, compared by message id. Checkpoints for a thread must satisfy
// this pairwise in sequence order.
func IsPrefixOf(state, other State) bool {
	if len(state.Messages) > len(other.Messages) {
		return false
	}
	for i, msg := range state.Messages {
		if other.Messages[i].ID != msg.ID {
			return false
		}
	}
	return true
}
