package chat_test

import (
	"github.com/killallgit/loom/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("State", func() {
	Describe("NewState", func() {
		It("should start empty with the thread id", func() {
			state := chat.NewState("t1")

			Expect(state.ThreadID).To(Equal("t1"))
			Expect(chat.IsEmpty(state)).To(BeTrue())
		})
	})

	Describe("NewStateWithSystem", func() {
		It("should seed a system message when a prompt is given", func() {
			state := chat.NewStateWithSystem("t1", "You are a helpful assistant")

			Expect(chat.GetMessageCount(state)).To(Equal(1))
			Expect(chat.HasSystemMessage(state)).To(BeTrue())
		})

		It("should stay empty for a blank prompt", func() {
			state := chat.NewStateWithSystem("t1", "")

			Expect(chat.IsEmpty(state)).To(BeTrue())
		})
	})

	Describe("AddMessage", func() {
		It("should append without mutating the original state", func() {
			base := chat.NewState("t1")
			grown := chat.AddMessage(base, chat.NewUserMessage("first"))

			Expect(chat.GetMessageCount(base)).To(Equal(0))
			Expect(chat.GetMessageCount(grown)).To(Equal(1))
		})

		It("should preserve append order", func() {
			state := chat.NewState("t1")
			state = chat.AddMessage(state, chat.NewUserMessage("one"))
			state = chat.AddMessage(state, chat.NewAssistantMessage("two"))
			state = chat.AddMessage(state, chat.NewUserMessage("three"))

			messages := chat.GetMessages(state)
			Expect(messages[0].Content).To(Equal("one"))
			Expect(messages[1].Content).To(Equal("two"))
			Expect(messages[2].Content).To(Equal("three"))
		})
	})

	Describe("GetLastMessage", func() {
		It("should return false on an empty state", func() {
			_, ok := chat.GetLastMessage(chat.NewState("t1"))
			Expect(ok).To(BeFalse())
		})

		It("should return the newest message", func() {
			state := chat.NewState("t1")
			state = chat.AddMessage(state, chat.NewUserMessage("old"))
			state = chat.AddMessage(state, chat.NewAssistantMessage("new"))

			last, ok := chat.GetLastMessage(state)
			Expect(ok).To(BeTrue())
			Expect(last.Content).To(Equal("new"))
		})
	})

	Describe("GetLastUserMessage", func() {
		It("should skip newer non-user messages", func() {
			state := chat.NewState("t1")
			state = chat.AddMessage(state, chat.NewUserMessage("question"))
			state = chat.AddMessage(state, chat.NewAssistantMessage("answer"))

			last, ok := chat.GetLastUserMessage(state)
			Expect(ok).To(BeTrue())
			Expect(last.Content).To(Equal("question"))
		})
	})

	Describe("IsPrefixOf", func() {
		It("should accept a state extended by appends", func() {
			base := chat.NewState("t1")
			base = chat.AddMessage(base, chat.NewUserMessage("one"))
			grown := chat.AddMessage(base, chat.NewAssistantMessage("two"))

			Expect(chat.IsPrefixOf(base, grown)).To(BeTrue())
			Expect(chat.IsPrefixOf(grown, base)).To(BeFalse())
		})

		It("should reject states that diverge", func() {
			base := chat.NewState("t1")
			base = chat.AddMessage(base, chat.NewUserMessage("one"))

			left := chat.AddMessage(base, chat.NewAssistantMessage("a"))
			right := chat.AddMessage(base, chat.NewAssistantMessage("b"))

			Expect(chat.IsPrefixOf(left, right)).To(BeFalse())
		})

		It("should treat equal states as prefixes", func() {
			state := chat.AddMessage(chat.NewState("t1"), chat.NewUserMessage("one"))
			Expect(chat.IsPrefixOf(state, state)).To(BeTrue())
		})
	})
})
