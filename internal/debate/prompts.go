package debate

import (
	"fmt"
	"strings"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
)

const conversationHeader = "\n\nConversation so far:\n"

const formatDirective = `Respond EXACTLY in this format, one sentence per field, with no additional commentary:

Counterargument: <one sentence>
Score: <a number from 0 to 10>
Coaching Tip: <one sentence>`

// BuildPrompt renders the model prompt. The output depends only on its
// arguments, so identical inputs always yield identical prompts.
func BuildPrompt(topic string, mode persona.Mode, history []Turn, latest string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Debate Topic: %s\n", topic)
	fmt.Fprintf(&sb, "Mode: %s\n", mode)
	sb.WriteString(mode.Instruction())
	sb.WriteString("\n\n")
	sb.WriteString(formatDirective)
	sb.WriteString(conversationHeader)

	written := 0
	for _, turn := range history {
		if turn.Role == RoleSystem {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", turn.Role, turn.Text)
		written++
	}
	if written == 0 {
		sb.WriteString("(no prior turns)\n")
	}

	fmt.Fprintf(&sb, "\nLatest argument:\n%s: %s\n", RoleUser, latest)
	return sb.String()
}

// SplitPrompt separates a BuildPrompt result into the standing instructions
// (topic, mode, persona and reply format) and the conversation that follows.
// A prompt without a conversation section is returned whole as conversation.
func SplitPrompt(prompt string) (instructions, conversation string) {
	i := strings.Index(prompt, conversationHeader)
	if i < 0 {
		return "", prompt
	}
	return prompt[:i], strings.TrimPrefix(prompt[i:], "\n\n")
}
