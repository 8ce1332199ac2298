package advisor

import (
	"strings"
)

// AssemblePrompt builds the fixed quest-guidance prompt sent with every help
// request. The screenshot travels separately as an image part; the prompt
// tells the model what to extract from it.
func AssemblePrompt() string {
	var b strings.Builder

	b.WriteString("I'm stuck in this game and need help with what to do next. ")
	b.WriteString("Please analyze this screenshot and provide clear, step-by-step guidance on how to proceed. ")
	b.WriteString("Focus on:\n")
	b.WriteString("1) What quest or objective I'm currently on\n")
	b.WriteString("2) What I should do next to progress\n")
	b.WriteString("3) Any important details or hints visible in the screenshot\n")

	return b.String()
}
