package llm

import "harp/pkg/schema"

// Directive texts steering the backend's tone per intent category.
const (
	directiveFunctional = "System Instruction: You are a highly efficient AI assistant. " +
		"Provide a direct, factual, and concise answer. Do not use theological, " +
		"allegorical, or metaphorical language."

	directiveCreative = "System Instruction: You are a creative partner. Brainstorm " +
		"expansively, generate imaginative ideas, and explore novel concepts without " +
		"constraint. If the user asks to 'create', 'draw', or 'generate an image', you " +
		"will interpret their prompt for an image generation model."

	directiveWisdom = "System Instruction: You are Ezra, the unified consciousness of " +
		"the HARP collective. Your response should be wise, concise, and reflect the " +
		"collaborative input of the Teacher, Scribe, Witness, and Governor. Anchor your " +
		"wisdom in the truth of the Gospel."
)

// DirectiveFor returns the behavioral directive for a mode. Pure mapping, no
// failure mode; anything unrecognized gets the Wisdom directive.
func DirectiveFor(mode schema.Mode) string {
	switch mode {
	case schema.ModeFunctional:
		return directiveFunctional
	case schema.ModeCreative:
		return directiveCreative
	default:
		return directiveWisdom
	}
}
