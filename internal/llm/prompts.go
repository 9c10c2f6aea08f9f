package llm

import "fmt"

// BuildClassifierPrompt creates the fixed instruction the intent gate sends
// to the fast model. The response must be exactly one category label.
func BuildClassifierPrompt(utterance string) string {
	return fmt.Sprintf(
		"Classify this user prompt into one of three categories: 'Functional', 'Creative', or 'Wisdom'. "+
			"Respond with ONLY the category name.\n\n"+
			"User prompt: %s", utterance)
}

// BuildGenerationPrompt assembles the two-part generation prompt: the mode
// directive followed by a labeled echo of the raw utterance.
func BuildGenerationPrompt(directive, utterance string) string {
	return fmt.Sprintf("%s\n\nArchitect's Prompt: %s", directive, utterance)
}
