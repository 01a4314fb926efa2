package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return an
	// error so callers can fall back to built-in defaults.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem grounds the model in retrieved context. The
	// template expects no placeholders; the context block is supplied
	// as part of the user message.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerGeneral is the system prompt used when retrieval
	// returned nothing and the model answers from general knowledge.
	PromptAnswerGeneral = "answer_general"
)
