package driven

// PromptStore supplies the LLM prompt templates so they can be tuned
// without a rebuild. Load returns an error for names it has no override
// for; callers then fall back to their built-in template.
type PromptStore interface {
	Load(name string) (string, error)

	// Reload drops cached templates so edited files are picked up.
	Reload()
}

// Template names.
const (
	// PromptSummary takes two %s verbs: the findings, then the clause evidence.
	PromptSummary = "summary"

	// PromptNegotiation takes two %s verbs: the findings, then the cited clauses.
	PromptNegotiation = "negotiation"

	// PromptChatSystem is the system message for contract questions. No verbs.
	PromptChatSystem = "chat_system"
)

// PromptStoreAware is implemented by services whose prompts can be overridden.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
