// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: config.toml with CLAUSESENSE_* environment overrides
//   - PromptStore: editable LLM prompt templates in prompts/*.txt
//   - PlaybookSource: custom rule playbooks in playbooks/*.toml
package file
