package driven

import "github.com/custodia-labs/clausesense/internal/core/domain"

// PlaybookSource supplies user-defined playbooks.
// Built-in playbooks are provided by core and are not read from here.
type PlaybookSource interface {
	// LoadPlaybooks returns custom playbooks. A missing source yields none.
	LoadPlaybooks() ([]domain.Playbook, error)
}
