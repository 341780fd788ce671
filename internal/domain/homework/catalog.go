// internal/domain/homework/catalog.go
package homework

import "fmt"

// Review statuses reported by the endpoint.
const (
	StatusApproved  = "approved"
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
)

// Catalog maps a review status code to the verdict sentence shown to the user.
type Catalog map[string]string

// DefaultCatalog returns a fresh copy of the built-in verdicts.
func DefaultCatalog() Catalog {
	return Catalog{
		StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
		StatusReviewing: "Работа взята на проверку ревьюером.",
		StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
	}
}

// Verdict returns the verdict text for status, or ErrVerdictLookup.
func (c Catalog) Verdict(status string) (string, error) {
	verdict, ok := c[status]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrVerdictLookup, status)
	}
	return verdict, nil
}
