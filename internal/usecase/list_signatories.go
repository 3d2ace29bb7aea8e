package usecase

import (
	"context"

	"github.com/gatorkit/gator-cli/internal/domain"
)

// ListSignatoriesResult contains the result of listing signatories
type ListSignatoriesResult struct {
	Signatories []Signatory
	Selected    domain.SignatoryName
}

// ListSignatories is a use case for listing the signing strategies
type ListSignatories struct {
	registry SignatoryRegistry
}

// NewListSignatories creates a new ListSignatories use case
func NewListSignatories(registry SignatoryRegistry) *ListSignatories {
	return &ListSignatories{
		registry: registry,
	}
}

// Run executes the use case
func (uc *ListSignatories) Run(ctx context.Context, selected domain.SignatoryName) (*ListSignatoriesResult, error) {
	return &ListSignatoriesResult{
		Signatories: uc.registry.List(),
		Selected:    selected,
	}, nil
}
