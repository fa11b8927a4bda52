// Package connector defines the narrow contract the import pipeline needs
// from an accounting-backend connector: one named sync method per destination
// attribute kind, each refreshing the destination attribute store as a side
// effect.
package connector

import (
	"context"
	"fmt"
	"sort"

	"github.com/fylein/fyle-integrations-imports/internal"
)

// Conventional sync method names shared across backends. A backend registers
// only the kinds it supports.
const (
	SyncProjects          = "projects"
	SyncCategories        = "categories"
	SyncCostCenters       = "cost_centers"
	SyncAccounts          = "accounts"
	SyncItems             = "items"
	SyncExpenseCategories = "expense_categories"
	SyncTaxCodes          = "tax_codes"
	SyncVendors           = "vendors"
	SyncCustomFields      = "custom_fields"
)

type SyncFunc func(ctx context.Context) error

type Connector interface {
	Sync(ctx context.Context, method string) error
	Has(method string) bool
	Methods() []string
}

// Registry is a compile-time map from sync method name to implementation.
// Unknown methods fail at configuration time rather than mid-import.
type Registry struct {
	methods map[string]SyncFunc
}

func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]SyncFunc)}
}

func (r *Registry) Register(method string, fn SyncFunc) *Registry {
	r.methods[method] = fn
	return r
}

func (r *Registry) Has(method string) bool {
	_, ok := r.methods[method]
	return ok
}

func (r *Registry) Methods() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Sync(ctx context.Context, method string) error {
	fn, ok := r.methods[method]
	if !ok {
		return internal.NewConfigurationError(
			fmt.Sprintf("connector has no sync method %q", method),
			internal.ErrCodeUnknownSyncMethod,
		)
	}
	return fn(ctx)
}

// Validate checks every requested method upfront so a misconfigured import
// fails before any side effects.
func (r *Registry) Validate(methods []string) error {
	for _, method := range methods {
		if !r.Has(method) {
			return internal.NewConfigurationError(
				fmt.Sprintf("connector has no sync method %q", method),
				internal.ErrCodeUnknownSyncMethod,
			)
		}
	}
	return nil
}
