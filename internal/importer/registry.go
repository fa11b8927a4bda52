package importer

import (
	"fmt"

	"github.com/fylein/fyle-integrations-imports/internal"
	"github.com/fylein/fyle-integrations-imports/internal/attribute"
)

// moduleConstructors maps a source field to its reconciliation policy.
// Unknown well-known fields fail at construction; anything else with IsCustom
// set falls through to the custom-field module.
var moduleConstructors = map[string]func(Config, Deps) module{
	attribute.TypeProject:    func(cfg Config, _ Deps) module { return projectModule{cfg: cfg} },
	attribute.TypeCategory:   func(cfg Config, _ Deps) module { return categoryModule{cfg: cfg} },
	attribute.TypeCostCenter: func(cfg Config, _ Deps) module { return costCenterModule{cfg: cfg} },
	attribute.TypeTaxGroup:   func(cfg Config, _ Deps) module { return taxGroupModule{cfg: cfg} },
	attribute.TypeMerchant:   func(cfg Config, _ Deps) module { return merchantModule{cfg: cfg} },
}

func moduleFor(cfg Config, deps Deps) (module, error) {
	if construct, ok := moduleConstructors[cfg.SourceField]; ok {
		return construct(cfg, deps), nil
	}
	if cfg.IsCustom {
		return customFieldModule{cfg: cfg, deps: deps}, nil
	}
	return nil, internal.NewConfigurationError(
		fmt.Sprintf("no import module registered for source field %q", cfg.SourceField),
		internal.ErrCodeUnknownSourceField,
	)
}
