package scheduler

import (
	"context"
	"log/slog"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/importer"
)

// Task is one named unit of work in a chain.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Chain executes tasks strictly in order. Task N+1 does not start until task
// N returned; a failure is logged and the chain keeps going, since scheduled
// import runs record their own failures on the import log.
type Chain struct {
	tasks  []Task
	logger *slog.Logger
}

func NewChain(logger *slog.Logger) *Chain {
	return &Chain{logger: logger}
}

func (c *Chain) Append(name string, run func(ctx context.Context) error) *Chain {
	c.tasks = append(c.tasks, Task{Name: name, Run: run})
	return c
}

func (c *Chain) Len() int {
	return len(c.tasks)
}

func (c *Chain) Run(ctx context.Context) {
	for _, task := range c.tasks {
		c.logger.Info("running chained import task", "task", task.Name)
		if err := task.Run(ctx); err != nil {
			c.logger.Error("chained import task failed", "task", task.Name, "error", err)
		}
	}
}

// CategorySettings configures the category import for one workspace.
type CategorySettings struct {
	DestinationField           string
	DestinationSyncMethods     []string
	IsAutoSyncEnabled          bool
	Is3DMapping                bool
	ChartsOfAccounts           []string
	UseMappingTable            bool
	PrependCodeToName          bool
	ImportWithoutDestinationID bool
}

// TaxSettings configures the tax group import.
type TaxSettings struct {
	DestinationField       string
	DestinationSyncMethods []string
}

// MerchantSettings configures importing accounting vendors as merchants.
type MerchantSettings struct {
	DestinationField       string
	DestinationSyncMethods []string
	IsAutoSyncEnabled      bool
}

// MappingSetting configures one generic source-to-destination import, custom
// fields included.
type MappingSetting struct {
	SourceField                string
	DestinationField           string
	DestinationSyncMethods     []string
	IsCustom                   bool
	IsAutoSyncEnabled          bool
	PrependCodeToName          bool
	ImportWithoutDestinationID bool
	BillableDetailKey          string
	SourcePlaceholder          string
}

// TaskSettings is everything one workspace imports, assembled from its
// configuration by the caller.
type TaskSettings struct {
	ImportCategories         *CategorySettings
	ImportTax                *TaxSettings
	ImportVendorsAsMerchants *MerchantSettings
	MappingSettings          []MappingSetting
}

// BuildImportChain assembles the ordered chain for one workspace: categories
// run first so custom-field and mapping dependents see fresh categories, then
// projects/cost centers/custom fields, then tax groups and merchants.
func BuildImportChain(workspaceID int64, settings TaskSettings, deps importer.Deps) (*Chain, error) {
	chain := NewChain(deps.Logger)

	if s := settings.ImportCategories; s != nil {
		cfg := importer.Config{
			WorkspaceID:                workspaceID,
			SourceField:                attribute.TypeCategory,
			DestinationField:           s.DestinationField,
			DestinationSyncMethods:     s.DestinationSyncMethods,
			AutoSyncEnabled:            s.IsAutoSyncEnabled,
			Is3DMapping:                s.Is3DMapping,
			ChartsOfAccounts:           s.ChartsOfAccounts,
			UseMappingTable:            s.UseMappingTable,
			PrependCodeToName:          s.PrependCodeToName,
			ImportWithoutDestinationID: s.ImportWithoutDestinationID,
		}
		if err := appendImport(chain, "import_categories", cfg, deps); err != nil {
			return nil, err
		}
	}

	for _, s := range settings.MappingSettings {
		cfg := importer.Config{
			WorkspaceID:                workspaceID,
			SourceField:                s.SourceField,
			DestinationField:           s.DestinationField,
			DestinationSyncMethods:     s.DestinationSyncMethods,
			IsCustom:                   s.IsCustom,
			AutoSyncEnabled:            s.IsAutoSyncEnabled,
			PrependCodeToName:          s.PrependCodeToName,
			ImportWithoutDestinationID: s.ImportWithoutDestinationID,
			BillableDetailKey:          s.BillableDetailKey,
			SourcePlaceholder:          s.SourcePlaceholder,
		}
		if err := appendImport(chain, "import_"+s.SourceField, cfg, deps); err != nil {
			return nil, err
		}
	}

	if s := settings.ImportTax; s != nil {
		cfg := importer.Config{
			WorkspaceID:            workspaceID,
			SourceField:            attribute.TypeTaxGroup,
			DestinationField:       s.DestinationField,
			DestinationSyncMethods: s.DestinationSyncMethods,
		}
		if err := appendImport(chain, "import_tax_groups", cfg, deps); err != nil {
			return nil, err
		}
	}

	if s := settings.ImportVendorsAsMerchants; s != nil {
		cfg := importer.Config{
			WorkspaceID:            workspaceID,
			SourceField:            attribute.TypeMerchant,
			DestinationField:       s.DestinationField,
			DestinationSyncMethods: s.DestinationSyncMethods,
			AutoSyncEnabled:        s.IsAutoSyncEnabled,
		}
		if err := appendImport(chain, "import_merchants", cfg, deps); err != nil {
			return nil, err
		}
	}

	return chain, nil
}

// appendImport constructs the importer eagerly so configuration defects
// surface when the chain is built, not when the schedule fires.
func appendImport(chain *Chain, name string, cfg importer.Config, deps importer.Deps) error {
	imp, err := importer.New(cfg, deps)
	if err != nil {
		return err
	}
	chain.Append(name, imp.Run)
	return nil
}
