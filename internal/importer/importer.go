package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/fylein/fyle-integrations-imports/internal"
	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/cache"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	importlogDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/importlog"
	"github.com/fylein/fyle-integrations-imports/internal/core/events"
	"github.com/fylein/fyle-integrations-imports/internal/mapping"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

const (
	// batchSize bounds how many destination attributes are reconciled and
	// posted per round trip.
	batchSize = 200

	// freshnessWindow is how long a completed run stays fresh, and doubles as
	// the timeout after which a dangling IN_PROGRESS run may be overridden.
	freshnessWindow = 30 * time.Minute
)

// Importer runs one guarded import for a single (workspace, source field)
// pair. It owns the import log state machine; everything else goes through
// the injected collaborators.
type Importer struct {
	cfg    Config
	mod    module
	deps   Deps
	single singleCallModule
}

// New validates the configuration, resolves the module for the source field
// and checks every requested connector sync method upfront.
func New(cfg Config, deps Deps) (*Importer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mod, err := moduleFor(cfg, deps)
	if err != nil {
		return nil, err
	}
	for _, method := range cfg.DestinationSyncMethods {
		if !deps.Connector.Has(method) {
			return nil, internal.NewConfigurationError(
				fmt.Sprintf("connector has no sync method %q", method),
				internal.ErrCodeUnknownSyncMethod,
			)
		}
	}
	imp := &Importer{cfg: cfg, mod: mod, deps: deps}
	if single, ok := mod.(singleCallModule); ok {
		imp.single = single
	}
	return imp, nil
}

// Run executes the import state machine. During scheduled execution nothing
// escapes this boundary: failures are classified and persisted on the import
// log, and only ad hoc callers with PropagateErrors set see the error itself.
func (imp *Importer) Run(ctx context.Context) error {
	log, created, err := imp.deps.ImportLogs.GetOrCreateInProgress(imp.cfg.WorkspaceID, imp.cfg.SourceField)
	if err != nil {
		return err
	}

	if log.Status == importlogDatamodel.StatusInProgress && !created && !imp.cfg.AllowInProgressOverride {
		imp.deps.Logger.Info("skipping import, already in progress",
			"workspace_id", imp.cfg.WorkspaceID,
			"attribute_type", imp.cfg.SourceField)
		return nil
	}
	if log.LastSuccessfulRunAt != nil && time.Since(*log.LastSuccessfulRunAt) < freshnessWindow {
		imp.deps.Logger.Info("skipping import, last run still fresh",
			"workspace_id", imp.cfg.WorkspaceID,
			"attribute_type", imp.cfg.SourceField,
			"last_successful_run_at", *log.LastSuccessfulRunAt)
		return nil
	}

	watermark := log.LastSuccessfulRunAt

	log.ResetProgress()
	if err := imp.saveLog(ctx, log); err != nil {
		return err
	}

	runErr := imp.runBodyRecovered(ctx, log, watermark)
	if runErr == nil {
		return nil
	}

	errType := internal.ErrorTypeOf(runErr)
	if internal.IsFatal(runErr) {
		log.MarkFatal(string(errType), runErr.Error())
	} else {
		log.MarkFailed(string(errType), runErr.Error())
	}
	if saveErr := imp.saveLog(ctx, log); saveErr != nil {
		imp.deps.Logger.Error("failed to persist import log after failure",
			"workspace_id", imp.cfg.WorkspaceID,
			"attribute_type", imp.cfg.SourceField,
			"error", saveErr)
	}
	imp.deps.Logger.Error("import run failed",
		"workspace_id", imp.cfg.WorkspaceID,
		"attribute_type", imp.cfg.SourceField,
		"error_type", string(errType),
		"error", runErr)

	if imp.cfg.PropagateErrors {
		return runErr
	}
	return nil
}

// runBodyRecovered converts panics from the body into classified errors so
// the wrapper above always gets a chance to persist the log.
func (imp *Importer) runBodyRecovered(ctx context.Context, log *importlogDatamodel.ImportLog, watermark *time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = internal.NewInternalError(fmt.Sprintf("import run panicked: %v", r), nil)
		}
	}()
	return imp.runBody(ctx, log, watermark)
}

func (imp *Importer) runBody(ctx context.Context, log *importlogDatamodel.ImportLog, watermark *time.Time) error {
	resource, err := imp.deps.Platform.Resource(imp.mod.PlatformResource())
	if err != nil {
		return err
	}

	syncAfter := watermark
	if !platform.UsesWatermark(imp.mod.PlatformResource()) {
		syncAfter = nil
	}
	if err := resource.Sync(ctx, syncAfter); err != nil {
		return err
	}

	for _, method := range imp.cfg.DestinationSyncMethods {
		if err := imp.deps.Connector.Sync(ctx, method); err != nil {
			return err
		}
	}

	filter := imp.mod.DestinationFilter(watermark)
	if imp.single != nil {
		posted, err := imp.postSingle(ctx, resource, log, filter)
		if err != nil || !posted {
			return err
		}
	} else {
		total, err := imp.deps.Attributes.CountDestination(filter)
		if err != nil {
			return err
		}
		if total == 0 {
			log.MarkCompleteEmpty()
			return imp.saveLog(ctx, log)
		}

		log.TotalBatchesCount = int((total + batchSize - 1) / batchSize)
		if err := imp.saveLog(ctx, log); err != nil {
			return err
		}

		if err := imp.forEachBatch(ctx, total, filter, func(page []*attributeDatamodel.DestinationAttribute, isLast bool) error {
			if err := imp.processPage(ctx, resource, page); err != nil {
				return err
			}
			log.MarkBatchProcessed(isLast)
			return imp.saveLog(ctx, log)
		}); err != nil {
			return err
		}
	}

	// Pick up the values the platform just created.
	if err := resource.Sync(ctx, syncAfter); err != nil {
		return err
	}

	if imp.mod.CreatesMappings() {
		if err := imp.createMappings(ctx, filter); err != nil {
			return err
		}
	}
	return imp.resolveMappingErrors()
}

// postSingle replaces the batch walk for single-call modules. Their payload
// is one object covering the whole destination set, so splitting it into
// pages would let later pages overwrite earlier ones. The log always records
// a single batch. Returns false when there was nothing to import.
func (imp *Importer) postSingle(ctx context.Context, resource platform.ResourceAPI, log *importlogDatamodel.ImportLog, filter attribute.Filter) (bool, error) {
	attrs, err := imp.deps.Attributes.ListDestination(filter)
	if err != nil {
		return false, err
	}
	if len(attrs) == 0 {
		log.MarkCompleteEmpty()
		return false, imp.saveLog(ctx, log)
	}

	log.TotalBatchesCount = 1
	if err := imp.saveLog(ctx, log); err != nil {
		return false, err
	}
	if err := imp.processPage(ctx, resource, attrs); err != nil {
		return false, err
	}
	log.MarkBatchProcessed(true)
	return true, imp.saveLog(ctx, log)
}

// processPage deduplicates one page, probes which rendered names already
// exist on the platform side and posts the reconciled payload.
func (imp *Importer) processPage(ctx context.Context, resource platform.ResourceAPI, page []*attributeDatamodel.DestinationAttribute) error {
	page = RemoveDuplicates(page, imp.cfg.PrependCodeToName)
	if len(page) == 0 {
		return nil
	}

	existing, err := imp.existingPlatformAttributes(page)
	if err != nil {
		return err
	}

	if imp.single != nil {
		payload, err := imp.single.ConstructSinglePayload(ctx, page, existing)
		if err != nil {
			return err
		}
		if payload == nil {
			return nil
		}
		return resource.Post(ctx, payload)
	}

	payload, err := imp.mod.ConstructPayload(page, existing)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	return resource.PostBulk(ctx, payload)
}

// existingPlatformAttributes loads the platform-side lookup map. Paged
// modules only probe the current page's values; single-call modules diff
// against everything under the source field, since their payload replaces the
// whole option list.
func (imp *Importer) existingPlatformAttributes(page []*attributeDatamodel.DestinationAttribute) (map[string]attribute.ExistingAttribute, error) {
	filter := attribute.Filter{
		WorkspaceID:    imp.cfg.WorkspaceID,
		AttributeTypes: []string{imp.cfg.SourceField},
	}
	if imp.single == nil {
		filter.Values = pageValues(page)
	}
	return imp.deps.Attributes.ExistingExpenseAttributes(filter)
}

// forEachBatch pages through the filtered destination set in (value, id)
// order, handing each page and a last-page flag to fn. Batch N+1 is not
// fetched until fn returns for batch N.
func (imp *Importer) forEachBatch(ctx context.Context, total int64, filter attribute.Filter, fn func(page []*attributeDatamodel.DestinationAttribute, isLast bool) error) error {
	for offset := int64(0); offset < total; offset += batchSize {
		if err := ctx.Err(); err != nil {
			return internal.NewTransientError("import cancelled", internal.ErrCodeConnectorFailure).WithCause(err)
		}
		page, err := imp.deps.Attributes.ListDestinationPage(filter, int(offset), batchSize)
		if err != nil {
			return err
		}
		isLast := offset+batchSize >= total
		if err := fn(page, isLast); err != nil {
			return err
		}
	}
	return nil
}

// createMappings links the freshly posted destination attributes back to the
// platform attributes sharing their value. Categories use the CategoryMapping
// variant unless routed through the generic mapping table, and 3D mode copies
// the account link onto the corporate-card side.
func (imp *Importer) createMappings(_ context.Context, filter attribute.Filter) error {
	filter.UpdatedAfter = nil
	filter.ActiveOnly = true

	if imp.cfg.SourceField == attribute.TypeCategory && !imp.cfg.UseMappingTable {
		attrs, err := imp.deps.Mappings.UnmappedCategoryDestinations(imp.cfg.WorkspaceID, imp.cfg.DestinationField)
		if err != nil {
			return err
		}
		if len(attrs) > 0 {
			if err := imp.deps.Mappings.BulkCreateCategoryMappings(attrs, imp.cfg.DestinationField, imp.cfg.WorkspaceID); err != nil {
				return err
			}
		}
		if imp.cfg.Is3DMapping {
			return imp.deps.Mappings.BulkCreateCCCCategoryMappings(imp.cfg.WorkspaceID)
		}
		return nil
	}

	attrs, err := imp.deps.Attributes.ListDestination(filter)
	if err != nil {
		return err
	}
	if len(attrs) == 0 {
		return nil
	}
	return imp.deps.Mappings.BulkCreateMappings(attrs, imp.cfg.SourceField, imp.cfg.DestinationField, imp.cfg.WorkspaceID)
}

// resolveMappingErrors clears previously recorded mapping validation errors
// that a mapping created during this run now satisfies.
func (imp *Importer) resolveMappingErrors() error {
	if imp.cfg.SourceField != attribute.TypeCategory {
		return nil
	}
	unresolved, err := imp.deps.Mappings.UnresolvedErrorAttributeIDs(imp.cfg.WorkspaceID, mapping.ErrorTypeCategoryMapping)
	if err != nil || len(unresolved) == 0 {
		return err
	}
	var mapped []int64
	if imp.cfg.UseMappingTable {
		mapped, err = imp.deps.Mappings.MappedSourceIDs(unresolved)
	} else {
		mapped, err = imp.deps.Mappings.MappedCategoryAttributeIDs(unresolved, imp.cfg.DestinationField)
	}
	if err != nil || len(mapped) == 0 {
		return err
	}
	return imp.deps.Mappings.ResolveErrors(mapped)
}

// saveLog persists the log and keeps the webhook in-progress cache entry in
// step with it: set while IN_PROGRESS, removed the moment the run leaves that
// state. Cache trouble is logged, never fatal.
func (imp *Importer) saveLog(ctx context.Context, log *importlogDatamodel.ImportLog) error {
	if err := imp.deps.ImportLogs.Save(log); err != nil {
		return err
	}

	key := cache.ProgressKey(imp.cfg.WorkspaceID, imp.cfg.SourceField)
	var cacheErr error
	if log.Status == importlogDatamodel.StatusInProgress {
		cacheErr = imp.deps.Cache.Set(ctx, key, "true", cache.ProgressTTL)
	} else {
		cacheErr = imp.deps.Cache.Delete(ctx, key)
	}
	if cacheErr != nil {
		imp.deps.Logger.Warn("failed to update import progress cache", "key", key, "error", cacheErr)
	}

	if imp.deps.Events != nil {
		event := events.NewImportLogStatusChanged(imp.cfg.WorkspaceID, imp.cfg.SourceField, log.Status)
		if err := imp.deps.Events.Publish(ctx, event); err != nil {
			imp.deps.Logger.Warn("failed to publish import log event", "error", err)
		}
	}
	return nil
}
