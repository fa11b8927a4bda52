package importer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/cache"
	"github.com/fylein/fyle-integrations-imports/internal/connector"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
	"github.com/fylein/fyle-integrations-imports/internal/core/events"
	"github.com/fylein/fyle-integrations-imports/internal/importlog"
	"github.com/fylein/fyle-integrations-imports/internal/mapping"
	"github.com/fylein/fyle-integrations-imports/internal/platform"
)

// Deps holds the external collaborators every import module runs against.
type Deps struct {
	Attributes attribute.RepositoryAPI
	ImportLogs importlog.RepositoryAPI
	Mappings   mapping.RepositoryAPI
	Platform   platform.ClientAPI
	Connector  connector.Connector
	Cache      cache.Cache
	Events     *events.EventBus
	Logger     *slog.Logger
}

// module is the per-attribute-kind policy the shared run skeleton is
// parameterized with. Implementations are plain values; the pipeline itself
// never branches on the concrete kind.
type module interface {
	// DestinationFilter scopes the destination-attribute query for this kind.
	// With no watermark only active records are pulled; with one, anything
	// touched since, active or not.
	DestinationFilter(watermark *time.Time) attribute.Filter

	// ConstructPayload diffs one deduplicated page against the existing
	// platform values (keyed by case-folded rendered name) and returns the
	// create/update entries to post.
	ConstructPayload(page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) ([]any, error)

	// PlatformResource names the platform API resource this kind posts to.
	PlatformResource() string

	// CreatesMappings reports whether posted attributes get value-to-value
	// mapping rows after the run.
	CreatesMappings() bool
}

// singleCallModule is the variant whose whole payload goes out as one object
// in a single request instead of bulk batches. Merchant and custom-field
// imports use it.
type singleCallModule interface {
	module
	ConstructSinglePayload(ctx context.Context, page []*attributeDatamodel.DestinationAttribute, existing map[string]attribute.ExistingAttribute) (any, error)
}

// renderName returns the display value used for comparison and posting,
// optionally "{code}: {value}".
func renderName(prependCode bool, value, code string) string {
	if prependCode && code != "" {
		return code + ": " + value
	}
	return value
}

// RemoveDuplicates collapses case-insensitive rendered-name collisions in one
// page, keeping the first occurrence and the input order. This is the single
// definition of "duplicate" for the whole pipeline: two records that differ
// only by code-prefix formatting still collide. Returned attributes carry the
// rendered name as their value; the inputs are not mutated.
func RemoveDuplicates(attrs []*attributeDatamodel.DestinationAttribute, prependCode bool) []*attributeDatamodel.DestinationAttribute {
	seen := make(map[string]struct{}, len(attrs))
	unique := make([]*attributeDatamodel.DestinationAttribute, 0, len(attrs))
	for _, attr := range attrs {
		rendered := renderName(prependCode, attr.Value, attr.DestinationID)
		key := strings.ToLower(rendered)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		clone := *attr
		clone.Value = rendered
		unique = append(unique, &clone)
	}
	return unique
}

// lowerKey case-folds a rendered name into the key space of the existing
// platform-value maps.
func lowerKey(value string) string {
	return strings.ToLower(value)
}

// pageValues extracts the rendered values of a deduplicated page, used to
// probe which of them already exist on the platform side.
func pageValues(page []*attributeDatamodel.DestinationAttribute) []string {
	values := make([]string, len(page))
	for i, attr := range page {
		values[i] = attr.Value
	}
	return values
}

// detailBool reads an optional boolean key out of a destination detail map.
func detailBool(detail attributeDatamodel.JSONMap, key string) (bool, bool) {
	if detail == nil || key == "" {
		return false, false
	}
	value, ok := detail[key].(bool)
	return value, ok
}
