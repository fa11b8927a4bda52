package platform

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/fylein/fyle-integrations-imports/internal"
	"github.com/fylein/fyle-integrations-imports/internal/attribute"
	attributeDatamodel "github.com/fylein/fyle-integrations-imports/internal/core/datamodel/attribute"
)

const syncPageSize = 500

// ResourceAPI is the per-attribute-kind slice of the platform API the import
// pipeline depends on. Sync refreshes the local expense attribute rows; Post
// and PostBulk push reconciled payloads. PostBulk is idempotent on the
// platform side for items carrying an id.
type ResourceAPI interface {
	Name() string
	Sync(ctx context.Context, syncAfter *time.Time) error
	Post(ctx context.Context, payload any) error
	PostBulk(ctx context.Context, payload []any) error
	GetByID(ctx context.Context, id string) (map[string]any, error)
}

type ClientAPI interface {
	Resource(name string) (ResourceAPI, error)
}

type resourceConfig struct {
	path          string
	attributeType string
	displayName   string
}

var resourceConfigs = map[string]resourceConfig{
	ResourceProjects:            {path: "projects", attributeType: attribute.TypeProject, displayName: "Project"},
	ResourceCategories:          {path: "categories", attributeType: attribute.TypeCategory, displayName: "Category"},
	ResourceCostCenters:         {path: "cost_centers", attributeType: attribute.TypeCostCenter, displayName: "Cost Center"},
	ResourceTaxGroups:           {path: "tax_groups", attributeType: attribute.TypeTaxGroup, displayName: "Tax Group"},
	ResourceMerchants:           {path: "merchants", attributeType: attribute.TypeMerchant, displayName: "Merchant"},
	ResourceExpenseCustomFields: {path: "expense_fields", attributeType: attribute.TypeExpenseField, displayName: "Expense Field"},
}

// Client talks to the platform API for one workspace and mirrors synced
// values into the expense attribute store.
type Client struct {
	http        *resty.Client
	attrs       attribute.RepositoryAPI
	workspaceID int64
	logger      *slog.Logger
}

func NewClient(cfg internal.PlatformConfig, workspaceID int64, attrs attribute.RepositoryAPI, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Bearer "+cfg.Token).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:        httpClient,
		attrs:       attrs,
		workspaceID: workspaceID,
		logger:      logger,
	}
}

func (c *Client) Resource(name string) (ResourceAPI, error) {
	cfg, ok := resourceConfigs[name]
	if !ok {
		return nil, internal.NewConfigurationError(
			fmt.Sprintf("unknown platform resource %q", name),
			internal.ErrCodeUnknownResource,
		)
	}
	return &resource{client: c, name: name, cfg: cfg}, nil
}

// classifyResponse maps transport and HTTP failures into the import error
// taxonomy: credential problems are fatal, everything else transient.
func classifyResponse(resp *resty.Response, err error, operation string) error {
	if err != nil {
		return internal.NewTransientError(
			fmt.Sprintf("platform %s failed", operation),
			internal.ErrCodePlatformUnreachable,
		).WithCause(err)
	}
	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return internal.NewAuthorizationError(
			fmt.Sprintf("platform %s rejected credentials", operation),
			internal.ErrCodeInvalidToken,
		)
	case resp.StatusCode() == http.StatusTooManyRequests:
		return internal.NewTransientError(
			fmt.Sprintf("platform %s rate limited", operation),
			internal.ErrCodeRateLimited,
		)
	case resp.StatusCode() >= http.StatusBadRequest:
		return internal.NewTransientError(
			fmt.Sprintf("platform %s returned %d: %s", operation, resp.StatusCode(), resp.String()),
			internal.ErrCodeMalformedBatch,
		)
	}
	return nil
}

type listResponse struct {
	Count int64            `json:"count"`
	Data  []map[string]any `json:"data"`
}

type itemResponse struct {
	Data map[string]any `json:"data"`
}

type resource struct {
	client *Client
	name   string
	cfg    resourceConfig
}

func (r *resource) Name() string {
	return r.name
}

func (r *resource) Sync(ctx context.Context, syncAfter *time.Time) error {
	offset := 0
	for {
		req := r.client.http.R().
			SetContext(ctx).
			SetQueryParam("order", "updated_at.asc").
			SetQueryParam("offset", fmt.Sprintf("%d", offset)).
			SetQueryParam("limit", fmt.Sprintf("%d", syncPageSize))
		if syncAfter != nil {
			req.SetQueryParam("updated_at", "gte."+syncAfter.UTC().Format(time.RFC3339))
		}

		var page listResponse
		resp, err := req.SetResult(&page).Get("/v1/admin/" + r.cfg.path)
		if err := classifyResponse(resp, err, r.name+" sync"); err != nil {
			return err
		}

		for _, item := range page.Data {
			if r.name == ResourceExpenseCustomFields {
				if err := r.storeCustomField(item); err != nil {
					return err
				}
				continue
			}
			if err := r.storeAttribute(item); err != nil {
				return err
			}
		}

		offset += len(page.Data)
		if len(page.Data) < syncPageSize || int64(offset) >= page.Count {
			return nil
		}
	}
}

func (r *resource) storeAttribute(item map[string]any) error {
	name, _ := item["name"].(string)
	if name == "" {
		return nil
	}
	id := fmt.Sprintf("%v", item["id"])
	active := true
	if enabled, ok := item["is_enabled"].(bool); ok {
		active = enabled
	}

	return r.client.attrs.UpsertExpenseAttribute(&attributeDatamodel.ExpenseAttribute{
		WorkspaceID:   r.client.workspaceID,
		AttributeType: r.cfg.attributeType,
		DisplayName:   r.cfg.displayName,
		Value:         name,
		SourceID:      id,
		Active:        active,
	})
}

// storeCustomField expands one SELECT expense field into per-option attribute
// rows under a type derived from the field name.
func (r *resource) storeCustomField(item map[string]any) error {
	fieldType, _ := item["type"].(string)
	if fieldType != "SELECT" {
		return nil
	}
	fieldName, _ := item["field_name"].(string)
	if fieldName == "" {
		return nil
	}
	attributeType := strings.ToUpper(strings.ReplaceAll(fieldName, " ", "_"))
	id := fmt.Sprintf("%v", item["id"])
	active := true
	if enabled, ok := item["is_enabled"].(bool); ok {
		active = enabled
	}

	detail := attributeDatamodel.JSONMap{
		"custom_field_id": item["id"],
		"placeholder":     item["placeholder"],
		"is_mandatory":    item["is_mandatory"],
	}

	options, _ := item["options"].([]any)
	for _, option := range options {
		value, ok := option.(string)
		if !ok || value == "" {
			continue
		}
		err := r.client.attrs.UpsertExpenseAttribute(&attributeDatamodel.ExpenseAttribute{
			WorkspaceID:   r.client.workspaceID,
			AttributeType: attributeType,
			DisplayName:   fieldName,
			Value:         value,
			SourceID:      fmt.Sprintf("%s:%s", id, value),
			Active:        active,
			Detail:        detail,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *resource) Post(ctx context.Context, payload any) error {
	resp, err := r.client.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"data": payload}).
		Post("/v1/admin/" + r.cfg.path)
	return classifyResponse(resp, err, r.name+" post")
}

func (r *resource) PostBulk(ctx context.Context, payload []any) error {
	resp, err := r.client.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"data": payload}).
		Post("/v1/admin/" + r.cfg.path + "/bulk")
	return classifyResponse(resp, err, r.name+" post_bulk")
}

func (r *resource) GetByID(ctx context.Context, id string) (map[string]any, error) {
	var out itemResponse
	resp, err := r.client.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/v1/admin/" + r.cfg.path + "/" + id)
	if err := classifyResponse(resp, err, r.name+" get"); err != nil {
		return nil, err
	}
	return out.Data, nil
}
