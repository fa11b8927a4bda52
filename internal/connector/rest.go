package connector

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/fylein/fyle-integrations-imports/internal"
)

// NewRESTConnector builds a registry whose sync methods call a connector
// service over HTTP. The service refreshes the destination attribute store
// for one (workspace, kind) per call; this side only cares whether it
// succeeded.
func NewRESTConnector(cfg internal.ConnectorConfig, workspaceID int64) *Registry {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", "Bearer "+cfg.Token).
		SetHeader("Content-Type", "application/json")

	registry := NewRegistry()
	for _, method := range []string{
		SyncProjects,
		SyncCategories,
		SyncCostCenters,
		SyncAccounts,
		SyncItems,
		SyncExpenseCategories,
		SyncTaxCodes,
		SyncVendors,
		SyncCustomFields,
	} {
		registry.Register(method, syncCall(client, workspaceID, method))
	}
	return registry
}

func syncCall(client *resty.Client, workspaceID int64, method string) SyncFunc {
	return func(ctx context.Context) error {
		resp, err := client.R().
			SetContext(ctx).
			Post(fmt.Sprintf("/workspaces/%d/sync/%s", workspaceID, method))
		if err != nil {
			return internal.NewTransientError(
				fmt.Sprintf("connector sync %s failed", method),
				internal.ErrCodeConnectorFailure,
			).WithCause(err)
		}
		switch {
		case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
			return internal.NewAuthorizationError(
				fmt.Sprintf("connector sync %s rejected credentials", method),
				internal.ErrCodeInvalidToken,
			)
		case resp.StatusCode() >= http.StatusBadRequest:
			return internal.NewTransientError(
				fmt.Sprintf("connector sync %s returned %d: %s", method, resp.StatusCode(), resp.String()),
				internal.ErrCodeConnectorFailure,
			)
		}
		return nil
	}
}
