// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/propietas/chat-backend/pkg/listings"
	"github.com/propietas/chat-backend/pkg/observability/logging"
)

// Default builds the registry offered to the model: the two listings lookups
// plus two demo stubs kept for registry shape.
func Default(client *listings.Client, logger *logging.Logger) *Registry {
	r := NewRegistry()

	r.Register("searchProperties", func(ctx context.Context, args map[string]any) (any, error) {
		var filters listings.PropertyFilters
		if err := decodeArgs(args, &filters); err != nil {
			return nil, err
		}
		logger.Info("Searching properties", "filters", args)
		return client.SearchProperties(ctx, filters)
	})

	r.Register("getAvailableLocalities", func(ctx context.Context, args map[string]any) (any, error) {
		typ, _ := args["type"].(string)
		logger.Info("Getting available localities", "type", typ)
		return client.AvailableLocalities(ctx, typ)
	})

	// Demo handlers; not real integrations.
	r.Register("fetchUserData", func(ctx context.Context, args map[string]any) (any, error) {
		userID, _ := args["userId"].(string)
		logger.Info("Fetching user data", "user_id", userID)
		return map[string]any{
			"id":    userID,
			"name":  "John Doe",
			"email": "john.doe@example.com",
		}, nil
	})

	r.Register("searchProduct", func(ctx context.Context, args map[string]any) (any, error) {
		query, _ := args["query"].(string)
		logger.Info("Searching product", "query", query)
		return []map[string]any{
			{"id": "prod1", "name": "Product A", "price": 100},
			{"id": "prod2", "name": "Product B", "price": 200},
		}, nil
	})

	return r
}

// decodeArgs maps loosely-typed model arguments onto a filter struct via a
// JSON round trip.
func decodeArgs(args map[string]any, out any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}
