// Copyright Propietas Chat Backend Authors
// SPDX-License-Identifier: Apache-2.0

// Package listings is the HTTP client for the external property-listing API.
// Property searches are expressed as flat {field, term, operation} criteria
// serialized as indexed query parameters.
package listings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/propietas/chat-backend/pkg/core/api"
	"github.com/propietas/chat-backend/pkg/core/state"
	"github.com/propietas/chat-backend/pkg/observability/logging"
)

// Client queries the property-listing API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a new listings client rooted at baseURL,
// e.g. "https://listings.example.com/api/v1".
func New(baseURL string, logger *logging.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Criterion is one advanced-search term. Operations: eq, contains, gte, lte.
type Criterion struct {
	Field     string `json:"field"`
	Term      string `json:"term"`
	Operation string `json:"operation"`
}

// PropertyFilters are the discrete search inputs accepted from the model.
type PropertyFilters struct {
	Page         *float64 `json:"page,omitempty"`
	PageSize     *float64 `json:"pageSize,omitempty"`
	Sort         string   `json:"sort,omitempty"`
	Search       string   `json:"search,omitempty"` // pre-encoded advanced-search JSON blob
	Type         string   `json:"type,omitempty"`
	Status       string   `json:"status,omitempty"`
	Province     string   `json:"province,omitempty"`
	Locality     string   `json:"locality,omitempty"`     // locality id
	LocalityName string   `json:"localityName,omitempty"` // wins over Locality
	Address      string   `json:"address,omitempty"`
	Rooms        *float64 `json:"rooms,omitempty"`
	Bedrooms     *float64 `json:"bedrooms,omitempty"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
	MinPrice     *float64 `json:"minPrice,omitempty"`
	MaxPrice     *float64 `json:"maxPrice,omitempty"`
	Specs        []string `json:"specs,omitempty"`
}

// Locality is one entry of the locality listing. Field names follow the
// upstream API's wire format.
type Locality struct {
	ID   string `json:"_id"`
	Name string `json:"nombre"`
}

// formatNumber renders a JSON number the way the upstream expects:
// integral values without a decimal part.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SearchProperties resolves filters into criteria and queries the property
// endpoint. The decoded response body is returned as-is for the model to
// summarize.
func (c *Client) SearchProperties(ctx context.Context, filters PropertyFilters) (any, error) {
	localityID := ""
	if filters.LocalityName != "" {
		id, err := c.resolveLocalityName(ctx, filters.LocalityName)
		if err != nil {
			return nil, err
		}
		localityID = id
	} else if filters.Locality != "" {
		localityID = filters.Locality
	}

	criteria := c.parseSearchBlob(filters.Search)

	if localityID != "" {
		criteria = removeField(criteria, "locality")
		criteria = append(criteria, Criterion{Field: "locality", Term: localityID, Operation: "eq"})
	}
	if filters.Type != "" {
		criteria = append(criteria, Criterion{Field: "type", Term: filters.Type, Operation: "eq"})
	}
	if filters.Status != "" {
		criteria = append(criteria, Criterion{Field: "status", Term: filters.Status, Operation: "eq"})
	}
	// Province filtering is not exposed through this path; anything that
	// arrived inside the search blob is dropped.
	criteria = removeField(criteria, "province")
	if filters.Address != "" {
		criteria = append(criteria, Criterion{Field: "address", Term: filters.Address, Operation: "contains"})
	}
	if filters.Rooms != nil {
		criteria = append(criteria, Criterion{Field: "detailedDescription.rooms", Term: formatNumber(*filters.Rooms), Operation: "eq"})
	}
	if filters.Bedrooms != nil {
		criteria = append(criteria, Criterion{Field: "detailedDescription.bedrooms", Term: formatNumber(*filters.Bedrooms), Operation: "eq"})
	}
	if filters.Bathrooms != nil {
		criteria = append(criteria, Criterion{Field: "detailedDescription.bathrooms", Term: formatNumber(*filters.Bathrooms), Operation: "eq"})
	}
	if filters.MinPrice != nil {
		criteria = append(criteria, Criterion{Field: "valueForSale.amount", Term: formatNumber(*filters.MinPrice), Operation: "gte"})
	}
	if filters.MaxPrice != nil {
		criteria = append(criteria, Criterion{Field: "valueForSale.amount", Term: formatNumber(*filters.MaxPrice), Operation: "lte"})
	}
	for _, spec := range filters.Specs {
		criteria = append(criteria, Criterion{Field: "specs", Term: spec, Operation: "contains"})
	}

	params := url.Values{}
	for i, cr := range criteria {
		params.Set(fmt.Sprintf("search[criteria][%d][field]", i), cr.Field)
		params.Set(fmt.Sprintf("search[criteria][%d][term]", i), cr.Term)
		params.Set(fmt.Sprintf("search[criteria][%d][operation]", i), cr.Operation)
	}
	if filters.Page != nil {
		params.Set("page", formatNumber(*filters.Page))
	}
	if filters.PageSize != nil {
		params.Set("pageSize", formatNumber(*filters.PageSize))
	}
	if filters.Sort != "" {
		params.Set("sort", filters.Sort)
	}

	var result any
	if err := c.getJSON(ctx, "/property/public", params, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to fetch properties from listings API", api.ErrUpstream)
	}
	return result, nil
}

// AvailableLocalities queries the localities that currently have properties.
// typ is "all", "sale" or "rent"; empty means the upstream default.
func (c *Client) AvailableLocalities(ctx context.Context, typ string) ([]Locality, error) {
	params := url.Values{}
	if typ != "" {
		params.Set("type", typ)
	}

	var localities []Locality
	if err := c.getJSON(ctx, "/locality/with-available-properties", params, &localities); err != nil {
		return nil, fmt.Errorf("%w: failed to fetch localities from listings API", api.ErrUpstream)
	}
	return localities, nil
}

// resolveLocalityName maps a locality name to its id, case-insensitively.
// An unknown name is ErrNotFound; no property search is issued.
func (c *Client) resolveLocalityName(ctx context.Context, name string) (string, error) {
	localities, err := c.AvailableLocalities(ctx, "")
	if err != nil {
		return "", err
	}
	for _, loc := range localities {
		if strings.EqualFold(loc.Name, name) {
			return loc.ID, nil
		}
	}
	return "", fmt.Errorf("locality %q: %w", name, state.ErrNotFound)
}

// parseSearchBlob decodes the pre-encoded advanced-search JSON. Malformed
// JSON is logged and treated as empty rather than failing the call.
func (c *Client) parseSearchBlob(search string) []Criterion {
	if search == "" {
		return nil
	}
	var parsed struct {
		Criteria []Criterion `json:"criteria"`
	}
	if err := json.Unmarshal([]byte(search), &parsed); err != nil {
		c.logger.Warn("Invalid JSON in search parameter", "search", search, "error", err)
		return nil
	}
	return parsed.Criteria
}

func removeField(criteria []Criterion, field string) []Criterion {
	out := criteria[:0]
	for _, cr := range criteria {
		if cr.Field != field {
			out = append(out, cr)
		}
	}
	return out
}

// getJSON issues a GET and decodes the JSON body. Non-2xx and transport
// failures are logged with full request context; the caller wraps them into
// the opaque upstream error.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Listings API request failed", "url", u, "error", err)
		return fmt.Errorf("listings request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Listings API read failed", "url", u, "error", err)
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Listings API returned error status",
			"url", u, "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("listings returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("Listings API returned invalid JSON", "url", u, "error", err)
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
