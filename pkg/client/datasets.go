package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Jeffail/gabs/v2"
	"github.com/benchline-ai/benchline-go/pkg/api"
)

// Datasets API

// DatasetTotalRows fetches the number of rows in a hosted dataset.
func (c *Client) DatasetTotalRows(ctx context.Context, datasetID string) (int, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf(endpointDatasetTotalRowsFmt, datasetID), nil)
	if err != nil {
		return 0, err
	}

	total, err := unmarshalResponse[api.DatasetTotalRows](ctx, c, respBody)
	if err != nil {
		return 0, err
	}
	return total.TotalRows, nil
}

// DatasetRow fetches one dataset row by index. Cell values arrive as loosely
// shaped JSON (string, string list or null per column), so the payload is
// walked with gabs rather than a fixed struct.
func (c *Client) DatasetRow(ctx context.Context, datasetID string, index int) (*api.DatasetRow, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf(endpointDatasetRowFmt, datasetID, index), nil)
	if err != nil {
		return nil, err
	}

	parsed, err := gabs.ParseJSON(respBody)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset row %d: %w", index, err)
	}

	row := api.DatasetRow{Index: index, Data: map[string]any{}}
	if id, ok := parsed.Path("id").Data().(string); ok {
		row.ID = id
	}
	for column, cell := range parsed.Path("data").ChildrenMap() {
		value, err := normalizeCell(cell.Data())
		if err != nil {
			return nil, fmt.Errorf("dataset row %d, column %q: %w", index, column, err)
		}
		row.Data[column] = value
	}
	return &row, nil
}

// normalizeCell coerces a decoded JSON cell to the SDK's cell types: string,
// []string or nil.
func normalizeCell(raw any) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return v, nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("list cell contains a non-string element of type %T", item)
			}
			values = append(values, s)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("unsupported cell type %T", raw)
	}
}

// DatasetStructure fetches the column-role map recorded for a dataset.
func (c *Client) DatasetStructure(ctx context.Context, datasetID string) (api.DatasetStructure, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf(endpointDatasetStructureFmt, datasetID), nil)
	if err != nil {
		return nil, err
	}

	structure, err := unmarshalResponse[api.DatasetStructure](ctx, c, respBody)
	if err != nil {
		return nil, err
	}
	return *structure, nil
}
