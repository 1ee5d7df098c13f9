package api

// DatasetTotalRows represents the row-count call response for a dataset.
type DatasetTotalRows struct {
	TotalRows int `json:"total_rows"`
}

// DatasetRow is one dataset entry fetched by index. Data maps column name to
// a cell value: a string, a list of strings, or null for nullable columns.
type DatasetRow struct {
	ID    string         `json:"id"`
	Index int            `json:"index"`
	Data  map[string]any `json:"data"`
}

// DatasetStructure maps column name to the role the platform recorded for
// it (INPUT, EXPECTED_OUTPUT, CONTEXT_TO_EVALUATE, VARIABLE,
// NULLABLE_VARIABLE).
type DatasetStructure map[string]string
