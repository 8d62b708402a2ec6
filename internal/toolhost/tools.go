package toolhost

// toolDefinition is one entry of the tools/list response, matching the
// Rust original's #[tool] macro-generated schema for each handler in
// mcp_server.rs.
type toolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func toolDefinitions() []toolDefinition {
	return []toolDefinition{
		{
			Name:        "list_datasets",
			Description: "List every dataset registered with the analysis engine.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "get_metadata",
			Description: "Fetch column schema, row/byte counts, and statistics for a dataset.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dataset_id": map[string]interface{}{"type": "string"},
				},
				"required": []string{"dataset_id"},
			},
		},
		{
			Name:        "execute_query",
			Description: "Run a SQL query against a registered dataset and return the matching rows.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dataset_id": map[string]interface{}{"type": "string"},
					"sql_query":  map[string]interface{}{"type": "string"},
					"limit":      map[string]interface{}{"type": "integer"},
				},
				"required": []string{"dataset_id", "sql_query"},
			},
		},
		{
			Name:        "mcp_reader-servic_query_dataset",
			Description: "VS Code compatibility shim: runs a query against the first dataset named in the request.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"datasets": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name": map[string]interface{}{"type": "string"},
								"path": map[string]interface{}{"type": "string"},
								"sql":  map[string]interface{}{"type": "string"},
							},
						},
					},
					"limit":       map[string]interface{}{"type": "integer"},
					"result_only": map[string]interface{}{"type": "boolean"},
				},
				"required": []string{"datasets"},
			},
		},
	}
}
