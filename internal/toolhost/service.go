package toolhost

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dataquery/engine/internal/obslog"
	"github.com/dataquery/engine/internal/rpcclient"
)

const protocolVersion = "2024-11-05"

// serverInfo is advertised in the initialize response, matching
// mcp_server.rs's ServerInfo { name: "analysis-engine", version }.
type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Service dispatches JSON-RPC 2.0 calls against a connected query-engine
// client, the Go analog of mcp_server.rs's AnalysisService. Per spec.md
// §9's redesign note (already applied in internal/rpcclient), the client
// is not wrapped in a mutex here either.
type Service struct {
	client  *rpcclient.Client
	version string
}

// New constructs a Service bound to client, advertising version in the
// initialize response.
func New(client *rpcclient.Client, version string) *Service {
	return &Service{client: client, version: version}
}

// Handle dispatches a single JSON-RPC 2.0 request and returns its
// response. A request with a nil ID (a notification) still gets a
// Response value back; callers serving HTTP should skip writing a body
// for notifications per the JSON-RPC 2.0 spec.
func (s *Service) Handle(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return resultResponse(req.ID, map[string]interface{}{
			"protocolVersion": protocolVersion,
			"serverInfo":      serverInfo{Name: "analysis-engine", Version: s.version},
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
		})
	case "initialized", "notifications/initialized":
		return resultResponse(req.ID, map[string]interface{}{})
	case "ping":
		return resultResponse(req.ID, map[string]interface{}{})
	case "tools/list":
		return resultResponse(req.ID, map[string]interface{}{"tools": toolDefinitions()})
	case "tools/call":
		return s.handleToolCall(ctx, req)
	default:
		return errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Service) handleToolCall(ctx context.Context, req *Request) *Response {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid tool call params: "+err.Error())
	}

	var text string
	var err error

	switch params.Name {
	case "list_datasets":
		text, err = s.callListDatasets(ctx)
	case "get_metadata":
		text, err = s.callGetMetadata(ctx, params.Arguments)
	case "execute_query":
		text, err = s.callExecuteQuery(ctx, params.Arguments)
	case "mcp_reader-servic_query_dataset":
		text, err = s.callVSCodeQueryDataset(ctx, params.Arguments)
	default:
		return errorResponse(req.ID, codeMethodNotFound, fmt.Sprintf("unknown tool: %s", params.Name))
	}

	if err != nil {
		obslog.Warnf("[TOOLHOST] tool %q failed: %v", params.Name, err)
		return errorResponse(req.ID, codeInternal, err.Error())
	}

	return resultResponse(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	})
}

func (s *Service) callListDatasets(ctx context.Context) (string, error) {
	resp, err := s.client.ListDatasets(ctx)
	if err != nil {
		return "", err
	}
	return marshalJSON(resp.Datasets)
}

type getMetadataArgs struct {
	DatasetID string `json:"dataset_id"`
}

func (s *Service) callGetMetadata(ctx context.Context, raw json.RawMessage) (string, error) {
	var args getMetadataArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid get_metadata arguments: %w", err)
	}
	if args.DatasetID == "" {
		return "", fmt.Errorf("dataset_id is required")
	}

	resp, err := s.client.GetMetadata(ctx, args.DatasetID)
	if err != nil {
		return "", err
	}
	return marshalJSON(resp.Metadata)
}

type executeQueryArgs struct {
	DatasetID string `json:"dataset_id"`
	SQLQuery  string `json:"sql_query"`
	Limit     int32  `json:"limit"`
}

func (s *Service) callExecuteQuery(ctx context.Context, raw json.RawMessage) (string, error) {
	var args executeQueryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid execute_query arguments: %w", err)
	}
	if args.DatasetID == "" || args.SQLQuery == "" {
		return "", fmt.Errorf("dataset_id and sql_query are required")
	}

	result, err := s.runQuery(ctx, args.DatasetID, args.SQLQuery, args.Limit)
	if err != nil {
		return "", err
	}
	return marshalJSON(result)
}

// vsCodeDataset is one entry of the VS Code compatibility tool's datasets
// array, matching mcp_server.rs's VsCodeDataset { name, path, sql }.
type vsCodeDataset struct {
	Name string `json:"name"`
	Path string `json:"path"`
	SQL  string `json:"sql"`
}

type vsCodeQueryArgs struct {
	Datasets   []vsCodeDataset `json:"datasets"`
	Limit      int32           `json:"limit"`
	ResultOnly bool            `json:"result_only"`
}

// callVSCodeQueryDataset mirrors mcp_server.rs's VS Code compatibility
// handler: only datasets[0] is used, its path is the dataset id, and
// result_only=true trims the response to the bare rows array.
func (s *Service) callVSCodeQueryDataset(ctx context.Context, raw json.RawMessage) (string, error) {
	var args vsCodeQueryArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid query arguments: %w", err)
	}
	if len(args.Datasets) == 0 {
		return "", fmt.Errorf("datasets must contain at least one entry")
	}

	ds := args.Datasets[0]
	result, err := s.runQuery(ctx, ds.Path, ds.SQL, args.Limit)
	if err != nil {
		return "", err
	}

	if args.ResultOnly {
		return marshalJSON(result.Rows)
	}
	return marshalJSON(result)
}

func (s *Service) runQuery(ctx context.Context, datasetID, sql string, limit int32) (QueryResult, error) {
	frames, err := s.client.ExecuteQuery(ctx, datasetID, sql, limit)
	if err != nil {
		return QueryResult{}, err
	}
	return aggregateFrames(frames)
}

func marshalJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
