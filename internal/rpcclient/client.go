// Package rpcclient is C9: the connectivity glue used by the Tool-Host
// façade to reach the RPC server, wrapping a *grpc.ClientConn with the
// typed rpcproto.QueryEngineClient and collecting a streaming
// ExecuteQuery call into its full ordered frame sequence.
//
// Per spec.md §9's design note, this client does NOT serialise concurrent
// calls behind a mutex the way the original design's "lock-around-client"
// pattern did - grpc-go's ClientConn already multiplexes concurrent RPCs
// over HTTP/2 safely, so a blanket mutex would only reintroduce the
// scalability cliff the design note calls out. See DESIGN.md.
package rpcclient

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dataquery/engine/internal/rpccodec"
	"github.com/dataquery/engine/internal/rpcproto"
)

// Client is a connected handle to the RPC server.
type Client struct {
	conn *grpc.ClientConn
	rpc  rpcproto.QueryEngineClient
}

// Dial opens a connection to endpoint (host:port) and forces the JSON
// codec rpccodec installs in place of protobuf.
func Dial(endpoint string) (*Client, error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpccodec.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial query engine at %s: %w", endpoint, err)
	}
	return &Client{conn: conn, rpc: rpcproto.NewQueryEngineClient(conn)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// ListDatasets proxies QueryEngine.ListDatasets.
func (c *Client) ListDatasets(ctx context.Context) (*rpcproto.ListDatasetsResponse, error) {
	return c.rpc.ListDatasets(ctx, &rpcproto.ListDatasetsRequest{})
}

// GetMetadata proxies QueryEngine.GetMetadata.
func (c *Client) GetMetadata(ctx context.Context, datasetID string) (*rpcproto.GetMetadataResponse, error) {
	return c.rpc.GetMetadata(ctx, &rpcproto.GetMetadataRequest{DatasetID: datasetID})
}

// AddDataset proxies QueryEngine.AddDataset.
func (c *Client) AddDataset(ctx context.Context, req *rpcproto.AddDatasetRequest) (*rpcproto.AddDatasetResponse, error) {
	return c.rpc.AddDataset(ctx, req)
}

// HealthCheck proxies QueryEngine.HealthCheck.
func (c *Client) HealthCheck(ctx context.Context) (*rpcproto.HealthCheckResponse, error) {
	return c.rpc.HealthCheck(ctx, &rpcproto.HealthCheckRequest{})
}

// ExecuteQuery drains the ExecuteQuery stream into its full ordered frame
// sequence: zero or one Metadata frame, then contiguous DataChunks, then
// exactly one Complete frame, matching spec.md §5's ordering guarantee.
// Callers must match exhaustively on each frame's Kind (spec.md §9) rather
// than branching on which payload pointer is non-nil.
func (c *Client) ExecuteQuery(ctx context.Context, datasetID, sql string, limit int32) ([]*rpcproto.ExecuteQueryResponse, error) {
	stream, err := c.rpc.ExecuteQuery(ctx, &rpcproto.ExecuteQueryRequest{
		DatasetID: datasetID,
		SQL:       sql,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	var frames []*rpcproto.ExecuteQueryResponse
	for {
		frame, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
