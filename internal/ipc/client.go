package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start processing.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("TagGenius.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop processing.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("TagGenius.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("TagGenius.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit queues a classification batch.
func (c *Client) Submit(req SubmitRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.client.Call("TagGenius.Submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobStatus returns a single job by id.
func (c *Client) JobStatus(id string) (*JobStatusResponse, error) {
	var resp JobStatusResponse
	if err := c.client.Call("TagGenius.JobStatus", JobStatusRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobList returns jobs optionally filtered by statuses.
func (c *Client) JobList(statuses []string) (*JobListResponse, error) {
	var resp JobListResponse
	if err := c.client.Call("TagGenius.JobList", JobListRequest{Statuses: statuses}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel requests cooperative cancellation of a job.
func (c *Client) Cancel(id string) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.client.Call("TagGenius.Cancel", CancelRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Output returns a job's ordered per-item results.
func (c *Client) Output(id string) (*OutputResponse, error) {
	var resp OutputResponse
	if err := c.client.Call("TagGenius.Output", OutputRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheList returns all cached blueprints.
func (c *Client) CacheList() (*CacheListResponse, error) {
	var resp CacheListResponse
	if err := c.client.Call("TagGenius.CacheList", CacheListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheRemove evicts a single cached blueprint by track identity.
func (c *Client) CacheRemove(title, artist string) (*CacheRemoveResponse, error) {
	var resp CacheRemoveResponse
	req := CacheRemoveRequest{Title: title, Artist: artist}
	if err := c.client.Call("TagGenius.CacheRemove", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CacheClear evicts every cached blueprint.
func (c *Client) CacheClear() (*CacheClearResponse, error) {
	var resp CacheClearResponse
	if err := c.client.Call("TagGenius.CacheClear", CacheClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
