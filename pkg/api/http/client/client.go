package client

import (
	"net/url"

	"github.com/B-Rich/openQA/pkg/api/http/common"
	"github.com/B-Rich/openQA/pkg/structs"
)

type Client struct {
	url *url.URL
}

func New(address string) (*Client, error) {
	u, err := url.Parse(address)
	return &Client{url: u}, err
}

func (c *Client) CreateJob(cjr *structs.CreateJobRequest) (*structs.Job, error) {
	addr := c.addr(common.API_JOBS, 0)
	var out structs.Job
	return &out, genericPost(addr, cjr, &out)
}

func (c *Client) Jobs(q *structs.Query) ([]*structs.Job, error) {
	addr := c.addr(common.API_JOBS, 0)
	setQueryString(addr, q)
	var out []*structs.Job
	return out, genericGet(addr, &out)
}

func (c *Client) Summary(jobID int64, opts *structs.SummaryOpts) (*structs.Summary, error) {
	addr := c.addr(common.API_JOB, jobID)
	if opts != nil {
		values := addr.Query()
		if opts.IncludeAssets {
			values.Set("include_assets", "true")
		}
		if opts.IncludeDeps {
			values.Set("include_deps", "true")
		}
		addr.RawQuery = values.Encode()
	}
	var out structs.Summary
	return &out, genericGet(addr, &out)
}

func (c *Client) UpdateStatus(jobID int64, r *structs.StatusReport) (structs.Result, error) {
	addr := c.addr(common.API_STATUS, jobID)
	var out common.ResultResponse
	return out.Result, genericPost(addr, r, &out)
}

func (c *Client) Done(jobID int64, req *structs.DoneRequest) (structs.Result, error) {
	addr := c.addr(common.API_DONE, jobID)
	if req == nil {
		req = &structs.DoneRequest{}
	}
	var out common.ResultResponse
	return out.Result, genericPost(addr, req, &out)
}

func (c *Client) Cancel(jobID int64, obsoleted bool) (int64, error) {
	addr := c.addr(common.API_CANCEL, jobID)
	var out common.UpdateResponse
	return out.Updated, genericPost(addr, &common.CancelRequest{Obsoleted: obsoleted}, &out)
}

func (c *Client) Duplicate(jobID int64) (*structs.Job, error) {
	return c.AutoDuplicate(jobID, false)
}

func (c *Client) AutoDuplicate(jobID int64, automatic bool) (*structs.Job, error) {
	addr := c.addr(common.API_RESTART, jobID)
	var out structs.Job
	return &out, genericPost(addr, &common.RestartRequest{Automatic: automatic}, &out)
}

func (c *Client) AllocateNetwork(jobID int64, name string) (int64, error) {
	addr := c.addr(common.API_NETWORK, jobID)
	var out common.VlanResponse
	return out.Vlan, genericPost(addr, &common.NetworkRequest{Name: name}, &out)
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) addr(path string, jobID int64) *url.URL {
	return &url.URL{Scheme: c.url.Scheme, Host: c.url.Host, Path: jobPath(path, jobID)}
}
