// Package listing talks to the backend's directory-listing API: the
// device listing at the virtual root, directory contents everywhere else.
package listing

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/XiaoYing/filemanager/internal/infrastructure/monitoring"
	"github.com/XiaoYing/filemanager/internal/shared/types"
)

// Provider fetches listings over HTTP.
type Provider struct {
	client  *resty.Client
	metrics *monitoring.Metrics
}

// New creates a listing provider on top of a configured resty client.
func New(client *resty.Client) *Provider {
	return &Provider{client: client}
}

// WithMetrics adds metrics tracking to the provider.
func (p *Provider) WithMetrics(m *monitoring.Metrics) *Provider {
	p.metrics = m
	return p
}

// filesResponse mirrors GET /api/files: directories and files split so
// directories can sort first.
type filesResponse struct {
	Directories []types.Entry `json:"directories"`
	Files       []types.Entry `json:"files"`
}

// FetchListing resolves path to a listing. The virtual root serves the
// device listing; any other path serves directory contents.
func (p *Provider) FetchListing(ctx context.Context, path string) (*types.Listing, error) {
	if path == types.RootPath {
		return p.fetchDisks(ctx)
	}
	return p.fetchFiles(ctx, path)
}

func (p *Provider) fetchDisks(ctx context.Context) (*types.Listing, error) {
	p.count("disks")
	var disks []types.Disk
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&disks).
		Get("/api/disks")
	if err := p.check(resp, err); err != nil {
		return nil, fmt.Errorf("fetch disks: %w", err)
	}
	return &types.Listing{Disks: disks}, nil
}

func (p *Provider) fetchFiles(ctx context.Context, path string) (*types.Listing, error) {
	p.count("files")
	var body filesResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("path", path).
		SetResult(&body).
		Get("/api/files")
	if err := p.check(resp, err); err != nil {
		return nil, fmt.Errorf("fetch files %q: %w", path, err)
	}
	return &types.Listing{Directories: body.Directories, Files: body.Files}, nil
}

func (p *Provider) count(kind string) {
	if p.metrics != nil {
		p.metrics.ListingFetches.WithLabelValues(kind).Inc()
	}
}

func (p *Provider) check(resp *resty.Response, err error) error {
	if err == nil && resp.IsSuccess() {
		return nil
	}
	if p.metrics != nil {
		p.metrics.ListingFetchErrors.Inc()
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("backend returned %s", resp.Status())
}
