// Package fileops talks to the backend's file-operation API. Every call
// comes back as a Result: transport errors are returned as errors,
// backend rejections as non-success results with a user-facing message.
package fileops

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/XiaoYing/filemanager/internal/shared/types"
)

// Provider executes file operations over HTTP.
type Provider struct {
	client *resty.Client
}

// New creates a fileops provider on top of a configured resty client.
func New(client *resty.Client) *Provider {
	return &Provider{client: client}
}

// Paste moves or copies sourcePaths into destinationPath, depending on
// the clipboard operation.
func (p *Provider) Paste(ctx context.Context, sourcePaths []string, op types.ClipboardOp, destinationPath string) (*types.Result, error) {
	return p.operate(ctx, map[string]interface{}{
		"action":          "paste",
		"sourcePaths":     sourcePaths,
		"operation":       op,
		"destinationPath": destinationPath,
	})
}

// Rename gives the entry at oldPath a new name in place.
func (p *Provider) Rename(ctx context.Context, oldPath, newName string) (*types.Result, error) {
	return p.operate(ctx, map[string]interface{}{
		"action":  "rename",
		"oldPath": oldPath,
		"newName": newName,
	})
}

// Delete schedules paths for removal. The result carries the undo token
// that keeps the delete reversible until its deadline.
func (p *Provider) Delete(ctx context.Context, paths []string) (*types.Result, error) {
	return p.operate(ctx, map[string]interface{}{
		"action": "delete",
		"paths":  paths,
	})
}

// Create makes a new file or folder named name under path. kind is
// "file" or "folder".
func (p *Provider) Create(ctx context.Context, path, name, kind string) (*types.Result, error) {
	return p.operate(ctx, map[string]interface{}{
		"action": "create",
		"path":   path,
		"name":   name,
		"type":   kind,
	})
}

// UndoDelete cancels the scheduled delete behind undoID.
func (p *Provider) UndoDelete(ctx context.Context, undoID string) (*types.Result, error) {
	var result types.Result
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"undoId": undoID}).
		SetResult(&result).
		Post("/api/undo-delete")
	if err != nil {
		return nil, fmt.Errorf("undo delete: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("undo delete: backend returned %s", resp.Status())
	}
	return &result, nil
}

func (p *Provider) operate(ctx context.Context, payload map[string]interface{}) (*types.Result, error) {
	var result types.Result
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&result).
		Post("/api/fs-operation")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", payload["action"], err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%s: backend returned %s", payload["action"], resp.Status())
	}
	return &result, nil
}
