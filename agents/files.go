// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// ErrVectorStoreFailed is returned by [Client.WaitForVectorStore] when file
// ingestion ends in a status other than completed.
var ErrVectorStoreFailed = errors.New("vector store ingestion failed")

// UploadFile uploads content as a multipart form with the given file name and purpose.
func (c *Client) UploadFile(ctx context.Context, content io.ReadSeeker, filename string, purpose FilePurpose) (*File, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: file name is required", af.ErrInvalidRequest)
	}
	if purpose == "" {
		purpose = FilePurposeAgents
	}
	req, err := c.http.NewRequest(ctx, http.MethodPost, "/files", nil)
	if err != nil {
		return nil, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	err = runtime.SetMultipartFormData(req, map[string]any{
		"purpose": string(purpose),
		"file": streaming.MultipartContent{
			Body:        streaming.NopCloser(content),
			ContentType: contentType,
			Filename:    filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: build upload: %w", af.ErrInvalidRequest, err)
	}
	var out File
	if err := c.http.Do(req, &out); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}
	return &out, nil
}

// UploadFilePath uploads the file at path, named after its base name.
func (c *Client) UploadFilePath(ctx context.Context, path string, purpose FilePurpose) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", af.ErrInvalidRequest, err)
	}
	defer f.Close()
	return c.UploadFile(ctx, f, filepath.Base(path), purpose)
}

// GetFile retrieves file metadata.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	if err := requireID("file", fileID); err != nil {
		return nil, err
	}
	var out File
	if err := c.get(ctx, "/files/"+url.PathEscape(fileID), nil, &out); err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &out, nil
}

// GetFileContent opens the content of a file, such as an image the agent
// generated with the code interpreter. The caller closes the reader.
func (c *Client) GetFileContent(ctx context.Context, fileID string) (io.ReadCloser, error) {
	if err := requireID("file", fileID); err != nil {
		return nil, err
	}
	rc, err := c.http.Download(ctx, "/files/"+url.PathEscape(fileID)+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("get file content: %w", err)
	}
	return rc, nil
}

// SaveImageFiles downloads every image file referenced by msgs into dir as
// <file id>.png and returns the written paths in message order. Images that
// appear more than once are saved once.
func (c *Client) SaveImageFiles(ctx context.Context, dir string, msgs []ThreadMessage) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	seen := map[string]bool{}
	for _, m := range msgs {
		for _, content := range m.Content {
			img, ok := content.(*ImageFileContent)
			if !ok || img.FileID == "" || seen[img.FileID] {
				continue
			}
			seen[img.FileID] = true
			path := filepath.Join(dir, img.FileID+".png")
			if err := c.saveFile(ctx, img.FileID, path); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func (c *Client) saveFile(ctx context.Context, fileID, path string) (err error) {
	rc, err := c.GetFileContent(ctx, fileID)
	if err != nil {
		return err
	}
	defer rc.Close()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("save file %s: %w", fileID, err)
	}
	return nil
}

// DeleteFile deletes an uploaded file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) (*DeletionStatus, error) {
	if err := requireID("file", fileID); err != nil {
		return nil, err
	}
	st, err := c.delete(ctx, "/files/"+url.PathEscape(fileID))
	if err != nil {
		return nil, fmt.Errorf("delete file: %w", err)
	}
	return st, nil
}

// FileNames looks up the names of the given files for citation rendering.
// Files that cannot be retrieved are left out and later fall back to their IDs.
func (c *Client) FileNames(ctx context.Context, fileIDs []string) map[string]string {
	names := make(map[string]string, len(fileIDs))
	for _, id := range fileIDs {
		f, err := c.GetFile(ctx, id)
		if err != nil {
			continue
		}
		names[id] = f.Filename
	}
	return names
}

// CreateVectorStore creates a vector store, optionally ingesting files.
func (c *Client) CreateVectorStore(ctx context.Context, opts CreateVectorStoreOptions) (*VectorStore, error) {
	var out VectorStore
	if err := c.post(ctx, "/vector_stores", opts, &out); err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}
	return &out, nil
}

// GetVectorStore retrieves a vector store.
func (c *Client) GetVectorStore(ctx context.Context, vectorStoreID string) (*VectorStore, error) {
	if err := requireID("vector store", vectorStoreID); err != nil {
		return nil, err
	}
	var out VectorStore
	if err := c.get(ctx, vectorStorePath(vectorStoreID), nil, &out); err != nil {
		return nil, fmt.Errorf("get vector store: %w", err)
	}
	return &out, nil
}

// DeleteVectorStore deletes a vector store. The underlying files are kept.
func (c *Client) DeleteVectorStore(ctx context.Context, vectorStoreID string) (*DeletionStatus, error) {
	if err := requireID("vector store", vectorStoreID); err != nil {
		return nil, err
	}
	st, err := c.delete(ctx, vectorStorePath(vectorStoreID))
	if err != nil {
		return nil, fmt.Errorf("delete vector store: %w", err)
	}
	return st, nil
}

// CreateVectorStoreFile adds an uploaded file to a vector store.
func (c *Client) CreateVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (*VectorStoreFile, error) {
	if err := requireID("vector store", vectorStoreID); err != nil {
		return nil, err
	}
	if err := requireID("file", fileID); err != nil {
		return nil, err
	}
	var out VectorStoreFile
	body := map[string]string{"file_id": fileID}
	if err := c.post(ctx, vectorStorePath(vectorStoreID)+"/files", body, &out); err != nil {
		return nil, fmt.Errorf("create vector store file: %w", err)
	}
	return &out, nil
}

// WaitForVectorStore polls until the store leaves the in_progress state.
// A zero interval uses the client's poll interval.
func (c *Client) WaitForVectorStore(ctx context.Context, vectorStoreID string, interval time.Duration) (*VectorStore, error) {
	if interval <= 0 {
		interval = c.pollInterval
	}
	for {
		vs, err := c.GetVectorStore(ctx, vectorStoreID)
		if err != nil {
			return nil, err
		}
		switch vs.Status {
		case VectorStoreStatusCompleted:
			return vs, nil
		case VectorStoreStatusFailed, VectorStoreStatusExpired:
			return vs, fmt.Errorf("%w: %s is %s", ErrVectorStoreFailed, vs.ID, vs.Status)
		}
		if err := sleep(ctx, interval); err != nil {
			return vs, fmt.Errorf("wait for vector store %s: %w", vectorStoreID, err)
		}
	}
}

func vectorStorePath(id string) string {
	return "/vector_stores/" + url.PathEscape(id)
}
