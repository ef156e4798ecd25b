// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// cleanupConcurrency bounds the number of concurrent delete requests.
const cleanupConcurrency = 4

// Resources lists service resources created by a program.
type Resources struct {
	AgentIDs       []string
	ThreadIDs      []string
	FileIDs        []string
	VectorStoreIDs []string
}

// AddAgent records an agent for cleanup.
func (r *Resources) AddAgent(id string) { r.AgentIDs = append(r.AgentIDs, id) }

// AddThread records a thread for cleanup.
func (r *Resources) AddThread(id string) { r.ThreadIDs = append(r.ThreadIDs, id) }

// AddFile records an uploaded file for cleanup.
func (r *Resources) AddFile(id string) { r.FileIDs = append(r.FileIDs, id) }

// AddVectorStore records a vector store for cleanup.
func (r *Resources) AddVectorStore(id string) { r.VectorStoreIDs = append(r.VectorStoreIDs, id) }

// Empty reports whether nothing is recorded.
func (r *Resources) Empty() bool {
	return len(r.AgentIDs)+len(r.ThreadIDs)+len(r.FileIDs)+len(r.VectorStoreIDs) == 0
}

// Cleanup deletes every listed resource concurrently. Resources that no
// longer exist are skipped. All other failures are joined into the result,
// so one failed delete never stops the rest.
func Cleanup(ctx context.Context, client *Client, res Resources) error {
	type job struct {
		kind string
		id   string
		del  func(context.Context, string) (*DeletionStatus, error)
	}
	var jobs []job
	for _, id := range res.ThreadIDs {
		jobs = append(jobs, job{"thread", id, client.DeleteThread})
	}
	for _, id := range res.AgentIDs {
		jobs = append(jobs, job{"agent", id, client.DeleteAgent})
	}
	for _, id := range res.VectorStoreIDs {
		jobs = append(jobs, job{"vector store", id, client.DeleteVectorStore})
	}
	for _, id := range res.FileIDs {
		jobs = append(jobs, job{"file", id, client.DeleteFile})
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(cleanupConcurrency)
	for _, j := range jobs {
		g.Go(func() error {
			_, err := j.del(ctx, j.id)
			switch {
			case err == nil:
				slog.DebugContext(ctx, "deleted", "kind", j.kind, "id", j.id)
			case errors.Is(err, af.ErrNotFound):
				slog.DebugContext(ctx, "already deleted", "kind", j.kind, "id", j.id)
			default:
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
