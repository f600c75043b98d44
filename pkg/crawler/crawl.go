package crawler

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
)

// maxConcurrentFetches bounds the number of manifests retrieved at once.
const maxConcurrentFetches = 10

// Retriever fetches the manifest text stored in a repository directory.
// dir is relative to the repository root; "" is the root itself.
// Implementations report a missing manifest as a not-found error.
type Retriever interface {
	RetrieveManifest(ctx context.Context, repo deps.RepositoryPath, dir string) (string, error)
}

type fetched struct {
	dir  string
	text string
	err  error
}

// Crawl discovers all packages reachable from the manifest in directory
// entry of repo. Fetches run concurrently; results are folded in the
// order their directories were discovered.
func Crawl(ctx context.Context, r Retriever, repo deps.RepositoryPath, entry string) (*Output, error) {
	if err := errs.ValidatePath(entry); err != nil {
		return nil, err
	}
	entry, _ = JoinPath("", entry)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	// Each fetch owns a one-slot channel; waiting on the head of the queue
	// folds results in discovery order while later fetches keep running.
	var queue []chan fetched
	enqueue := func(dir string) {
		ch := make(chan fetched, 1)
		queue = append(queue, ch)
		g.Go(func() error {
			text, err := r.RetrieveManifest(gctx, repo, dir)
			ch <- fetched{dir: dir, text: text, err: err}
			return err
		})
	}

	fail := func(err error) (*Output, error) {
		cancel()
		_ = g.Wait()
		return nil, err
	}
	// A fetch that failed first cancels the others, so a queued fetch may
	// report cancellation; the group keeps the original error.
	failFetch := func(err error) (*Output, error) {
		cancel()
		if first := g.Wait(); first != nil {
			return nil, first
		}
		return nil, err
	}

	c := New()
	c.seen[entry] = true
	enqueue(entry)

	for len(queue) > 0 {
		f := <-queue[0]
		queue = queue[1:]
		if f.err != nil {
			return failFetch(f.err)
		}

		out, err := c.Step(f.dir, f.text)
		if err != nil {
			return fail(err)
		}
		for _, dir := range out.PathsOfInterest {
			enqueue(dir)
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c.Finalize(), nil
}
