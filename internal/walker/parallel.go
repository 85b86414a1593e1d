package walker

import (
	"context"
	"runtime"
	"sync"
)

// Stream walks the roots with threads goroutines and sends every entry on
// out. Entries arrive in no particular order, but a directory is always
// sent before its contents. Stream blocks until the walk is complete, the
// context is canceled or a directory fails; it returns the first error and
// does not close out.
func (w *Walker) Stream(ctx context.Context, threads int, out chan<- Entry) error {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	send := func(e Entry) error {
		select {
		case out <- e:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	pw := &parallelWalker{w: w, send: send}
	pw.cond = sync.NewCond(&pw.mu)

	// Roots are resolved up front so a missing root fails before any
	// directory is read.
	for _, r := range w.roots {
		c, err := w.root(r)
		if err != nil {
			return err
		}
		if err := send(c.entry); err != nil {
			return err
		}
		if c.dir != nil {
			pw.enqueue([]*walkItem{c.dir})
		}
	}
	if pw.pending == 0 {
		return nil
	}

	stop := context.AfterFunc(ctx, func() { pw.fail(ctx.Err()) })
	defer stop()

	var wg sync.WaitGroup
	for range threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pw.worker()
		}()
	}
	wg.Wait()
	return pw.err
}

// parallelWalker coordinates concurrent BFS directory traversal.
type parallelWalker struct {
	w    *Walker
	send func(Entry) error

	mu      sync.Mutex
	queue   []*walkItem
	pending int        // dirs enqueued but not yet fully processed
	cond    *sync.Cond // signaled when items are enqueued or work is done
	done    bool
	err     error
}

// enqueue adds directories to the work queue.
func (pw *parallelWalker) enqueue(items []*walkItem) {
	if len(items) == 0 {
		return
	}
	pw.mu.Lock()
	pw.queue = append(pw.queue, items...)
	pw.pending += len(items)
	pw.mu.Unlock()
	pw.cond.Broadcast()
}

// dequeue retrieves a work item, blocking if the queue is temporarily empty.
// Returns false when all work is complete or the walk failed.
func (pw *parallelWalker) dequeue() (*walkItem, bool) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	for len(pw.queue) == 0 && !pw.done {
		pw.cond.Wait()
	}
	if pw.done {
		return nil, false
	}
	item := pw.queue[0]
	pw.queue[0] = nil
	pw.queue = pw.queue[1:]
	return item, true
}

// finish marks a directory as fully processed.
func (pw *parallelWalker) finish() {
	pw.mu.Lock()
	pw.pending--
	if pw.pending == 0 && len(pw.queue) == 0 {
		pw.done = true
		pw.cond.Broadcast()
	}
	pw.mu.Unlock()
}

// fail records the first error and wakes every worker.
func (pw *parallelWalker) fail(err error) {
	pw.mu.Lock()
	if pw.err == nil && !(pw.done && pw.pending == 0) {
		pw.err = err
	}
	pw.done = true
	pw.mu.Unlock()
	pw.cond.Broadcast()
}

// worker processes directories from the work queue until all work is done.
func (pw *parallelWalker) worker() {
	buf := make([]byte, 32*1024) // per-worker getdents buffer
	var dirents []dirent          // per-worker reusable dirent slice
	for {
		item, ok := pw.dequeue()
		if !ok {
			return
		}
		var err error
		dirents, err = pw.processDir(item, buf, dirents)
		if err != nil {
			pw.fail(err)
			return
		}
		pw.finish()
	}
}

// processDir sends the filtered entries of one directory and queues its
// subdirectories once the directory fd is closed.
func (pw *parallelWalker) processDir(item *walkItem, buf []byte, dirents []dirent) ([]dirent, error) {
	children, dirents, err := pw.w.readDir(item, buf, dirents, false)
	if err != nil {
		return dirents, err
	}
	var subdirs []*walkItem
	for _, c := range children {
		if err := pw.send(c.entry); err != nil {
			return dirents, err
		}
		if c.dir != nil {
			subdirs = append(subdirs, c.dir)
		}
	}
	pw.enqueue(subdirs)
	return dirents, nil
}
