package audit

import "context"

// Worker consumes audit events from a channel and persists them.
type Worker struct {
	store Store
	inbox <-chan Event
}

func NewWorker(store Store, inbox <-chan Event) *Worker {
	return &Worker{store: store, inbox: inbox}
}

// Run drains the inbox until ctx is cancelled, then flushes whatever is
// already buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return w.drain()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) drain() error {
	for {
		select {
		case event := <-w.inbox:
			if err := w.store.Append(context.Background(), event); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}
