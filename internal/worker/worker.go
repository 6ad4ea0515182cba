// Package worker contains the orphan-blob reconciler: it consumes orphan
// events produced by the pipelines and removes blobs that have no metadata
// record behind them.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/alexkarev/imagevault/internal/model"
	kafkago "github.com/segmentio/kafka-go"
)

// BlobDeleter - контракт для удаления объектов из хранилища
type BlobDeleter interface {
	Delete(ctx context.Context, key string) error
}

// MessageCommitter acknowledges one processed queue message.
type MessageCommitter interface {
	Commit(ctx context.Context, msg kafkago.Message) error
}

type Reconciler struct {
	storage  BlobDeleter
	queue    <-chan kafkago.Message
	consumer MessageCommitter
}

func NewReconciler(strg BlobDeleter, q <-chan kafkago.Message, cons MessageCommitter) *Reconciler {
	return &Reconciler{storage: strg, queue: q, consumer: cons}
}

// Start runs until ctx is canceled or the queue channel closes. A failed
// delete is logged and left uncommitted so the event redelivers.
func (w *Reconciler) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.queue:
			if !ok {
				log.Println("Queue channel closed, stopping reconciler...")
				return
			}
			if err := w.reconcile(ctx, msg.Value); err != nil {
				log.Printf("Orphan reconcile failed: %v", err)
				continue
			}
			if err := w.consumer.Commit(ctx, msg); err != nil {
				log.Printf("Failed to commit queue-message: %v", err)
			}
		}
	}
}

func (w *Reconciler) reconcile(ctx context.Context, payload []byte) error {
	var event model.OrphanEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal orphan event: %w", err)
	}
	if event.Key == "" {
		return fmt.Errorf("orphan event without a key: %s", payload)
	}

	if err := w.storage.Delete(ctx, event.Key); err != nil {
		return fmt.Errorf("delete orphaned blob %q (owner %s): %w", event.Key, event.OwnerID, err)
	}

	log.Printf("Removed orphaned blob %q (namespace %q, reason: %s)", event.Key, event.Namespace, event.Reason)
	return nil
}
