// Package reconciler cancels ledger entries that were left pending for too
// long. Deposits and withdrawals wait for an external payment flow that may
// never call back; the sweep moves them to cancelled so balances and pending
// lists stay honest.
package reconciler

import (
	"context"
	"time"

	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

const (
	defaultCountWorkers  = 4
	defaultSweepInterval = time.Minute
	defaultPendingMaxAge = 30 * time.Minute
	defaultBatchSize     = 100
)

type notifier interface {
	Enqueue(ctx context.Context, notification models.Notification) error
}

type Reconciler struct {
	consumer *Consumer
	producer *Producer
}

func New(storage repository.Storage, notifier notifier, logger logger.Logger) *Reconciler {
	return &Reconciler{
		consumer: &Consumer{
			countWorkers: defaultCountWorkers,
			storage:      storage,
			notifier:     notifier,
			logger:       logger,
		},
		producer: &Producer{
			interval:  defaultSweepInterval,
			maxAge:    defaultPendingMaxAge,
			batchSize: defaultBatchSize,
			storage:   storage,
			logger:    logger,
		},
	}
}

// Run starts the sweep loop and returns a channel that closes after the
// producer and all workers have stopped.
func (r *Reconciler) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	staleChan := make(chan models.Transaction)

	producerStopped := r.producer.Produce(ctx, staleChan)
	consumerStopped := r.consumer.Consume(ctx, staleChan)

	go func() {
		defer close(idleStopped)
		defer close(staleChan)
		<-producerStopped
		<-consumerStopped
		r.consumer.logger.Debug("Reconciler stopped")
	}()

	return idleStopped
}
