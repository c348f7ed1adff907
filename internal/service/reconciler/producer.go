package reconciler

import (
	"context"
	"time"

	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

type Producer struct {
	interval  time.Duration
	maxAge    time.Duration
	batchSize int
	storage   repository.Storage
	logger    logger.Logger
}

func (p *Producer) Produce(ctx context.Context, out chan<- models.Transaction) <-chan struct{} {
	idleStopped := make(chan struct{})
	p.logger.Debug("Starting reconciler producer", "interval", p.interval, "max_age", p.maxAge)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Debug("Reconciler producer stopped by context")
				return

			case <-ticker.C:
				deadline := time.Now().Add(-p.maxAge)

				stale, err := p.storage.Wallet().ListStalePending(ctx, deadline, p.batchSize)
				if err != nil {
					p.logger.Error("Failed to list stale pending transactions", "error", err)
					continue
				}

				for _, transaction := range stale {
					select {
					case <-ctx.Done():
						p.logger.Debug("Reconciler producer stopped by context while sending")
						return
					case out <- transaction:
					}
				}
			}
		}
	}()

	return idleStopped
}
