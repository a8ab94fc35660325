package payment

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// The gateway settles Processing payments out of band. A dispatcher
// periodically lists them from persisted state and a worker pool polls
// the gateway for each; terminal outcomes feed back through
// Coordinator.Resolve, whose compare-and-set absorbs duplicates. The
// loop needs nothing in memory, so it resumes attempts started by an
// earlier process.

type StatusClient interface {
	Status(ctx context.Context, ref string) (*GatewayResponse, error)
}

type Resolver interface {
	Resolve(ctx context.Context, gatewayRef string, status GatewayStatus) error
}

func workerLoop(
	ctx context.Context,
	id int,
	client StatusClient,
	jobs <-chan string,
	res Resolver,
	log *zap.SugaredLogger,
) {
	log.Debugw("worker started", "worker", id)
	for {
		select {
		case <-ctx.Done():
			log.Debugw("worker stopping", "worker", id)
			return

		case ref, ok := <-jobs:
			if !ok {
				log.Debugw("jobs channel closed", "worker", id)
				return
			}

			resp, err := client.Status(ctx, ref)
			if err != nil {
				log.Warnw("gateway status request failed", "worker", id, "ref", ref, "error", err)
				continue
			}
			if resp == nil {
				log.Warnw("gateway has no record of payment", "worker", id, "ref", ref)
				continue
			}

			if err := res.Resolve(ctx, ref, resp.Status); err != nil {
				log.Warnw("resolve payment failed", "worker", id, "ref", ref, "error", err)
				continue
			}
			log.Infow("payment polled", "worker", id, "ref", ref, "status", resp.Status)
		}
	}
}

// DispatcherLoop runs until the context is cancelled, feeding
// outstanding Processing payments to the worker pool every interval.
func DispatcherLoop(
	ctx context.Context,
	client StatusClient,
	repo PaymentRepository,
	res Resolver,
	workerCount int,
	interval time.Duration,
	log *zap.SugaredLogger,
) {
	jobs := make(chan string, workerCount*3)

	for i := 1; i <= workerCount; i++ {
		go workerLoop(ctx, i, client, jobs, res, log)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("payment dispatcher started")
	for {
		select {
		case <-ctx.Done():
			log.Info("payment dispatcher stopping, closing jobs")
			close(jobs)
			return
		case <-ticker.C:
			pending, err := repo.ListProcessingPayments(ctx)
			if err != nil {
				log.Errorw("list processing payments", "error", err)
				continue
			}
			if len(pending) == 0 {
				continue
			}
			log.Debugw("polling processing payments", "count", len(pending))
			for _, p := range pending {
				select {
				case jobs <- p.GatewayRef:
				default:
					log.Warnw("jobs channel full, skipping this cycle", "ref", p.GatewayRef)
				}
			}
		}
	}
}
