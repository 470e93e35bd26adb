package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

type deliveryConsumer interface {
	Consume() (<-chan amqp.Delivery, error)
}

type messageHandler interface {
	HandleMessage(ctx context.Context, d amqp.Delivery, strategy retry.Strategy)
}

// Engine runs a fixed pool of delivery workers over a shared manual-ack
// stream from the primary queue. Workers share the record store as the
// single source of truth and no in-memory state with each other; an adapter
// call blocks only its own worker.
type Engine struct {
	queue   deliveryConsumer
	handler messageHandler
}

func NewEngine(q deliveryConsumer, h messageHandler) *Engine {
	return &Engine{
		queue:   q,
		handler: h,
	}
}

// Run consumes until ctx is cancelled, then drains the workers. Messages
// whose processing is interrupted before an ack are redelivered by the
// broker, so a restart loses nothing.
func (e *Engine) Run(ctx context.Context, strategy retry.Strategy, workerCount int) error {
	deliveries, err := e.queue.Consume()
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func(id int) {
			defer wg.Done()

			zlog.Logger.Printf("worker-%d started", id)

			for {
				select {
				case <-ctx.Done():
					zlog.Logger.Printf("worker-%d shutting down", id)
					return
				case d, ok := <-deliveries:
					if !ok {
						zlog.Logger.Printf("worker-%d delivery channel closed, shutting down", id)
						return
					}

					e.handler.HandleMessage(ctx, d, strategy)
				}
			}
		}(i)
	}

	<-ctx.Done()
	wg.Wait()
	zlog.Logger.Print("delivery engine stopped")

	return nil
}
