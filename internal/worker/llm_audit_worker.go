package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"knowdex/internal/model"
	"knowdex/internal/platform/rabbitmq"
	"knowdex/internal/repository"
)

// LLMAuditWorker drains the audit queue into the llm_calls table. Messages that
// cannot be decoded or stored are dropped (nack without requeue) so a poison
// message cannot block the queue.
type LLMAuditWorker struct {
	conn      *amqp.Connection
	repo      *repository.LLMCallRepository
	queueName string
	log       zerolog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLLMAuditWorker(conn *amqp.Connection, repo *repository.LLMCallRepository, queueName string, log zerolog.Logger) *LLMAuditWorker {
	return &LLMAuditWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		log:       log.With().Str("component", "llm_audit_worker").Str("queue", queueName).Logger(),
	}
}

func (w *LLMAuditWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	ch, err := w.conn.Channel()
	if err != nil {
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("set worker qos failed: %w", err)
	}
	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()
		w.log.Info().Msg("audit worker started")

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.log.Warn().Msg("audit delivery channel closed")
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()
	return nil
}

func (w *LLMAuditWorker) handle(ctx context.Context, d amqp.Delivery) {
	var call model.LLMCall
	if err := json.Unmarshal(d.Body, &call); err != nil || call.ID == "" {
		w.log.Error().Err(err).Str("message_id", d.MessageId).Msg("decode audit event failed")
		_ = d.Nack(false, false)
		return
	}
	// a shutdown must not drop an event that was already taken off the queue
	if err := w.repo.Insert(context.WithoutCancel(ctx), &call); err != nil {
		w.log.Error().Err(err).Str("call_id", call.ID).Msg("persist audit event failed")
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}

func (w *LLMAuditWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
