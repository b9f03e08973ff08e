// Package notify delivers order-confirmation emails asynchronously. The API
// process enqueues a task after a verified payment; the worker process
// consumes it, so a slow or failing mail relay never delays the payment
// response.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/glowmart/backend-store/internal/common"
	"github.com/glowmart/backend-store/internal/obs"
)

// TypeOrderConfirmation is the asynq task type for confirmation emails.
const TypeOrderConfirmation = "email:order_confirmation"

// OrderConfirmationPayload is the task body carried through the queue.
type OrderConfirmationPayload struct {
	TransactionID string `json:"transactionId"`
	Email         string `json:"email"`
	OrderDetails  string `json:"orderDetails"`
}

// NewOrderConfirmationTask builds the asynq task for a verified transaction.
// The task id is the transaction id, so the queue itself also refuses a
// second enqueue for the same transaction while the first is pending.
func NewOrderConfirmationTask(p OrderConfirmationPayload, maxRetry int) (*asynq.Task, []asynq.Option, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, nil, fmt.Errorf("notify: marshal payload: %w", err)
	}
	if maxRetry <= 0 {
		maxRetry = 5
	}
	opts := []asynq.Option{
		asynq.MaxRetry(maxRetry),
		asynq.TaskID("order-confirmation:" + p.TransactionID),
	}
	return asynq.NewTask(TypeOrderConfirmation, raw), opts, nil
}

// Enqueuer is the narrow slice of asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher enqueues confirmation emails, suppressing duplicates per
// transaction via the dedup marker.
type Dispatcher struct {
	Queue    Enqueuer
	Dedup    *Dedup
	MaxRetry int
	Logger   zerolog.Logger
}

// Dispatch schedules a confirmation email for the transaction. Returns true
// when a task was enqueued, false when the transaction was already notified.
// Dispatch failures are reported to the caller but are expected to be logged
// and swallowed there: notification is best-effort and never changes a
// payment outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, p OrderConfirmationPayload) (bool, error) {
	if d == nil || d.Queue == nil {
		return false, errors.New("notify: dispatcher not configured")
	}
	if d.Dedup != nil {
		first, err := d.Dedup.MarkNotified(ctx, p.TransactionID)
		if err != nil {
			return false, fmt.Errorf("notify: dedup marker: %w", err)
		}
		if !first {
			d.Logger.Info().Str("transaction_id", p.TransactionID).Msg("confirmation already dispatched, skipping")
			return false, nil
		}
	}
	task, opts, err := NewOrderConfirmationTask(p, d.MaxRetry)
	if err != nil {
		return false, err
	}
	if _, err := d.Queue.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return false, nil
		}
		return false, fmt.Errorf("notify: enqueue: %w", err)
	}
	return true, nil
}

// Worker handles dequeued confirmation tasks in the worker process.
type Worker struct {
	Mail   common.EmailSender
	Logger zerolog.Logger
}

// HandleOrderConfirmation is the asynq handler for TypeOrderConfirmation.
func (w Worker) HandleOrderConfirmation(ctx context.Context, task *asynq.Task) error {
	var p OrderConfirmationPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		// Malformed payloads can never succeed; skip retries.
		return fmt.Errorf("notify: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	subject, body := ComposeOrderConfirmation(p)
	if err := w.Mail.Send(p.Email, subject, body); err != nil {
		obs.IncConfirmationEmail("error")
		w.Logger.Error().Err(err).
			Str("transaction_id", p.TransactionID).
			Str("recipient", p.Email).
			Msg("send confirmation email")
		return err
	}
	obs.IncConfirmationEmail("sent")
	w.Logger.Info().
		Str("transaction_id", p.TransactionID).
		Str("recipient", p.Email).
		Msg("confirmation email sent")
	return nil
}
