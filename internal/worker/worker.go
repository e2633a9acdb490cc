package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/pkg/email"
	"github.com/sweepgoat/backend/pkg/queue"
)

// JobSource is the queue the processor drains.
type JobSource interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// EmailProcessor delivers queued email jobs.
type EmailProcessor struct {
	sender  email.Sender
	queue   JobSource
	backoff time.Duration
	logger  *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(sender email.Sender, q JobSource, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{sender: sender, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process delivers one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	payload, err := job.EmailPayload()
	if err != nil {
		return err
	}
	if payload.To == "" {
		return fmt.Errorf("email job %s has no recipient", job.ID)
	}
	ref, err := p.sender.Send(ctx, email.FromPayload(payload))
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	p.logger.Info("email delivered", zap.String("job_id", job.ID), zap.String("kind", payload.Kind),
		zap.Int64("campaign_id", payload.CampaignID), zap.String("provider_id", ref))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *EmailProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
