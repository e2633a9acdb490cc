package email

import (
	"context"

	"github.com/sweepgoat/backend/pkg/queue"
)

// QueueSender hands messages to the email worker via the Redis job queue.
// The returned reference is the job ID, not a provider message ID.
type QueueSender struct {
	queue *queue.Queue
}

// NewQueueSender creates a sender that enqueues instead of delivering.
func NewQueueSender(q *queue.Queue) *QueueSender {
	return &QueueSender{queue: q}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) (string, error) {
	return s.queue.EnqueueEmail(ctx, queue.EmailPayload{
		Kind:       msg.Kind,
		To:         msg.To,
		Subject:    msg.Subject,
		HTML:       msg.HTML,
		CampaignID: msg.CampaignID,
	})
}

// FromPayload rebuilds a message from a queued job payload.
func FromPayload(p queue.EmailPayload) Message {
	return Message{To: p.To, Subject: p.Subject, HTML: p.HTML, Kind: p.Kind, CampaignID: p.CampaignID}
}
