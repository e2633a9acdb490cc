package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweepgoat/backend/pkg/email"
	"github.com/sweepgoat/backend/pkg/queue"
)

type fakeQueue struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retried []*queue.Job
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	q.mu.Lock()
	if len(q.jobs) > 0 {
		j := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		return j, queue.QueueEmails, nil
	}
	q.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return nil, "", nil
	}
}

func (q *fakeQueue) Retry(_ context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Attempt++
	q.retried = append(q.retried, job)
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg email.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "re_123", nil
}

func emailJob(t *testing.T, to string) *queue.Job {
	t.Helper()
	job, err := queue.NewEmailJob(queue.EmailPayload{Kind: "campaign", To: to, Subject: "Hi", HTML: "<p>x</p>", CampaignID: 4})
	require.NoError(t, err)
	return job
}

func TestProcessDelivers(t *testing.T) {
	sender := &fakeSender{}
	p := NewEmailProcessor(sender, &fakeQueue{}, nil)

	require.NoError(t, p.Process(context.Background(), emailJob(t, "ann@example.com")))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ann@example.com", sender.sent[0].To)
	assert.Equal(t, int64(4), sender.sent[0].CampaignID)

	assert.Error(t, p.Process(context.Background(), emailJob(t, "")))
	assert.Error(t, p.Process(context.Background(), &queue.Job{ID: "x", Type: "other"}))
}

func TestRunRetriesFailures(t *testing.T) {
	q := &fakeQueue{}
	q.jobs = []*queue.Job{emailJob(t, "bob@example.com")}
	p := NewEmailProcessor(&fakeSender{err: errors.New("provider down")}, q, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.retried) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	assert.Equal(t, 1, q.retried[0].Attempt)
}
