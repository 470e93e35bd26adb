package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"

	mocks "notification-service/internal/mocks/scheduler"
	"notification-service/internal/model"
	"notification-service/internal/rabbitmq/queue"
)

func setupScheduler(t *testing.T) (*Scheduler, *mocks.MockretryRepository, *mocks.MockretryPublisher) {
	ctrl := gomock.NewController(t)

	repo := mocks.NewMockretryRepository(ctrl)
	pub := mocks.NewMockretryPublisher(ctrl)

	return New(repo, pub, time.Second, 100, retry.Strategy{}), repo, pub
}

func TestScan_PublishesClaimedRetries(t *testing.T) {
	s, repo, pub := setupScheduler(t)

	due := []model.Notification{
		{ID: uuid.New(), UserID: "user-1", Channel: model.ChannelEmail, Message: "a", Destination: "a@b.com", RetryCount: 1},
		{ID: uuid.New(), UserID: "user-2", Channel: model.ChannelSMS, Message: "b", Destination: "+15551234567", RetryCount: 3},
	}

	repo.EXPECT().ClaimDueRetries(gomock.Any(), gomock.Any(), 100).Return(due, nil)
	for _, n := range due {
		pub.EXPECT().Publish(queue.NotificationMessage{
			ID:          n.ID,
			UserID:      n.UserID,
			Channel:     n.Channel,
			Message:     n.Message,
			Destination: n.Destination,
			RetryCount:  n.RetryCount,
		}, retry.Strategy{}).Return(nil)
	}

	s.scan(context.Background())
}

func TestScan_NothingDue(t *testing.T) {
	s, repo, _ := setupScheduler(t)

	repo.EXPECT().ClaimDueRetries(gomock.Any(), gomock.Any(), 100).Return(nil, nil)

	s.scan(context.Background())
}

func TestScan_ClaimError(t *testing.T) {
	s, repo, _ := setupScheduler(t)

	repo.EXPECT().ClaimDueRetries(gomock.Any(), gomock.Any(), 100).Return(nil, errors.New("db down"))

	// No publishes when the claim fails.
	s.scan(context.Background())
}

func TestScan_PublishFailureRestoresClaim(t *testing.T) {
	s, repo, pub := setupScheduler(t)

	failed := model.Notification{ID: uuid.New(), Channel: model.ChannelEmail, RetryCount: 2}
	ok := model.Notification{ID: uuid.New(), Channel: model.ChannelSMS, RetryCount: 1}

	repo.EXPECT().ClaimDueRetries(gomock.Any(), gomock.Any(), 100).
		Return([]model.Notification{failed, ok}, nil)

	pub.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(msg queue.NotificationMessage, _ retry.Strategy) error {
			if msg.ID == failed.ID {
				return errors.New("broker unavailable")
			}
			return nil
		}).Times(2)

	// The failed claim goes back to retry_scheduled; the other record is unaffected.
	repo.EXPECT().RestoreRetrySchedule(gomock.Any(), failed.ID, gomock.Any()).Return(nil)

	s.scan(context.Background())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s, _, _ := setupScheduler(t)
	s.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}
