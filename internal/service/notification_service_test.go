package service

import (
	"coder_edu_progress/internal/model"
	"coder_edu_progress/internal/repository"
	"coder_edu_progress/internal/testutil"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyPersistsAndPublishes(t *testing.T) {
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := rdb.Subscribe(ctx, "learner-events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	svc := NewNotificationService(repository.NewNotificationRepository(db), rdb, "learner-events")
	n := &model.Notification{
		UserID:  learner,
		Type:    model.NotificationAchievementUnlocked,
		Title:   "解锁新成就",
		Message: "first steps",
		Data:    map[string]interface{}{"code": "first_lesson"},
	}
	require.NoError(t, svc.Notify(ctx, n))
	assert.NotEmpty(t, n.ID)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var published model.Notification
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &published))
	assert.Equal(t, n.ID, published.ID)
	assert.Equal(t, model.NotificationAchievementUnlocked, published.Type)
	assert.Equal(t, "first_lesson", published.Data["code"])

	stored, err := svc.ListForUser(ctx, learner, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, n.ID, stored[0].ID)
	assert.Equal(t, "first_lesson", stored[0].Data["code"])
}

func TestNotifySurvivesRedisOutage(t *testing.T) {
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	svc := NewNotificationService(repository.NewNotificationRepository(db), rdb, "")
	err := svc.Notify(context.Background(), &model.Notification{
		UserID: learner,
		Type:   model.NotificationCertificateIssued,
		Title:  "获得课程证书",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countNotifications(t, db, model.NotificationCertificateIssued))
}
