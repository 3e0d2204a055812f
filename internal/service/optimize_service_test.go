package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/resume_go_server/internal/model"
	"github.com/qs3c/resume_go_server/internal/model/dto"
	"github.com/qs3c/resume_go_server/internal/pkg/queue"
	"github.com/qs3c/resume_go_server/internal/repository"
	"github.com/qs3c/resume_go_server/internal/testutil"
)

func newOptimizeService(t *testing.T, db *gorm.DB) (*OptimizeService, *queue.Queue, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	q := queue.NewQueue(rdb, "test:optimize")
	svc := NewOptimizeService(
		repository.NewJobRepository(db),
		repository.NewResumeRepository(db),
		newCreditService(db),
		q,
	)

	cleanup := func() {
		rdb.Close()
		mr.Close()
	}
	return svc, q, cleanup
}

func TestOptimizeService_CreateJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc, q, cleanup := newOptimizeService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithQuota(model.KindOptimization, 0, 3))

	resp, err := svc.CreateJob(context.Background(), user.ID, model.KindOptimization, optimizeReq("目标岗位：后端工程师"))
	require.NoError(t, err)

	assert.NotZero(t, resp.JobID)
	assert.Equal(t, 2, resp.Remaining)

	// 任务已入队
	msg, err := q.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, resp.JobID, msg.JobID)
	assert.Equal(t, model.KindOptimization, msg.Kind)
}

func TestOptimizeService_CreateJob_NoCredits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc, _, cleanup := newOptimizeService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db)

	_, err := svc.CreateJob(context.Background(), user.ID, model.KindScoreCheck, optimizeReq("x"))
	assert.ErrorIs(t, err, ErrNoCredits)

	// 没有残留任务
	var count int64
	require.NoError(t, db.Model(&model.OptimizeJob{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestOptimizeService_CreateJob_EnqueueFailureRefunds(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID,
		testutil.WithQuota(model.KindOptimization, 0, 1))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	credits := newCreditService(db)
	svc := NewOptimizeService(
		repository.NewJobRepository(db),
		repository.NewResumeRepository(db),
		credits,
		queue.NewQueue(rdb, "test:optimize"),
	)

	// redis 挂掉，入队必然失败
	mr.Close()

	_, err = svc.CreateJob(context.Background(), user.ID, model.KindOptimization, optimizeReq("x"))
	require.Error(t, err)

	// 额度已回补
	remaining, err := credits.Remaining(user.ID, model.KindOptimization)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	// 任务落库但已标记失败
	var job model.OptimizeJob
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&job).Error)
	assert.Equal(t, "failed", job.Status)
}

func TestOptimizeService_CreateJob_ResumeOwnership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc, _, cleanup := newOptimizeService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	testutil.TestSubscription(t, db, user.ID)

	resume := &model.Resume{UserID: other.ID, Title: "别人的简历"}
	require.NoError(t, db.Create(resume).Error)

	req := optimizeReq("x")
	req.ResumeID = resume.ID
	_, err := svc.CreateJob(context.Background(), user.ID, model.KindOptimization, req)
	assert.ErrorIs(t, err, ErrResumePermission)
}

func TestOptimizeService_GetJob_Permission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc, _, cleanup := newOptimizeService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)

	job := &model.OptimizeJob{UserID: user.ID, Kind: model.KindOptimization, Status: "queued"}
	require.NoError(t, db.Create(job).Error)

	_, err := svc.GetJob(other.ID, job.ID)
	assert.ErrorIs(t, err, ErrJobPermission)

	detail, err := svc.GetJob(user.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "queued", detail.Status)
}

func optimizeReq(input string) *dto.OptimizeRequest {
	return &dto.OptimizeRequest{InputText: input}
}
