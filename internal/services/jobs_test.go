package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"jamjob-backend/internal/apperr"
	"jamjob-backend/internal/logger"
	"jamjob-backend/internal/models"
	"jamjob-backend/internal/services"
	"jamjob-backend/internal/testutil"
)

const poster = "poster@example.com"

func newJobService(t *testing.T, users ...*models.User) (*services.JobService, *testutil.UserStore, *testutil.JobStore, *testutil.Notifier) {
	t.Helper()
	us := testutil.NewUserStore(users...)
	js := testutil.NewJobStore()
	n := &testutil.Notifier{}
	return services.NewJobService(us, js, n, logger.Discard(), 2), us, js, n
}

func newJob(title string) *models.Job {
	return &models.Job{PostedBy: poster, Fields: bson.M{"jobTitle": title, "salary": "1000"}}
}

func TestPostJob_FreeQuotaThenPaymentRequired(t *testing.T) {
	svc, users, jobs, _ := newJobService(t, &models.User{Email: poster})
	ctx := context.Background()

	res, err := svc.PostJob(ctx, newJob("Backend"))
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)
	assert.NotEmpty(t, res.InsertedID)
	assert.Equal(t, 1, users.Get(poster).TotalJobsPosted)

	_, err = svc.PostJob(ctx, newJob("Frontend"))
	require.NoError(t, err)
	assert.Equal(t, 2, users.Get(poster).TotalJobsPosted)

	_, err = svc.PostJob(ctx, newJob("Ops"))
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodePaymentRequired))
	assert.Equal(t, "Payment required", apperr.Message(err))
	assert.Equal(t, 2, users.Get(poster).TotalJobsPosted)
	assert.Equal(t, 2, jobs.Len())
}

func TestPostJob_PaidCreditsExtendAllowance(t *testing.T) {
	svc, users, _, _ := newJobService(t, &models.User{Email: poster, TotalJobsPosted: 2, PaidJobCredits: 1})

	_, err := svc.PostJob(context.Background(), newJob("Paid"))
	require.NoError(t, err)
	assert.Equal(t, 3, users.Get(poster).TotalJobsPosted)

	_, err = svc.PostJob(context.Background(), newJob("Over"))
	assert.True(t, apperr.IsCode(err, apperr.CodePaymentRequired))
}

func TestPostJob_UnknownUser(t *testing.T) {
	svc, _, jobs, _ := newJobService(t)

	_, err := svc.PostJob(context.Background(), newJob("Ghost"))
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Zero(t, jobs.Len())
}

func TestPostJob_MissingPoster(t *testing.T) {
	svc, _, _, _ := newJobService(t, &models.User{Email: poster})

	_, err := svc.PostJob(context.Background(), &models.Job{Fields: bson.M{"jobTitle": "x"}})
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
}

func TestPostJob_InsertFailureReleasesSlot(t *testing.T) {
	svc, users, jobs, _ := newJobService(t, &models.User{Email: poster, TotalJobsPosted: 1})
	jobs.InsertErr = testutil.ErrInjected

	_, err := svc.PostJob(context.Background(), newJob("Broken"))
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInternal))
	assert.Equal(t, "Cannot insert, try again later", apperr.Message(err))
	assert.Equal(t, 1, users.Get(poster).TotalJobsPosted)
	assert.Equal(t, 1, users.Releases)
}

func TestPostJob_StampsServerFields(t *testing.T) {
	svc, _, jobs, _ := newJobService(t, &models.User{Email: poster})
	before := time.Now().Add(-time.Second)

	res, err := svc.PostJob(context.Background(), newJob("Stamped"))
	require.NoError(t, err)

	all, err := jobs.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, res.InsertedID, all[0].ID.Hex())
	assert.Equal(t, poster, all[0].PostedBy)
	assert.True(t, all[0].CreateAt.After(before))
	assert.Equal(t, "1000", all[0].Fields["salary"])
}

func TestPostJob_NotifiesPoster(t *testing.T) {
	svc, _, _, n := newJobService(t, &models.User{Email: poster})

	_, err := svc.PostJob(context.Background(), newJob("Notify"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(n.Messages()) == 1 }, time.Second, 10*time.Millisecond)
	msg := n.Messages()[0]
	assert.Equal(t, poster, msg.To)
	assert.Contains(t, msg.HTML, "Notify")
	assert.Contains(t, msg.HTML, "1 more job")
}

func TestPostJob_ConcurrentPostsNeverExceedQuota(t *testing.T) {
	svc, users, jobs, _ := newJobService(t, &models.User{Email: poster})

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, denied := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PostJob(context.Background(), newJob("Race"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if apperr.IsCode(err, apperr.CodePaymentRequired) {
				denied++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, 8, denied)
	assert.Equal(t, 2, users.Get(poster).TotalJobsPosted)
	assert.Equal(t, 2, jobs.Len())
}

func TestListJobs(t *testing.T) {
	svc, _, _, _ := newJobService(t, &models.User{Email: poster}, &models.User{Email: "other@example.com"})
	ctx := context.Background()

	all, err := svc.ListAllJobs(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	_, err = svc.PostJob(ctx, newJob("Mine"))
	require.NoError(t, err)
	_, err = svc.PostJob(ctx, &models.Job{PostedBy: "other@example.com", Fields: bson.M{"jobTitle": "Theirs"}})
	require.NoError(t, err)

	all, err = svc.ListAllJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListJobsByPoster(ctx, poster)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Title())

	none, err := svc.ListJobsByPoster(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetJob(t *testing.T) {
	svc, _, _, _ := newJobService(t, &models.User{Email: poster})
	ctx := context.Background()

	res, err := svc.PostJob(ctx, newJob("Find me"))
	require.NoError(t, err)

	job, err := svc.GetJob(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "Find me", job.Title())

	_, err = svc.GetJob(ctx, bson.NewObjectID().Hex())
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	_, err = svc.GetJob(ctx, "not-an-id")
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
}

func TestDeleteJob_KeepsCounter(t *testing.T) {
	svc, users, _, _ := newJobService(t, &models.User{Email: poster})
	ctx := context.Background()

	res, err := svc.PostJob(ctx, newJob("Temp"))
	require.NoError(t, err)

	del, err := svc.DeleteJob(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, del.DeletedCount)
	assert.Equal(t, 1, users.Get(poster).TotalJobsPosted)

	del, err = svc.DeleteJob(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, del.DeletedCount)
}

func TestUpdateJob(t *testing.T) {
	svc, _, _, _ := newJobService(t, &models.User{Email: poster})
	ctx := context.Background()

	res, err := svc.PostJob(ctx, newJob("Old"))
	require.NoError(t, err)

	upd, err := svc.UpdateJob(ctx, res.InsertedID, map[string]any{
		"jobTitle": "New",
		"postedBy": "hijack@example.com",
	}, services.UpdateModeUpsert)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.MatchedCount)
	assert.Zero(t, upd.UpsertedCount)

	job, err := svc.GetJob(ctx, res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "New", job.Title())
	assert.Equal(t, poster, job.PostedBy)
	assert.Equal(t, "1000", job.Fields["salary"])
}

func TestUpdateJob_UpsertCreatesMissing(t *testing.T) {
	svc, _, jobs, _ := newJobService(t)
	id := bson.NewObjectID().Hex()

	upd, err := svc.UpdateJob(context.Background(), id, map[string]any{"jobTitle": "Fresh"}, services.UpdateModeUpsert)
	require.NoError(t, err)
	assert.EqualValues(t, 1, upd.UpsertedCount)
	assert.Equal(t, id, upd.UpsertedID)
	assert.Equal(t, 1, jobs.Len())
}

func TestUpdateJob_ExistingModeRejectsMissing(t *testing.T) {
	svc, _, jobs, _ := newJobService(t)

	_, err := svc.UpdateJob(context.Background(), bson.NewObjectID().Hex(), map[string]any{"jobTitle": "x"}, services.UpdateModeExisting)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Zero(t, jobs.Len())
}

func TestUpdateJob_RejectsEmptyUpdate(t *testing.T) {
	svc, _, _, _ := newJobService(t)

	_, err := svc.UpdateJob(context.Background(), bson.NewObjectID().Hex(), map[string]any{"_id": "x"}, services.UpdateModeUpsert)
	assert.True(t, apperr.IsCode(err, apperr.CodeBadRequest))
}
