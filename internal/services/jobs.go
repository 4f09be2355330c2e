package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"jamjob-backend/internal/apperr"
	"jamjob-backend/internal/models"
	"jamjob-backend/internal/notify"
	"jamjob-backend/internal/repository"
)

type UpdateMode int

const (
	// UpdateModeUpsert creates the job under the given id when it is missing.
	UpdateModeUpsert UpdateMode = iota
	// UpdateModeExisting fails with CodeNotFound when the job is missing.
	UpdateModeExisting
)

type JobService struct {
	users     UserStore
	jobs      JobStore
	notifier  notify.Notifier
	log       logrus.FieldLogger
	freeQuota int
	now       func() time.Time
}

func NewJobService(users UserStore, jobs JobStore, notifier notify.Notifier, log logrus.FieldLogger, freeQuota int) *JobService {
	return &JobService{
		users:     users,
		jobs:      jobs,
		notifier:  notifier,
		log:       log,
		freeQuota: freeQuota,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PostJob stores job on behalf of job.PostedBy if that account still has
// posting allowance. The allowance check and the counter increment are one
// conditional store update, so concurrent posts cannot overshoot the quota.
// The reservation is released if the job insert fails.
func (s *JobService) PostJob(ctx context.Context, job *models.Job) (*models.InsertResult, error) {
	const op = "Jobs.PostJob"

	job.CreateAt = s.now()
	job.PostedBy = strings.TrimSpace(job.PostedBy)
	if job.PostedBy == "" {
		return nil, apperr.E(apperr.CodeBadRequest, op, "postedBy is required", nil)
	}
	log := s.log.WithFields(logrus.Fields{"op": op, "email": job.PostedBy})

	user, err := s.users.FindByEmail(ctx, job.PostedBy)
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, op, "failed to look up user", err)
	}
	if user == nil {
		return nil, apperr.E(apperr.CodeNotFound, op, "user not found", nil)
	}

	user, err = s.users.ReserveJobSlot(ctx, job.PostedBy, s.freeQuota)
	switch {
	case errors.Is(err, repository.ErrQuotaExceeded):
		return nil, apperr.E(apperr.CodePaymentRequired, op, "Payment required", err)
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperr.E(apperr.CodeNotFound, op, "user not found", err)
	case err != nil:
		return nil, apperr.E(apperr.CodeInternal, op, "failed to update job counter", err)
	}

	if err := s.jobs.Insert(ctx, job); err != nil {
		if relErr := s.users.ReleaseJobSlot(ctx, job.PostedBy); relErr != nil {
			log.WithError(relErr).Error("failed to release job slot after insert failure, counter over-counts by one")
		}
		return nil, apperr.E(apperr.CodeInternal, op, "Cannot insert, try again later", err)
	}

	log.WithField("job_id", job.ID.Hex()).Info("job posted")
	sendAsync(s.notifier, log, notify.JobPosted(job.PostedBy, job.Title(), user.RemainingPosts(s.freeQuota)))

	return &models.InsertResult{Acknowledged: true, InsertedID: job.ID.Hex()}, nil
}

func (s *JobService) ListAllJobs(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.jobs.FindAll(ctx)
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, "Jobs.ListAllJobs", "failed to list jobs", err)
	}
	return jobs, nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*models.Job, error) {
	const op = "Jobs.GetJob"

	oid, err := parseJobID(op, id)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.FindByID(ctx, oid)
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, op, "failed to fetch job", err)
	}
	if job == nil {
		return nil, apperr.E(apperr.CodeNotFound, op, "job not found", nil)
	}
	return job, nil
}

func (s *JobService) ListJobsByPoster(ctx context.Context, email string) ([]models.Job, error) {
	jobs, err := s.jobs.FindByPoster(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, "Jobs.ListJobsByPoster", "failed to list jobs", err)
	}
	return jobs, nil
}

// DeleteJob removes the job. Deleting an id that does not exist succeeds
// with DeletedCount 0. The poster's counter is left as is.
func (s *JobService) DeleteJob(ctx context.Context, id string) (*models.DeleteResult, error) {
	const op = "Jobs.DeleteJob"

	oid, err := parseJobID(op, id)
	if err != nil {
		return nil, err
	}
	res, err := s.jobs.Delete(ctx, oid)
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, op, "failed to delete job", err)
	}
	return res, nil
}

// UpdateJob overwrites the given top-level fields. Server-managed keys are
// ignored; an update with nothing left to set is rejected.
func (s *JobService) UpdateJob(ctx context.Context, id string, fields map[string]any, mode UpdateMode) (*models.UpdateResult, error) {
	const op = "Jobs.UpdateJob"

	oid, err := parseJobID(op, id)
	if err != nil {
		return nil, err
	}
	set := models.StripReserved(fields)
	if len(set) == 0 {
		return nil, apperr.E(apperr.CodeBadRequest, op, "no fields to update", nil)
	}

	var res *models.UpdateResult
	if mode == UpdateModeExisting {
		res, err = s.jobs.UpdateExisting(ctx, oid, set)
	} else {
		res, err = s.jobs.Upsert(ctx, oid, set)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.E(apperr.CodeNotFound, op, "job not found", err)
	}
	if err != nil {
		return nil, apperr.E(apperr.CodeInternal, op, "failed to update job", err)
	}

	if res.UpsertedCount > 0 {
		s.log.WithFields(logrus.Fields{"op": op, "job_id": oid.Hex()}).Info("update created a new job")
	}
	return res, nil
}

func parseJobID(op, id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, apperr.E(apperr.CodeBadRequest, op, "invalid job id", err)
	}
	return oid, nil
}
