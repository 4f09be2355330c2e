// Package testutil provides in-memory stand-ins for the MongoDB repositories,
// the payment gateway and the notifier.
package testutil

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"jamjob-backend/internal/models"
	"jamjob-backend/internal/repository"
)

// UserStore keeps users keyed by email. Counter updates hold the lock for
// the whole check-and-increment, like the conditional update in MongoDB.
type UserStore struct {
	mu    sync.Mutex
	users map[string]*models.User

	// FindErr, when set, is returned by FindByEmail.
	FindErr error
	// CreateErr, when set, is returned by Create without storing anything.
	CreateErr error
	// CreditErr, when set, makes ApplyPaymentCredits fail once.
	CreditErr error
	// Releases counts ReleaseJobSlot calls.
	Releases int
}

func NewUserStore(users ...*models.User) *UserStore {
	s := &UserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		if u.ID.IsZero() {
			u.ID = bson.NewObjectID()
		}
		s.users[u.Email] = u
	}
	return s
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	u, ok := s.users[email]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now().UTC()
	user.ID = bson.NewObjectID()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	s.users[user.Email] = &cp
	return nil
}

func (s *UserStore) ReserveJobSlot(ctx context.Context, email string, freeQuota int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if u.TotalJobsPosted >= u.JobAllowance(freeQuota) {
		return nil, repository.ErrQuotaExceeded
	}
	u.TotalJobsPosted++
	cp := *u
	return &cp, nil
}

func (s *UserStore) ReleaseJobSlot(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Releases++
	if u, ok := s.users[email]; ok && u.TotalJobsPosted > 0 {
		u.TotalJobsPosted--
	}
	return nil
}

func (s *UserStore) ApplyPaymentCredits(ctx context.Context, email, orderID string, credits int) (*models.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := takeErr(&s.CreditErr); err != nil {
		return nil, false, err
	}
	u, ok := s.users[email]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if slices.Contains(u.CreditedOrders, orderID) {
		cp := *u
		return &cp, false, nil
	}
	u.PaidJobCredits += credits
	u.CreditedOrders = append(u.CreditedOrders, orderID)
	cp := *u
	cp.CreditedOrders = slices.Clone(u.CreditedOrders)
	return &cp, true, nil
}

// Get returns a copy of the stored user, or nil.
func (s *UserStore) Get(email string) *models.User {
	u, _ := s.FindByEmail(context.Background(), email)
	return u
}

// JobStore keeps jobs in insertion order.
type JobStore struct {
	mu   sync.Mutex
	jobs []*models.Job

	// InsertErr, when set, makes Insert fail without storing anything.
	InsertErr error
}

func NewJobStore() *JobStore {
	return &JobStore{}
}

func (s *JobStore) Insert(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	job.ID = bson.NewObjectID()
	s.jobs = append(s.jobs, cloneJob(job))
	return nil
}

func (s *JobStore) FindAll(ctx context.Context) ([]models.Job, error) {
	return s.filter(func(*models.Job) bool { return true }), nil
}

func (s *JobStore) FindByPoster(ctx context.Context, email string) ([]models.Job, error) {
	return s.filter(func(j *models.Job) bool { return j.PostedBy == email }), nil
}

func (s *JobStore) filter(keep func(*models.Job) bool) []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Job{}
	for _, j := range s.jobs {
		if keep(j) {
			out = append(out, *cloneJob(j))
		}
	}
	return out
}

func (s *JobStore) FindByID(ctx context.Context, id bson.ObjectID) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return cloneJob(s.jobs[i]), nil
	}
	return nil, nil
}

func (s *JobStore) Delete(ctx context.Context, id bson.ObjectID) (*models.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return &models.DeleteResult{Acknowledged: true}, nil
	}
	s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
	return &models.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

func (s *JobStore) UpdateExisting(ctx context.Context, id bson.ObjectID, fields bson.M) (*models.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	setFields(s.jobs[i], fields)
	return &models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *JobStore) Upsert(ctx context.Context, id bson.ObjectID, fields bson.M) (*models.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		setFields(s.jobs[i], fields)
		return &models.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
	}
	job := &models.Job{ID: id, CreateAt: time.Now().UTC(), Fields: bson.M{}}
	setFields(job, fields)
	s.jobs = append(s.jobs, job)
	return &models.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: id.Hex()}, nil
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *JobStore) index(id bson.ObjectID) int {
	for i, j := range s.jobs {
		if j.ID == id {
			return i
		}
	}
	return -1
}

func setFields(job *models.Job, fields bson.M) {
	if job.Fields == nil {
		job.Fields = bson.M{}
	}
	for k, v := range fields {
		job.Fields[k] = v
	}
}

func cloneJob(j *models.Job) *models.Job {
	cp := *j
	cp.Fields = make(bson.M, len(j.Fields))
	for k, v := range j.Fields {
		cp.Fields[k] = v
	}
	return &cp
}

// PaymentStore keeps payments keyed by order id.
// Each *Err field, when set, makes the matching method fail once.
type PaymentStore struct {
	mu       sync.Mutex
	payments map[string]*models.Payment

	CreateErr       error
	MarkCapturedErr error
	MarkCreditedErr error
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{payments: make(map[string]*models.Payment)}
}

func (s *PaymentStore) Create(ctx context.Context, p *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := takeErr(&s.CreateErr); err != nil {
		return err
	}
	if _, ok := s.payments[p.OrderID]; ok {
		return repository.ErrDuplicate
	}
	p.ID = bson.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	cp := *p
	s.payments[p.OrderID] = &cp
	return nil
}

func (s *PaymentStore) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[orderID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *PaymentStore) MarkCaptured(ctx context.Context, orderID string, c models.PaymentCapture) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := takeErr(&s.MarkCapturedErr); err != nil {
		return err
	}
	p, ok := s.payments[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	p.CaptureID, p.Amount, p.Currency, p.Status = c.CaptureID, c.Amount, c.Currency, c.Status
	return nil
}

func (s *PaymentStore) MarkCredited(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := takeErr(&s.MarkCreditedErr); err != nil {
		return err
	}
	p, ok := s.payments[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Credited = true
	return nil
}

// Get returns a copy of the recorded payment, or nil.
func (s *PaymentStore) Get(orderID string) *models.Payment {
	p, _ := s.FindByOrderID(context.Background(), orderID)
	return p
}

// Len returns the number of recorded payments.
func (s *PaymentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func takeErr(p *error) error {
	err := *p
	*p = nil
	return err
}
