// Package memory is an in-process implementation of the repository
// interfaces. It backs the tests and mirrors the conditional-update
// semantics of the gorm repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskboard/internal/domain/billing"
	"taskboard/internal/domain/notifications"
	"taskboard/internal/domain/tasks"
	"taskboard/internal/domain/users"
	"taskboard/internal/repository"

	"github.com/shopspring/decimal"
)

// Store holds every collection behind one lock so that Complete can touch
// transactions and users atomically, like the SQL transaction does.
type Store struct {
	mu            sync.Mutex
	users         map[string]users.User
	tasks         map[string]tasks.Task
	projects      map[string]tasks.Project
	notifications map[string]notifications.Notification
	transactions  map[string]billing.Transaction // by session id
}

func New() *Store {
	return &Store{
		users:         make(map[string]users.User),
		tasks:         make(map[string]tasks.Task),
		projects:      make(map[string]tasks.Project),
		notifications: make(map[string]notifications.Notification),
		transactions:  make(map[string]billing.Transaction),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Users:         (*userRepo)(s),
		Tasks:         (*taskRepo)(s),
		Projects:      (*projectRepo)(s),
		Notifications: (*notificationRepo)(s),
		Transactions:  (*transactionRepo)(s),
	}
}

// ---------- users ----------

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.ID == u.ID {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = users.RoleUser
	}
	if u.AuthProvider == "" {
		u.AuthProvider = users.ProviderLocal
	}
	r.users[u.ID] = *u
	return nil
}

func (r *userRepo) find(match func(users.User) bool) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	return r.find(func(u users.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	return r.find(func(u users.User) bool { return u.Email == email })
}

func (r *userRepo) GetByGoogleSub(_ context.Context, sub string) (*users.User, error) {
	return r.find(func(u users.User) bool { return u.GoogleSub != nil && *u.GoogleSub == sub })
}

func (r *userRepo) GetBySlackUserID(_ context.Context, slackUserID string) (*users.User, error) {
	return r.find(func(u users.User) bool { return u.SlackUserID != nil && *u.SlackUserID == slackUserID })
}

func (r *userRepo) Save(_ context.Context, u *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *u
	next.IsPremium = stored.IsPremium
	next.SubscriptionPlan = stored.SubscriptionPlan
	next.SubscriptionExpires = stored.SubscriptionExpires
	next.UpdatedAt = time.Now()
	r.users[u.ID] = next
	return nil
}

func (r *userRepo) SetSlackUserID(_ context.Context, userID string, slackUserID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if slackUserID != nil {
		for id, other := range r.users {
			if id != userID && other.SlackUserID != nil && *other.SlackUserID == *slackUserID {
				return repository.ErrDuplicate
			}
		}
	}
	u.SlackUserID = slackUserID
	r.users[userID] = u
	return nil
}

func (r *userRepo) ExpireEntitlements(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, u := range r.users {
		if u.IsPremium && u.SubscriptionExpires != nil && u.SubscriptionExpires.Before(now) {
			u.IsPremium = false
			u.UpdatedAt = now
			r.users[id] = u
			n++
		}
	}
	return n, nil
}

func (r *userRepo) Counts(_ context.Context) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var premium int64
	for _, u := range r.users {
		if u.IsPremium {
			premium++
		}
	}
	return int64(len(r.users)), premium, nil
}

// PutUser seeds a user with entitlement fields as-is. Test helper.
func (s *Store) PutUser(u users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// ---------- tasks ----------

type taskRepo Store

func (r *taskRepo) Create(_ context.Context, t *tasks.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	r.tasks[t.ID] = *t
	return nil
}

func (r *taskRepo) Get(_ context.Context, userID, id string) (*tasks.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *taskRepo) List(_ context.Context, userID string, f tasks.Filter) ([]tasks.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tasks.Task
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		if f.ProjectID != "" && (t.ProjectID == nil || *t.ProjectID != f.ProjectID) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *taskRepo) Save(_ context.Context, t *tasks.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.UpdatedAt = time.Now()
	r.tasks[t.ID] = *t
	return nil
}

func (r *taskRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *taskRepo) DeleteByProject(_ context.Context, userID, projectID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.tasks {
		if t.UserID == userID && t.ProjectID != nil && *t.ProjectID == projectID {
			delete(r.tasks, id)
			n++
		}
	}
	return n, nil
}

func (r *taskRepo) ChildStartTimes(_ context.Context, userID, parentID string) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []time.Time
	for _, t := range r.tasks {
		if t.UserID == userID && t.ParentTaskID != nil && *t.ParentTaskID == parentID {
			out = append(out, t.StartTime)
		}
	}
	return out, nil
}

func (r *taskRepo) Stats(_ context.Context, userID string, dayStart, dayEnd time.Time) (tasks.Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s tasks.Stats
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		s.TotalTasks++
		switch t.Status {
		case tasks.StatusCompleted:
			s.CompletedTasks++
		case tasks.StatusTodo, tasks.StatusInProgress:
			s.PendingTasks++
		}
		if !t.StartTime.Before(dayStart) && t.StartTime.Before(dayEnd) {
			s.TodayTasks++
		}
	}
	return s, nil
}

// ---------- projects ----------

type projectRepo Store

func (r *projectRepo) Create(_ context.Context, p *tasks.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ID]; ok {
		return repository.ErrDuplicate
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	r.projects[p.ID] = *p
	return nil
}

func (r *projectRepo) Get(_ context.Context, userID, id string) (*tasks.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *projectRepo) List(_ context.Context, userID string) ([]tasks.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tasks.Project
	for _, p := range r.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *projectRepo) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *projectRepo) Count(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.projects {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

// ---------- notifications ----------

type notificationRepo Store

func (r *notificationRepo) Create(_ context.Context, n *notifications.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	r.notifications[n.ID] = *n
	return nil
}

func (r *notificationRepo) collect(match func(notifications.Notification) bool) []notifications.Notification {
	var out []notifications.Notification
	for _, n := range r.notifications {
		if match(n) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out
}

func (r *notificationRepo) List(_ context.Context, userID string, unreadOnly bool) ([]notifications.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collect(func(n notifications.Notification) bool {
		return n.UserID == userID && (!unreadOnly || n.ReadAt == nil)
	}), nil
}

func (r *notificationRepo) Due(_ context.Context, userID string, now time.Time) ([]notifications.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collect(func(n notifications.Notification) bool {
		return n.UserID == userID && n.IsDue(now)
	}), nil
}

func (r *notificationRepo) MarkRead(_ context.Context, userID, id string, at time.Time) (*notifications.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
		r.notifications[id] = n
	}
	return &n, nil
}

// ---------- payment ledger ----------

type transactionRepo Store

func (r *transactionRepo) Create(_ context.Context, txn *billing.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[txn.SessionID]; ok {
		return repository.ErrDuplicate
	}
	now := time.Now()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now
	r.transactions[txn.SessionID] = *txn
	return nil
}

func (r *transactionRepo) Upsert(ctx context.Context, txn *billing.Transaction) (bool, error) {
	r.mu.Lock()
	stored, ok := r.transactions[txn.SessionID]
	r.mu.Unlock()
	if ok {
		*txn = stored
		return false, nil
	}
	if err := r.Create(ctx, txn); err != nil {
		return false, err
	}
	return true, nil
}

func (r *transactionRepo) GetBySessionID(_ context.Context, sessionID string) (*billing.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.transactions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &txn, nil
}

func (r *transactionRepo) list(match func(billing.Transaction) bool) []billing.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []billing.Transaction
	for _, t := range r.transactions {
		if match(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *transactionRepo) ListByUser(_ context.Context, userID string) ([]billing.Transaction, error) {
	return r.list(func(t billing.Transaction) bool { return t.UserID == userID }), nil
}

func (r *transactionRepo) ListAll(_ context.Context) ([]billing.Transaction, error) {
	return r.list(func(billing.Transaction) bool { return true }), nil
}

func (r *transactionRepo) UpdateProviderStatus(_ context.Context, sessionID string, status billing.Status, payment billing.PaymentStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.transactions[sessionID]
	if !ok || status == billing.StatusCompleted {
		return false, nil
	}
	if !billing.CanTransition(txn.Status, status) || !billing.CanPaymentTransition(txn.PaymentStatus, payment) {
		return false, nil
	}
	txn.Status = status
	txn.PaymentStatus = payment
	txn.UpdatedAt = time.Now()
	r.transactions[sessionID] = txn
	return true, nil
}

func (r *transactionRepo) Complete(_ context.Context, sessionID string, ent billing.Entitlement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn, ok := r.transactions[sessionID]
	if !ok || txn.Status == billing.StatusCompleted {
		return false, nil
	}
	u, ok := r.users[ent.UserID]
	if !ok {
		return false, repository.ErrNotFound
	}

	now := time.Now()
	txn.Status = billing.StatusCompleted
	txn.PaymentStatus = billing.PaymentPaid
	txn.UpdatedAt = now
	r.transactions[sessionID] = txn

	plan := ent.Plan
	expires := ent.ExpiresAt
	u.IsPremium = true
	u.SubscriptionPlan = &plan
	u.SubscriptionExpires = &expires
	u.UpdatedAt = now
	r.users[u.ID] = u
	return true, nil
}

func (r *transactionRepo) CompletedRevenue(_ context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, t := range r.list(func(t billing.Transaction) bool { return t.Status == billing.StatusCompleted }) {
		total = total.Add(t.Amount)
	}
	return total, nil
}
