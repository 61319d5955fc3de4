package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assignments-api/internal/models"
	"github.com/noah-isme/gema-assignments-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type memoryAssignmentRepo struct {
	mu     sync.Mutex
	nextID uint
	items  map[uint]models.Assignment
	err    error
}

func newMemoryAssignmentRepo(items ...models.Assignment) *memoryAssignmentRepo {
	repo := &memoryAssignmentRepo{items: map[uint]models.Assignment{}}
	for _, item := range items {
		repo.items[item.ID] = item
		if item.ID > repo.nextID {
			repo.nextID = item.ID
		}
	}
	return repo
}

func (m *memoryAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	assignment.ID = m.nextID
	m.items[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) FindByID(ctx context.Context, id uint) (models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.Assignment{}, m.err
	}
	item, ok := m.items[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (m *memoryAssignmentRepo) FindAllByOwner(ctx context.Context, ownerID uint) ([]models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	result := make([]models.Assignment, 0)
	for _, item := range m.items {
		if item.OwnerUserID == ownerID {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memoryAssignmentRepo) Save(ctx context.Context, assignment *models.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.items[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, id)
	return nil
}

// memorySubmissionRepo counts per submitter. A non-zero gap widens the window
// between count and insert so unserialised callers can overshoot the limit.
type memorySubmissionRepo struct {
	mu    sync.Mutex
	items []models.Submission
	gap   time.Duration
	err   error
}

func (m *memorySubmissionRepo) CountAttempts(ctx context.Context, assignmentID uint, scope repository.AttemptScope) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var count int64
	for _, item := range m.items {
		if item.AssignmentID == assignmentID && item.SubmitterID == scope.SubmitterID {
			count++
		}
	}
	return count, nil
}

func (m *memorySubmissionRepo) CreateWithinLimit(ctx context.Context, submission *models.Submission, limit int, scope repository.AttemptScope) error {
	count, err := m.CountAttempts(ctx, submission.AssignmentID, scope)
	if err != nil {
		return err
	}
	if count >= int64(limit) {
		return repository.ErrAttemptLimitReached
	}
	if m.gap > 0 {
		time.Sleep(m.gap)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, *submission)
	return nil
}

func (m *memorySubmissionRepo) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	result := make([]models.Submission, 0)
	for _, item := range m.items {
		if item.AssignmentID == assignmentID {
			result = append(result, item)
		}
	}
	return result, nil
}

func (m *memorySubmissionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
	err   error
}

func newMemoryUserRepo(users ...models.User) *memoryUserRepo {
	repo := &memoryUserRepo{users: map[string]models.User{}}
	for _, user := range users {
		repo.users[user.Email] = user
	}
	return repo
}

func (m *memoryUserRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return models.User{}, m.err
	}
	user, ok := m.users[email]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) CreateIfAbsent(ctx context.Context, user *models.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.users[user.Email]; ok {
		return false, nil
	}
	user.ID = uint(len(m.users) + 1)
	m.users[user.Email] = *user
	return true, nil
}
