package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-assignments-api/internal/models"
)

var (
	owner    = Principal{UserID: 1, Email: "owner@example.com"}
	stranger = Principal{UserID: 2, Email: "stranger@example.com"}
)

func newTestAssignmentService(repo *memoryAssignmentRepo, enforceOwner bool) *assignmentService {
	svc := NewAssignmentService(repo, NewValidator(), enforceOwner, testLogger()).(*assignmentService)
	svc.now = func() time.Time { return time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC) }
	return svc
}

func seededAssignment() models.Assignment {
	return models.Assignment{
		ID:            1,
		Name:          "HW1",
		Points:        5,
		NumOfAttempts: 2,
		Deadline:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		OwnerUserID:   owner.UserID,
	}
}

func requireValidation(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	require.Equal(t, field, verr.Field)
	return verr
}

func TestAssignmentServiceCreate(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	svc := newTestAssignmentService(repo, true)

	resp, err := svc.Create(context.Background(), owner, []byte(`{"name":"  HW1  ","points":5,"num_of_attempts":2,"deadline":"2024-02-01T00:00:00Z"}`))
	require.NoError(t, err)
	require.Equal(t, "HW1", resp.Name)
	require.Equal(t, owner.UserID, resp.OwnerUserID)
	require.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), resp.Deadline)
	require.Equal(t, svc.now(), resp.CreatedAt)
	require.Len(t, repo.items, 1)
}

func TestAssignmentServiceCreateRejectsInvalidBodies(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"points too high":     {`{"name":"HW1","points":11,"num_of_attempts":2,"deadline":"2024-02-01"}`, "points"},
		"points fractional":   {`{"name":"HW1","points":2.5,"num_of_attempts":2,"deadline":"2024-02-01"}`, "points"},
		"attempts zero":       {`{"name":"HW1","points":5,"num_of_attempts":0,"deadline":"2024-02-01"}`, "num_of_attempts"},
		"points as string":    {`{"name":"HW1","points":"5","num_of_attempts":2,"deadline":"2024-02-01"}`, "points"},
		"unknown field":       {`{"name":"HW1","points":5,"num_of_attempts":2,"deadline":"2024-02-01","extra":true}`, "body"},
		"missing deadline":    {`{"name":"HW1","points":5,"num_of_attempts":2}`, "body"},
		"null name":           {`{"name":null,"points":5,"num_of_attempts":2,"deadline":"2024-02-01"}`, "name"},
		"unparsable deadline": {`{"name":"HW1","points":5,"num_of_attempts":2,"deadline":"next week"}`, "deadline"},
		"markup only name":    {`{"name":"<script></script>","points":5,"num_of_attempts":2,"deadline":"2024-02-01"}`, "name"},
		"array body":          {`[1,2]`, "body"},
		"trailing data":       {`{"name":"HW1","points":5,"num_of_attempts":2,"deadline":"2024-02-01"} {}`, "body"},
		"trailing garbage":    {`{"name":"HW1","points":5,"num_of_attempts":2,"deadline":"2024-02-01"}x`, "body"},
		"not json":            {`name=HW1`, "body"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newMemoryAssignmentRepo()
			svc := newTestAssignmentService(repo, true)

			_, err := svc.Create(context.Background(), owner, []byte(tc.body))
			requireValidation(t, err, tc.field)
			require.Empty(t, repo.items)
		})
	}
}

func TestAssignmentServiceCreateKeepsNameVerbatim(t *testing.T) {
	names := []string{"Bob's HW & more", "Q&A <Part 1>", "x < y", "<b>HW1</b>"}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			repo := newMemoryAssignmentRepo()
			svc := newTestAssignmentService(repo, true)

			body, err := json.Marshal(map[string]interface{}{
				"name": name, "points": 5, "num_of_attempts": 2, "deadline": "2024-02-01",
			})
			require.NoError(t, err)

			resp, err := svc.Create(context.Background(), owner, body)
			require.NoError(t, err)
			require.Equal(t, name, resp.Name)
			require.Equal(t, name, repo.items[resp.ID].Name)
		})
	}
}

func TestAssignmentServiceCreateAcceptsIntegralDecimals(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	svc := newTestAssignmentService(repo, true)

	resp, err := svc.Create(context.Background(), owner, []byte(`{"name":"HW1","points":5.0,"num_of_attempts":2.0,"deadline":"2024-02-01"}`))
	require.NoError(t, err)
	require.Equal(t, 5, resp.Points)
	require.Equal(t, 2, resp.NumOfAttempts)
}

func TestAssignmentServiceUpdateKeepsNameVerbatim(t *testing.T) {
	repo := newMemoryAssignmentRepo(seededAssignment())
	svc := newTestAssignmentService(repo, true)
	ctx := context.Background()

	err := svc.Update(ctx, owner, 1, []byte(`{"name":"Bob's HW & more","points":5,"num_of_attempts":2,"deadline":"2024-02-01"}`))
	require.NoError(t, err)

	resp, err := svc.Get(ctx, owner, 1)
	require.NoError(t, err)
	require.Equal(t, "Bob's HW & more", resp.Name)

	err = svc.Update(ctx, owner, 1, []byte(`{"name":"<i></i>","points":5,"num_of_attempts":2,"deadline":"2024-02-01"}`))
	requireValidation(t, err, "name")
}

func TestAssignmentServiceCreateStoreFailure(t *testing.T) {
	repo := newMemoryAssignmentRepo()
	repo.err = errors.New("db down")
	svc := newTestAssignmentService(repo, true)

	_, err := svc.Create(context.Background(), owner, []byte(`{"name":"HW1","points":5,"num_of_attempts":2,"deadline":"2024-02-01"}`))
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestAssignmentServiceOwnership(t *testing.T) {
	repo := newMemoryAssignmentRepo(seededAssignment())
	svc := newTestAssignmentService(repo, true)
	ctx := context.Background()

	_, err := svc.Get(ctx, stranger, 1)
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(ctx, stranger, 1)
	require.ErrorIs(t, err, ErrForbidden)
	require.Contains(t, repo.items, uint(1))

	_, err = svc.Get(ctx, owner, 99)
	require.ErrorIs(t, err, ErrAssignmentNotFound)

	resp, err := svc.Get(ctx, owner, 1)
	require.NoError(t, err)
	require.Equal(t, "HW1", resp.Name)

	require.NoError(t, svc.Delete(ctx, owner, 1))
	require.Empty(t, repo.items)
}

func TestAssignmentServiceListReturnsOwnRecords(t *testing.T) {
	other := seededAssignment()
	other.ID = 2
	other.OwnerUserID = stranger.UserID
	mine := seededAssignment()
	mine.ID = 3
	repo := newMemoryAssignmentRepo(seededAssignment(), other, mine)
	svc := newTestAssignmentService(repo, true)

	list, err := svc.List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, uint(1), list[0].ID)
	require.Equal(t, uint(3), list[1].ID)
}

func TestAssignmentServiceUpdate(t *testing.T) {
	repo := newMemoryAssignmentRepo(seededAssignment())
	svc := newTestAssignmentService(repo, true)

	err := svc.Update(context.Background(), owner, 1, []byte(`{"name":"HW1 revised","points":"7","num_of_attempts":3,"deadline":"2024-03-01T12:00:00","ignored":1}`))
	require.NoError(t, err)

	updated := repo.items[1]
	require.Equal(t, "HW1 revised", updated.Name)
	require.Equal(t, 7, updated.Points)
	require.Equal(t, 3, updated.NumOfAttempts)
	require.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), updated.Deadline)
	require.Equal(t, svc.now(), updated.UpdatedAt)
	require.Equal(t, owner.UserID, updated.OwnerUserID)
}

func TestAssignmentServiceUpdateValidationOrder(t *testing.T) {
	cases := map[string]struct {
		body    string
		field   string
		message string
	}{
		"everything missing":  {`{}`, "name", "name is required and cannot be null."},
		"name ok, points bad and attempts null": {
			`{"name":"x","points":"7abc","num_of_attempts":null}`, "points",
			"Invalid value for points. It must be an integer between 1 and 10.",
		},
		"points out of range": {
			`{"name":"x","points":0,"num_of_attempts":1,"deadline":"2024-02-01"}`, "points",
			"Invalid value for points. It must be an integer between 1 and 10.",
		},
		"points boolean": {
			`{"name":"x","points":true,"num_of_attempts":1,"deadline":"2024-02-01"}`, "points",
			"Invalid value for points. It must be an integer between 1 and 10.",
		},
		"attempts missing": {
			`{"name":"x","points":3,"deadline":"2024-02-01"}`, "num_of_attempts",
			"num_of_attempts is required and cannot be null.",
		},
		"attempts fractional": {
			`{"name":"x","points":3,"num_of_attempts":1.5,"deadline":"2024-02-01"}`, "num_of_attempts",
			"Invalid value for num_of_attempts. It must be an integer greater than or equal to 1.",
		},
		"deadline null": {
			`{"name":"x","points":3,"num_of_attempts":1,"deadline":null}`, "deadline",
			"deadline is required and cannot be null.",
		},
		"deadline garbage": {
			`{"name":"x","points":3,"num_of_attempts":1,"deadline":"soon"}`, "deadline",
			"Invalid value for deadline. It must be an ISO 8601 timestamp.",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newMemoryAssignmentRepo(seededAssignment())
			svc := newTestAssignmentService(repo, true)

			err := svc.Update(context.Background(), owner, 1, []byte(tc.body))
			verr := requireValidation(t, err, tc.field)
			require.Equal(t, tc.message, verr.Message)
			require.Equal(t, "HW1", repo.items[1].Name)
		})
	}
}

func TestAssignmentServiceUpdateOwnershipGuard(t *testing.T) {
	body := []byte(`{"name":"taken over","points":1,"num_of_attempts":1,"deadline":"2024-02-01"}`)

	guarded := newTestAssignmentService(newMemoryAssignmentRepo(seededAssignment()), true)
	require.ErrorIs(t, guarded.Update(context.Background(), stranger, 1, body), ErrForbidden)

	repo := newMemoryAssignmentRepo(seededAssignment())
	open := newTestAssignmentService(repo, false)
	require.NoError(t, open.Update(context.Background(), stranger, 1, body))
	require.Equal(t, "taken over", repo.items[1].Name)
	require.Equal(t, owner.UserID, repo.items[1].OwnerUserID)
}

func TestAssignmentServiceUpdateMissingAssignment(t *testing.T) {
	svc := newTestAssignmentService(newMemoryAssignmentRepo(), true)

	err := svc.Update(context.Background(), owner, 42, []byte(`{}`))
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
