package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gema-assignments-api/internal/models"
	"github.com/noah-isme/gema-assignments-api/internal/observability"
	"github.com/noah-isme/gema-assignments-api/internal/repository"
)

// ErrSeedHeader indicates the CSV header lacks a required column.
var ErrSeedHeader = errors.New("users csv must have email and password columns")

// SeedResult counts what happened to each CSV row.
type SeedResult struct {
	Inserted int
	Existing int
	Skipped  int
}

// SeedService bootstraps user accounts from a CSV file.
type SeedService interface {
	SeedUsersFromFile(ctx context.Context, path string) (SeedResult, error)
	SeedUsers(ctx context.Context, r io.Reader) (SeedResult, error)
}

type seedService struct {
	users  repository.UserRepository
	cost   int
	logger zerolog.Logger
}

// NewSeedService constructs a seeding service. cost is the bcrypt work factor.
func NewSeedService(users repository.UserRepository, cost int, logger zerolog.Logger) SeedService {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &seedService{
		users:  users,
		cost:   cost,
		logger: logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedUsersFromFile(ctx context.Context, path string) (SeedResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return SeedResult{}, err
	}
	defer file.Close()

	return s.SeedUsers(ctx, file)
}

func (s *seedService) SeedUsers(ctx context.Context, r io.Reader) (SeedResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return SeedResult{}, fmt.Errorf("read users csv header: %w", err)
	}
	columns := indexColumns(header)
	if _, ok := columns["email"]; !ok {
		return SeedResult{}, ErrSeedHeader
	}
	if _, ok := columns["password"]; !ok {
		return SeedResult{}, ErrSeedHeader
	}

	var result SeedResult
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return result, fmt.Errorf("read users csv line %d: %w", line, err)
		}

		user, password := userFromRecord(record, columns)
		if user.Email == "" || password == "" {
			s.logger.Warn().Int("line", line).Msg("skipping user row without email or password")
			observability.UsersImported().WithLabelValues("skipped").Inc()
			result.Skipped++
			continue
		}

		hash, err := HashPassword(password, s.cost)
		if err != nil {
			return result, fmt.Errorf("hash password on line %d: %w", line, err)
		}
		user.PasswordHash = hash

		created, err := s.users.CreateIfAbsent(ctx, &user)
		if err != nil {
			return result, fmt.Errorf("insert user on line %d: %w", line, err)
		}
		if created {
			observability.UsersImported().WithLabelValues("inserted").Inc()
			result.Inserted++
		} else {
			observability.UsersImported().WithLabelValues("existing").Inc()
			result.Existing++
		}
	}

	s.logger.Info().
		Int("inserted", result.Inserted).
		Int("existing", result.Existing).
		Int("skipped", result.Skipped).
		Msg("users seeded")
	return result, nil
}

func indexColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[name] = i
	}
	return columns
}

func userFromRecord(record []string, columns map[string]int) (models.User, string) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	user := models.User{
		FirstName: field("first_name"),
		LastName:  field("last_name"),
		Email:     field("email"),
	}
	return user, field("password")
}
