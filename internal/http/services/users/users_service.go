// Package users contiene el servicio de gestión de usuarios de un tenant.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/tenantadmin/internal/domain/repository"
	dto "github.com/dropDatabas3/tenantadmin/internal/http/dto/users"
	"github.com/dropDatabas3/tenantadmin/internal/observability/logger"
	"github.com/dropDatabas3/tenantadmin/internal/security/password"
	"github.com/dropDatabas3/tenantadmin/internal/store"
	"github.com/dropDatabas3/tenantadmin/internal/validation"
	"github.com/google/uuid"
)

// Service maneja el CRUD de usuarios dentro de un tenant.
type Service interface {
	Create(ctx context.Context, tenantID string, req dto.UserDTO) (*repository.User, error)
	Get(ctx context.Context, tenantID, userID string) (*repository.User, error)
	// List pagina por email. take <= 0 usa repository.DefaultTake.
	List(ctx context.Context, tenantID string, skip, take int) ([]*repository.User, error)
	Update(ctx context.Context, tenantID, userID string, req dto.UserUpdateDTO) (*repository.User, error)
	Delete(ctx context.Context, tenantID, userID string) error
}

// Deps contiene las dependencias del service.
type Deps struct {
	Provider store.Provider
	Repo     repository.UserRepository
	Hasher   password.Hasher
	Policy   password.Policy
	MaxTake  int // tope de take en List; 0 = sin tope
}

type service struct {
	deps Deps
}

// New crea el servicio. Hasher nil usa argon2id con parámetros por defecto y
// una Policy vacía toma DefaultPolicy.
func New(deps Deps) Service {
	if deps.Hasher == nil {
		deps.Hasher = password.NewArgon2id(password.Default)
	}
	if deps.Policy == (password.Policy{}) {
		deps.Policy = password.DefaultPolicy
	}
	return &service{deps: deps}
}

// Errores del servicio
var (
	ErrInvalidInput   = errors.New("invalid user input")
	ErrNotFound       = errors.New("user not found")
	ErrEmailDuplicate = errors.New("email already exists")
)

func (s *service) Create(ctx context.Context, tenantID string, req dto.UserDTO) (*repository.User, error) {
	log := logger.From(ctx)

	// 1. Validación básica
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if err := s.deps.Policy.Check(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	roles, err := validation.NormalizeRoles(req.Roles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if roles == "" {
		roles = repository.RoleUser
	}

	// 2. Hash
	hash, err := s.deps.Hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &repository.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Roles:        roles,
		TenantID:     tenantID,
	}

	// 3. Unicidad de email + alta en la misma transacción
	create := func(ctx context.Context) error {
		taken, err := s.emailTaken(ctx, tenantID, email, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailDuplicate
		}
		return s.deps.Repo.Create(ctx, tenantID, u)
	}
	err = store.RunInTransaction(ctx, s.deps.Provider, create)
	if repository.IsConcurrencyConflict(err) && store.ScopeFrom(ctx) == nil {
		// Otra alta del tenant confirmó en el medio: se revalida el email una vez.
		log.Debug("user create raced, retrying", logger.TenantID(tenantID), logger.Err(err))
		err = store.RunInTransaction(ctx, s.deps.Provider, create)
	}
	if err != nil {
		return nil, s.mapErr(err)
	}

	log.Info("user created", logger.TenantID(tenantID), logger.UserID(u.ID), logger.Email(u.Email))
	return u, nil
}

func (s *service) Get(ctx context.Context, tenantID, userID string) (*repository.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	u, found, err := s.deps.Repo.TryGet(ctx, tenantID, userID, nil)
	if err != nil {
		return nil, s.mapErr(err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *service) List(ctx context.Context, tenantID string, skip, take int) ([]*repository.User, error) {
	if take <= 0 {
		take = repository.DefaultTake
	}
	if s.deps.MaxTake > 0 && take > s.deps.MaxTake {
		take = s.deps.MaxTake
	}
	opts, err := repository.NewOptionsBuilder[*repository.User, string]().
		WithOrderBy(func(a, b *repository.User) int { return strings.Compare(a.Email, b.Email) }).
		WithSkip(skip).
		WithTake(take).
		Build()
	if err != nil {
		return nil, s.mapErr(err)
	}
	out, err := s.deps.Repo.List(ctx, tenantID, &opts)
	if err != nil {
		return nil, s.mapErr(err)
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, tenantID, userID string, req dto.UserUpdateDTO) (*repository.User, error) {
	log := logger.From(ctx)

	var hash string
	if req.Password != "" {
		if err := s.deps.Policy.Check(req.Password); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		h, err := s.deps.Hasher.Hash(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}
	email := normalizeEmail(req.Email)
	roles, err := validation.NormalizeRoles(req.Roles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var out *repository.User
	err = store.RunInTransaction(ctx, s.deps.Provider, func(ctx context.Context) error {
		opts := repository.NewOptionsBuilder[*repository.User, string]().WithAsTracking(true).MustBuild()
		u, found, err := s.deps.Repo.TryGet(ctx, tenantID, userID, &opts)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}

		if email != "" && email != u.Email {
			taken, err := s.emailTaken(ctx, tenantID, email, u.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrEmailDuplicate
			}
			u.Email = email
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		if roles != "" {
			u.Roles = roles
		}
		out = u
		return s.deps.Repo.Update(ctx, tenantID, u)
	})
	if err != nil {
		return nil, s.mapErr(err)
	}

	log.Info("user updated", logger.TenantID(tenantID), logger.UserID(userID))
	return out, nil
}

func (s *service) Delete(ctx context.Context, tenantID, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if err := s.deps.Repo.Delete(ctx, tenantID, userID); err != nil {
		return s.mapErr(err)
	}
	return nil
}

// emailTaken busca otro usuario del tenant con el mismo email.
func (s *service) emailTaken(ctx context.Context, tenantID, email, exceptID string) (bool, error) {
	opts := repository.NewOptionsBuilder[*repository.User, string]().
		WithFilter(func(u *repository.User) bool {
			return u.ID != exceptID && strings.EqualFold(u.Email, email)
		}).
		WithTake(1).
		MustBuild()
	found, err := s.deps.Repo.List(ctx, tenantID, &opts)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (s *service) mapErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmailDuplicate), errors.Is(err, ErrInvalidInput):
		return err
	case repository.IsDuplicateKey(err):
		// índice único de email en Postgres
		return fmt.Errorf("%w: %v", ErrEmailDuplicate, err)
	case repository.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case repository.IsInvalidInput(err):
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		return err
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ToResponse mapea la entidad a su DTO público.
func ToResponse(u *repository.User) dto.UserResponse {
	return dto.UserResponse{UserID: u.ID, Email: u.Email, Roles: u.Roles, TenantID: u.TenantID}
}
