package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/entity"
	"github.com/bitfantasy/nimo-mfg/internal/mfg/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const birthDateLayout = "2006-01-02"

type UserService struct {
	base
	cost int
}

// CreateUserRequest 创建用户请求
type CreateUserRequest struct {
	Name      string  `json:"name" binding:"required,max=128"`
	Email     string  `json:"email" binding:"required,email,max=255"`
	Password  string  `json:"password" binding:"required,max=72"`
	Role      string  `json:"role" binding:"required,max=32"`
	Position  *string `json:"position" binding:"omitempty,max=64"`
	Address   string  `json:"address" binding:"omitempty,max=500"`
	BirthDate string  `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateUserRequest 更新用户请求，未提供的字段保持不变
type UpdateUserRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=128"`
	Email     *string `json:"email" binding:"omitempty,email,max=255"`
	Password  *string `json:"password" binding:"omitempty,min=1,max=72"`
	Role      *string `json:"role" binding:"omitempty,min=1,max=32"`
	Position  *string `json:"position" binding:"omitempty,max=64"`
	Address   *string `json:"address" binding:"omitempty,max=500"`
	BirthDate *string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
}

func (s *UserService) List(ctx context.Context) ([]entity.User, error) {
	return s.repos.User.List(ctx)
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	return s.repos.User.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*entity.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	verr := &ValidationError{}
	if name == "" {
		verr.add("name", "must not be empty")
	}
	if strings.TrimSpace(req.Role) == "" {
		verr.add("role", "must not be empty")
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		verr.add("birth_date", "must be a date in YYYY-MM-DD format")
	}
	if len(req.Password) > maxPasswordBytes {
		verr.add("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, email, name, ""); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Password:  hash,
		Role:      strings.TrimSpace(req.Role),
		Position:  req.Position,
		Address:   req.Address,
		BirthDate: birthDate,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*entity.User, error) {
	user, err := s.repos.User.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalid("name", "must not be empty")
		}
		user.Name = name
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Name != nil || req.Email != nil {
		if err := s.ensureUnique(ctx, user.Email, user.Name, user.ID); err != nil {
			return nil, err
		}
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}
	if req.Role != nil {
		user.Role = strings.TrimSpace(*req.Role)
	}
	if req.Position != nil {
		user.Position = req.Position
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.BirthDate != nil {
		birthDate, err := parseBirthDate(*req.BirthDate)
		if err != nil {
			return nil, invalid("birth_date", "must be a date in YYYY-MM-DD format")
		}
		user.BirthDate = birthDate
	}

	if err := s.repos.User.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete 删除用户，仍有关联生产批次时拒绝
func (s *UserService) Delete(ctx context.Context, id string) (*entity.User, error) {
	var deleted *entity.User
	err := s.inTx(ctx, func(r *repository.Repositories) error {
		user, err := r.User.FindByID(ctx, id)
		if err != nil {
			return err
		}
		n, err := r.Production.CountByUserID(ctx, id)
		if err != nil {
			return fmt.Errorf("count productions: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: user owns %d production(s)", ErrConflict, n)
		}
		if err := r.User.Delete(ctx, id); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	return deleted, err
}

func (s *UserService) hashPassword(plain string) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", invalid("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword 校验明文密码
func VerifyPassword(user *entity.User, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plain)) == nil
}

func (s *UserService) ensureUnique(ctx context.Context, email, name, excludeID string) error {
	_, err := s.repos.User.FindConflicting(ctx, email, name, excludeID)
	switch {
	case err == nil:
		return ErrDuplicateUser
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check user uniqueness: %w", err)
	}
}

func parseBirthDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(birthDateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
