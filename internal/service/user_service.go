package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/yblog/internal/cache"
	"github.com/d60-Lab/yblog/internal/model"
	"github.com/d60-Lab/yblog/internal/repository"
	"github.com/d60-Lab/yblog/pkg/logger"
)

var validate = validator.New()

type newUser struct {
	Name     string `validate:"required,min=2,max=30"`
	Nickname string `validate:"required,min=2,max=15"`
	Email    string `validate:"required,email,max=255"`
	Token    string `validate:"required,max=255"`
}

// UserService 身份存储：注册与凭证查找
type UserService interface {
	Create(ctx context.Context, name, nickname, email, token string) (int64, error)
	ResolveByToken(ctx context.Context, token string) (int64, error)
	ResolveByID(ctx context.Context, userID int64) (*ProfileView, error)
}

type userService struct {
	db        *gorm.DB
	userRepo  repository.UserRepository
	relations RelationshipService
	cache     Cache
}

func NewUserService(db *gorm.DB, userRepo repository.UserRepository, relations RelationshipService, c Cache) UserService {
	if c == nil {
		c = noCache{}
	}
	return &userService{db: db, userRepo: userRepo, relations: relations, cache: c}
}

func (s *userService) Create(ctx context.Context, name, nickname, email, token string) (int64, error) {
	in := newUser{Name: name, Nickname: nickname, Email: email, Token: token}
	if err := validate.Struct(in); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	u := &model.User{Name: name, Nickname: nickname, Email: email, Token: token}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.userRepo.WithTx(tx).Create(ctx, u)
	})
	if err != nil {
		return 0, translate(err, "create user")
	}
	logger.Info("user created", zap.Int64("user_id", u.ID), zap.String("nickname", u.Nickname))
	return u.ID, nil
}

// ResolveByToken 用户创建后不可变，因此 token -> id 的缓存永不过期失效
func (s *userService) ResolveByToken(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, fmt.Errorf("empty token: %w", ErrNotFound)
	}
	var id int64
	if s.cache.GetJSON(ctx, cache.TokenKey(token), &id) {
		return id, nil
	}

	u, err := s.userRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return 0, fmt.Errorf("token: %w", ErrNotFound)
		}
		return 0, err
	}
	s.cache.SetJSON(ctx, cache.TokenKey(token), u.ID)
	return u.ID, nil
}

func (s *userService) ResolveByID(ctx context.Context, userID int64) (*ProfileView, error) {
	return s.relations.ProfileView(ctx, userID)
}
