package service

import (
	"errors"
	"fmt"

	"github.com/d60-Lab/yblog/internal/repository"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateKey         = errors.New("already exists")
	ErrFollowSelf           = errors.New("cannot follow self")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrMediaTooLarge        = errors.New("media too large")
	ErrReferentialIntegrity = errors.New("referenced record does not exist")
	ErrStorageFailure       = errors.New("blob storage failure")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConstraintViolation  = errors.New("constraint violated")
)

// Outcome 操作的正常结果；除 Done 以外都表示“目标状态已成立”，不是错误
type Outcome int

const (
	Done Outcome = iota
	AlreadyFollowing
	NotFollowing
	AlreadyLiked
	NoLikeToRemove
)

func (o Outcome) OK() bool { return o == Done }

func (o Outcome) Message() string {
	switch o {
	case AlreadyFollowing:
		return "You already follow this user!"
	case NotFollowing:
		return "You are not following this user yet!"
	case AlreadyLiked:
		return "You have already liked this tweet!"
	case NoLikeToRemove:
		return "This tweet doesn't have your like!"
	default:
		return ""
	}
}

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case AlreadyFollowing:
		return "already_following"
	case NotFollowing:
		return "not_following"
	case AlreadyLiked:
		return "already_liked"
	case NoLikeToRemove:
		return "no_like_to_remove"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// errOutcome 在事务回调里携带非错误结果，使事务回滚后仍能返回 Outcome
type errOutcome struct{ outcome Outcome }

func (e errOutcome) Error() string { return e.outcome.String() }

func asOutcome(err error) (Outcome, bool) {
	var eo errOutcome
	if errors.As(err, &eo) {
		return eo.outcome, true
	}
	return Done, false
}

// translate 把仓储层约束错误映射到对外错误分类
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, repository.ErrUniqueViolation):
		return fmt.Errorf("%s: %w", what, ErrDuplicateKey)
	case errors.Is(err, repository.ErrForeignKeyViolation):
		return fmt.Errorf("%s: %w", what, ErrReferentialIntegrity)
	case errors.Is(err, repository.ErrCheckViolation):
		return fmt.Errorf("%s: %w", what, ErrConstraintViolation)
	}
	return fmt.Errorf("%s: %w", what, err)
}
