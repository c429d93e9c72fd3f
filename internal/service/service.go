// Package service реализует бизнес-логику сервиса заказов ресторана.
package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/astren/internal/cart"
	"github.com/mmeshcher/astren/internal/catalogfeed"
	"github.com/mmeshcher/astren/internal/deal"
	"github.com/mmeshcher/astren/internal/model"
	"github.com/mmeshcher/astren/internal/notify"
	"github.com/mmeshcher/astren/internal/repository"
	"github.com/mmeshcher/astren/internal/validation"
)

const minPasswordLength = 6

var (
	// ErrInvalidCredentials возвращается при неверной паре телефон/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidPhone возвращается, если номер телефона не проходит проверку.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrWeakPassword возвращается, если пароль слишком короткий.
	ErrWeakPassword = errors.New("password is too short")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, phone, email string, passwordHash []byte, role model.Role) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListMenuItems(ctx context.Context) ([]model.MenuItem, error)
	ListDeals(ctx context.Context) ([]model.Deal, error)
	UpsertMenuItems(ctx context.Context, items []model.MenuItem) error
	UpsertDeals(ctx context.Context, deals []model.Deal) error
	SetDealActive(ctx context.Context, id string, active bool) error
	GetPromoCodeByCode(ctx context.Context, code string) (*model.PromoCode, error)
	ListPromoCodes(ctx context.Context) ([]model.PromoCode, error)
	CreatePromoCode(ctx context.Context, p model.PromoCode) error
	UpdatePromoCode(ctx context.Context, p model.PromoCode) error
	DeletePromoCode(ctx context.Context, id string) error
	CreateOrder(ctx context.Context, o model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) error
	DeliverOrder(ctx context.Context, entry model.LoyaltyLogEntry) (bool, error)
	ListLoyaltyLog(ctx context.Context) ([]model.LoyaltyLogEntry, error)
}

// Feed описывает удалённый источник документов каталога.
type Feed interface {
	Configured() bool
	FetchMenuItems(ctx context.Context) (catalogfeed.Result[model.MenuItem], error)
	FetchDeals(ctx context.Context) (catalogfeed.Result[model.Deal], error)
}

// Service содержит бизнес-логику сервиса заказов.
type Service struct {
	repo   Repository
	feed   Feed
	gate   deal.Gate
	logger *zap.Logger

	catalogMu sync.RWMutex
	menu      []model.MenuItem
	deals     []model.Deal

	board  *deal.Board
	carts  *cart.Store
	toasts *notify.Center

	sessionsMu sync.Mutex
	sessions   map[int64]*deal.Session

	now   func() time.Time
	newID func() string
}

// NewService создаёт сервис. feed может быть nil, тогда каталог берётся только из БД.
func NewService(repo Repository, feed Feed, gate deal.Gate, refresh time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gate == nil {
		gate = deal.FlagGate{}
	}

	s := &Service{
		repo:     repo,
		feed:     feed,
		gate:     gate,
		logger:   logger,
		carts:    cart.NewStore(),
		toasts:   notify.NewCenter(logger),
		sessions: make(map[int64]*deal.Session),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	s.board = deal.NewBoard(gate, s, refresh)

	return s
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует пользователя по номеру телефона.
// Номер администратора получает роль администратора.
func (s *Service) RegisterUser(ctx context.Context, phone, password string) (*model.User, error) {
	if !validation.IsValidPhone(phone) {
		return nil, ErrInvalidPhone
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	email := validation.SyntheticEmail(phone)
	role := model.RoleUser
	if validation.IsAdminPhone(phone) {
		role = model.RoleAdmin
	}

	normalized := validation.Digits(phone)
	id, err := s.repo.CreateUser(ctx, normalized, email, hashPassword(email, password), role)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, repository.ErrUserExists
		}
		return nil, err
	}

	return &model.User{ID: id, Phone: normalized, Email: email, Role: role}, nil
}

// AuthenticateUser проверяет телефон и пароль и возвращает пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, phone, password string) (*model.User, error) {
	if !validation.IsValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	email := validation.SyntheticEmail(phone)
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare(hashPassword(email, password), u.PasswordHash) != 1 {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Profile возвращает пользователя с актуальным балансом баллов.
func (s *Service) Profile(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return u, nil
}

// ListUsers возвращает пользователей с балансом баллов для администратора.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}
