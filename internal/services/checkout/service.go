package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"robux-topup-backend/internal/apperrors"
	"robux-topup-backend/internal/models"
	"robux-topup-backend/internal/repository"
	"robux-topup-backend/internal/services/matching"
	"robux-topup-backend/internal/tripay"
	"robux-topup-backend/pkg/log"
)

const (
	MinRobux = 100
	MaxRobux = 100000
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

type Store interface {
	FindOrCreateUser(ctx context.Context, username, email string) (*models.User, error)
	Create(ctx context.Context, tx *models.Transaction) error
	AttachCheckout(ctx context.Context, id uint, merchantRef, checkoutURL string) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
}

type Gateway interface {
	CreateTransaction(ctx context.Context, req tripay.CreateTransactionRequest) (*tripay.TransactionData, error)
}

type Config struct {
	PricePerRobux decimal.Decimal
	CallbackURL   string
	ReturnURL     string
	Expiry        time.Duration
}

type Service struct {
	store   Store
	gateway Gateway
	cfg     Config
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewService(store Store, gateway Gateway, cfg Config) *Service {
	l := log.GetLogger()
	return &Service{store: store, gateway: gateway, cfg: cfg, logger: &l, now: time.Now}
}

type OrderRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	RobuxAmount   int    `json:"robux_amount"`
	PaymentMethod string `json:"payment_method"`
}

func (r *OrderRequest) normalize() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.PaymentMethod = strings.ToUpper(strings.TrimSpace(r.PaymentMethod))

	if !usernamePattern.MatchString(r.Username) {
		return apperrors.NewValidationError("username must be 3-20 letters, digits or underscores", nil)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return apperrors.NewValidationError("invalid email", err)
	}
	if r.RobuxAmount < MinRobux || r.RobuxAmount > MaxRobux {
		return apperrors.NewValidationError(fmt.Sprintf("robux amount must be between %d and %d", MinRobux, MaxRobux), nil)
	}
	if r.PaymentMethod == "" {
		return apperrors.NewValidationError("payment method is required", nil)
	}
	return nil
}

// Price is amount * price per robux, rounded to whole rupiah.
func (s *Service) Price(robux int) decimal.Decimal {
	return s.cfg.PricePerRobux.Mul(decimal.NewFromInt(int64(robux))).Round(0)
}

// CreateOrder records a pending transaction and opens the matching payment at
// the gateway. The stored merchant reference is the one callbacks will carry.
func (s *Service) CreateOrder(ctx context.Context, req OrderRequest) (*models.Transaction, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	user, err := s.store.FindOrCreateUser(ctx, req.Username, req.Email)
	if err != nil {
		return nil, apperrors.NewStoreError("user", err)
	}

	price := s.Price(req.RobuxAmount)
	tx := &models.Transaction{
		UserID:        user.ID,
		RobuxAmount:   req.RobuxAmount,
		Price:         price,
		PaymentMethod: req.PaymentMethod,
		Status:        models.StatusPending,
	}
	if err := s.store.Create(ctx, tx); err != nil {
		return nil, apperrors.NewStoreError("create", err)
	}

	now := s.now()
	merchantRef := matching.BuildMerchantRef(tx.ID, now)
	gatewayReq := tripay.CreateTransactionRequest{
		Method:        req.PaymentMethod,
		MerchantRef:   merchantRef,
		Amount:        price.IntPart(),
		CustomerName:  user.Username,
		CustomerEmail: user.Email,
		OrderItems: []tripay.OrderItem{{
			SKU:      fmt.Sprintf("ROBUX-%d", req.RobuxAmount),
			Name:     fmt.Sprintf("%d Robux", req.RobuxAmount),
			Price:    price.IntPart(),
			Quantity: 1,
		}},
		CallbackURL: s.cfg.CallbackURL,
		ReturnURL:   s.cfg.ReturnURL,
	}
	if s.cfg.Expiry > 0 {
		gatewayReq.ExpiredTime = now.Add(s.cfg.Expiry).Unix()
	}

	payment, err := s.gateway.CreateTransaction(ctx, gatewayReq)
	if err != nil {
		s.logger.Error().Err(err).Uint("transaction_id", tx.ID).Str("merchant_ref", merchantRef).Msg("gateway rejected payment")
		return nil, apperrors.NewUpstreamError("tripay", err)
	}

	if err := s.store.AttachCheckout(ctx, tx.ID, merchantRef, payment.CheckoutURL); err != nil {
		return nil, apperrors.NewStoreError("attach checkout", err)
	}

	s.logger.Info().
		Uint("transaction_id", tx.ID).
		Str("merchant_ref", merchantRef).
		Str("gateway_reference", payment.Reference).
		Str("price", price.String()).
		Msg("order created")

	return s.GetOrder(ctx, tx.ID)
}

func (s *Service) GetOrder(ctx context.Context, id uint) (*models.Transaction, error) {
	tx, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, apperrors.NewNotFoundError("transaction", id)
	}
	if err != nil {
		return nil, apperrors.NewStoreError("find", err)
	}
	return tx, nil
}
