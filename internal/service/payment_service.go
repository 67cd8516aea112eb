// FILE: internal/service/payment_service.go
// PURPOSE: Midtrans checkout that clears the session gate of a surface

package service

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"hana-assistant-be/internal/config"
	"hana-assistant-be/internal/dto"
	"hana-assistant-be/internal/pkg/logger"
	"hana-assistant-be/pkg/assistant"
	"hana-assistant-be/pkg/events"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/patrickmn/go-cache"
)

var (
	ErrPaymentDisabled  = errors.New("payment is not enabled")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidOrder     = errors.New("invalid order id")
)

const paymentModule = "PAYMENT"

// SnapClient is the part of the Midtrans Snap client the service calls.
type SnapClient interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type IPaymentService interface {
	Checkout(ctx context.Context, userID string, surfaceID uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
}

type orderState struct {
	surfaceID uuid.UUID
	amount    int64
	settled   bool
}

type paymentService struct {
	mu        sync.Mutex
	cfg       config.PaymentConfig
	snap      SnapClient
	assistant IAssistantService
	events    events.Publisher
	orders    *cache.Cache
	logger    logger.ILogger
}

func NewSnapClient(cfg config.PaymentConfig) SnapClient {
	var sClient snap.Client
	env := midtrans.Sandbox
	if cfg.IsProduction {
		env = midtrans.Production
	}
	sClient.New(cfg.ServerKey, env)
	return &sClient
}

func NewPaymentService(
	cfg config.PaymentConfig,
	snapClient SnapClient,
	assistantService IAssistantService,
	eventPublisher events.Publisher,
	log logger.ILogger,
) IPaymentService {
	return &paymentService{
		cfg:       cfg,
		snap:      snapClient,
		assistant: assistantService,
		events:    eventPublisher,
		orders:    cache.New(cfg.OrderTTL, 10*time.Minute),
		logger:    log,
	}
}

// Checkout opens a Snap transaction for the paid period of a gated surface.
func (s *paymentService) Checkout(ctx context.Context, userID string, surfaceID uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if !s.cfg.Required {
		return nil, ErrPaymentDisabled
	}

	res, err := s.assistant.Snapshot(ctx, userID, surfaceID)
	if err != nil {
		return nil, err
	}
	if !res.Surface.Lifecycle.IsGateActive() {
		return nil, assistant.ErrGateNotActive
	}

	orderID := NewOrderID(surfaceID, res.Surface.Gate, time.Now())

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: s.cfg.Price,
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		Callbacks: &snap.Callbacks{
			Finish: s.cfg.FinishURL,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.FirstName,
			LName: req.LastName,
			Email: req.Email,
			Phone: req.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    "hana-session",
				Price: s.cfg.Price,
				Qty:   1,
				Name:  s.cfg.ItemName,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := s.snap.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("midtrans error: %v", midErr.GetMessage())
	}

	s.orders.Set(orderID, &orderState{surfaceID: surfaceID, amount: s.cfg.Price}, cache.DefaultExpiration)
	s.logger.Info(paymentModule, "Checkout created", map[string]interface{}{"order_id": orderID, "surface_id": surfaceID})

	return &dto.CheckoutResponse{
		OrderId:         orderID,
		SurfaceId:       surfaceID,
		GrossAmount:     s.cfg.Price,
		SnapToken:       snapResp.Token,
		SnapRedirectUrl: snapResp.RedirectURL,
	}, nil
}

func (s *paymentService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	if s.cfg.ServerKey == "" {
		s.logger.Error(paymentModule, "MIDTRANS_SERVER_KEY not configured", nil)
		return fmt.Errorf("server configuration error")
	}

	if req.SignatureKey != Signature(req.OrderId, req.StatusCode, req.GrossAmount, s.cfg.ServerKey) {
		s.logger.Warn(paymentModule, "Signature mismatch", map[string]interface{}{"order_id": req.OrderId})
		return ErrInvalidSignature
	}

	surfaceID, gate, err := ParseOrderID(req.OrderId)
	if err != nil {
		return err
	}

	var order *orderState
	if v, ok := s.orders.Get(req.OrderId); ok {
		order = v.(*orderState)
	}

	switch req.TransactionStatus {
	case "capture", "settlement":
		if req.FraudStatus != "" && req.FraudStatus != "accept" {
			s.logger.Warn(paymentModule, "Payment flagged by fraud check", map[string]interface{}{"order_id": req.OrderId, "fraud_status": req.FraudStatus})
			return nil
		}
	case "deny", "cancel", "expire", "failure":
		s.orders.Delete(req.OrderId)
		s.logger.Info(paymentModule, "Payment failed", map[string]interface{}{"order_id": req.OrderId, "status": req.TransactionStatus})
		return nil
	default:
		s.logger.Debug(paymentModule, "No action for status", map[string]interface{}{"order_id": req.OrderId, "status": req.TransactionStatus})
		return nil
	}

	if order != nil {
		s.mu.Lock()
		settled := order.settled
		order.settled = true
		s.mu.Unlock()
		if settled {
			return nil
		}
		if gross, err := strconv.ParseFloat(req.GrossAmount, 64); err == nil && int64(gross) != order.amount {
			s.logger.Warn(paymentModule, "Gross amount differs from checkout", map[string]interface{}{"order_id": req.OrderId, "gross_amount": req.GrossAmount})
		}
	}

	err = s.assistant.ClearGate(ctx, surfaceID, gate)
	switch {
	case err == nil:
		s.logger.Info(paymentModule, "Gate cleared", map[string]interface{}{"order_id": req.OrderId, "surface_id": surfaceID})
	case errors.Is(err, ErrSurfaceNotFound):
		s.logger.Info(paymentModule, "Surface not on this instance, relaying payment", map[string]interface{}{"surface_id": surfaceID})
	case errors.Is(err, assistant.ErrGateNotActive), errors.Is(err, assistant.ErrClosed), errors.Is(err, assistant.ErrStaleGate):
		s.logger.Info(paymentModule, "Payment for a gate that is no longer open", map[string]interface{}{"order_id": req.OrderId, "surface_id": surfaceID, "error": err.Error()})
		return nil
	default:
		return err
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, events.PaymentSettled(surfaceID.String(), req.OrderId, time.Now())); err != nil {
			s.logger.Warn(paymentModule, "Failed to publish PAYMENT_SETTLED event", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Signature is Midtrans' notification signature:
// SHA512(order_id + status_code + gross_amount + server_key).
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	return fmt.Sprintf("%x", sha512.Sum512([]byte(orderID+statusCode+grossAmount+serverKey)))
}

// NewOrderID embeds the surface, so any instance can route the
// notification, and the gate the order pays for. The base-36 timestamp keeps
// the id within Midtrans' 50 character limit.
func NewOrderID(surfaceID uuid.UUID, gate uint64, now time.Time) string {
	return fmt.Sprintf("%s-%d-%s", surfaceID, gate, strconv.FormatInt(now.Unix(), 36))
}

func ParseOrderID(orderID string) (uuid.UUID, uint64, error) {
	if len(orderID) < 37 || orderID[36] != '-' {
		return uuid.Nil, 0, ErrInvalidOrder
	}
	id, err := uuid.Parse(orderID[:36])
	if err != nil {
		return uuid.Nil, 0, ErrInvalidOrder
	}

	parts := strings.Split(orderID[37:], "-")
	if len(parts) != 2 || parts[1] == "" {
		return uuid.Nil, 0, ErrInvalidOrder
	}
	gate, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || gate == 0 {
		return uuid.Nil, 0, ErrInvalidOrder
	}
	return id, gate, nil
}
