package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bnpl_backend_echo/internal/models"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// SettlementPaymentService opens gateway checkout sessions for
// settlement quotes and turns gateway notifications into ledger
// payments.
type SettlementPaymentService struct {
	db             *gorm.DB
	midtransClient *MidtransService
	allocation     *AllocationService
}

func NewSettlementPaymentService(db *gorm.DB, midtransClient *MidtransService, allocation *AllocationService) *SettlementPaymentService {
	return &SettlementPaymentService{
		db:             db,
		midtransClient: midtransClient,
		allocation:     allocation,
	}
}

// CheckActiveSession checks if there is an active session for the given
// settlement snapshot. Returns the session if active, otherwise nil.
func (s *SettlementPaymentService) CheckActiveSession(snapshotID uint) (*models.PaymentSession, error) {
	var existingSession models.PaymentSession
	err := s.db.Where("settlement_snapshot_id = ? AND is_active = ?", snapshotID, true).
		Order("created_at desc").First(&existingSession).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No active session
		}
		return nil, err
	}
	return &existingSession, nil
}

// deactivateSession closes a payment session. A failed write surfaces
// as an error so a dead session can never keep looking active.
func (s *SettlementPaymentService) deactivateSession(ctx context.Context, session *models.PaymentSession) error {
	session.IsActive = false
	if err := s.db.WithContext(ctx).Save(session).Error; err != nil {
		return fmt.Errorf("deactivate payment session %d: %w", session.ID, err)
	}
	return nil
}

// InitiatePaymentResult holds the result of an initiation attempt
type InitiatePaymentResult struct {
	Token       string
	RedirectURL string
	IsExisting  bool
}

// InitiatePayment starts or resumes a gateway checkout for the quote's
// total payable.
func (s *SettlementPaymentService) InitiatePayment(ctx context.Context, snapshot *models.SettlementSnapshot, forceNew bool, callbackURL string) (*InitiatePaymentResult, error) {
	if snapshot.Status != models.SettlementSnapshotStatusActive || !snapshot.IsLatest {
		return nil, fmt.Errorf("snapshot %s is no longer the current quote: %w", snapshot.Reference, ErrSnapshotNotFound)
	}
	if !snapshot.TotalPayable.IsPositive() {
		return nil, ErrInvalidAmount
	}

	// 1. Check for existing active session
	existingSession, err := s.CheckActiveSession(snapshot.ID)
	if err != nil {
		return nil, err
	}

	if existingSession != nil {
		statusResp, err := s.midtransClient.CheckTransaction(existingSession.GatewayOrderID)
		if err == nil {
			switch statusResp.TransactionStatus {
			case "settlement", "capture":
				return nil, fmt.Errorf("settlement %s already paid", snapshot.Reference)
			case "deny", "expire", "cancel", "failure":
				// Dead at the gateway, drop the local session and
				// create a new one.
				if err := s.deactivateSession(ctx, existingSession); err != nil {
					return nil, err
				}
			default:
				// Still pending at the gateway
				if forceNew {
					_ = s.midtransClient.CancelTransaction(existingSession.GatewayOrderID)
					if err := s.deactivateSession(ctx, existingSession); err != nil {
						return nil, err
					}
				} else {
					var midtransResp snap.Response
					if err := json.Unmarshal(existingSession.ResponseMetadata, &midtransResp); err == nil {
						return &InitiatePaymentResult{
							Token:       midtransResp.Token,
							RedirectURL: midtransResp.RedirectURL,
							IsExisting:  true,
						}, nil
					}
					// Broken metadata, treat the session as dead
					if err := s.deactivateSession(ctx, existingSession); err != nil {
						return nil, err
					}
				}
			}
		} else {
			// Status check failed, assume the session is broken locally
			if err := s.deactivateSession(ctx, existingSession); err != nil {
				return nil, err
			}
		}
	}

	plan, err := loadPlan(s.db.WithContext(ctx), snapshot.PlanID)
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, plan.OrderID).Error; err != nil {
		return nil, err
	}

	ledger, err := unsettledInstallments(s.db.WithContext(ctx), plan.ID)
	if err != nil {
		return nil, err
	}
	if len(ledger) == 0 {
		return nil, fmt.Errorf("plan %d: %w", plan.ID, ErrEmptyLedger)
	}

	// 2. Create new gateway transaction
	gatewayOrderID := fmt.Sprintf("settlement-%d-%d", snapshot.ID, time.Now().Unix())
	grossAmount := snapshot.TotalPayable.Round(0).IntPart()

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  gatewayOrderID,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: order.CustomerName,
			Email: order.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    fmt.Sprintf("plan-%d", plan.ID),
				Name:  fmt.Sprintf("Settlement %s", snapshot.Reference),
				Price: grossAmount,
				Qty:   1,
			},
		},
		Callbacks: &snap.Callbacks{
			Finish: callbackURL,
		},
	}

	resp, err := s.midtransClient.CreateTransaction(gatewayOrderID, grossAmount, req)
	if err != nil {
		return nil, err
	}

	// 3. Create session record
	reqBytes, _ := json.Marshal(req)
	respBytes, _ := json.Marshal(resp)

	session := models.PaymentSession{
		PlanID:               plan.ID,
		SettlementSnapshotID: snapshot.ID,
		InstallmentID:        ledger[0].ID,
		PaymentGateway:       models.PaymentGatewayMidtrans,
		GatewayOrderID:       gatewayOrderID,
		IsActive:             true,
		RequestMetadata:      reqBytes,
		ResponseMetadata:     respBytes,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}

	return &InitiatePaymentResult{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		IsExisting:  false,
	}, nil
}

// HandleNotification processes a gateway webhook. The raw payload is
// recorded first so a failed allocation can be replayed later; a
// settled transaction is pushed through the payment waterfall starting
// at the session's target installment.
func (s *SettlementPaymentService) HandleNotification(ctx context.Context, payload map[string]interface{}) error {
	raw, _ := json.Marshal(payload)
	gatewayOrderID, _ := payload["order_id"].(string)

	history := models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayMidtrans,
		GatewayOrderID: gatewayOrderID,
		Metadata:       raw,
	}
	if err := s.db.WithContext(ctx).Create(&history).Error; err != nil {
		return err
	}

	if gatewayOrderID == "" {
		return fmt.Errorf("notification missing order_id")
	}

	// Never trust the pushed status, ask the gateway
	statusResp, err := s.midtransClient.CheckTransaction(gatewayOrderID)
	if err != nil {
		return err
	}

	var session models.PaymentSession
	if err := s.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no payment session for gateway order %s", gatewayOrderID)
		}
		return err
	}

	switch statusResp.TransactionStatus {
	case "settlement", "capture":
		amount, err := decimal.NewFromString(statusResp.GrossAmount)
		if err != nil {
			return fmt.Errorf("bad gross amount %q: %w", statusResp.GrossAmount, err)
		}

		if _, err := s.allocation.ApplyPayment(ctx, session.InstallmentID, amount); err != nil {
			return err
		}

		if err := s.deactivateSession(ctx, &session); err != nil {
			return err
		}
		log.Printf("Gateway payment %s applied to plan %d", gatewayOrderID, session.PlanID)

	case "deny", "expire", "cancel", "failure":
		if err := s.deactivateSession(ctx, &session); err != nil {
			return err
		}
		log.Printf("Gateway payment %s closed without settlement (%s)", gatewayOrderID, statusResp.TransactionStatus)
	}

	return nil
}
