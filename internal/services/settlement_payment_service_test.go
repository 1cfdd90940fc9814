package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/utils/tests"

	"bnpl_backend_echo/internal/models"
)

func TestDeactivateSessionFlipsActiveFlag(t *testing.T) {
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)

	svc := NewSettlementPaymentService(db, nil, nil)

	session := &models.PaymentSession{IsActive: true}
	session.ID = 3

	require.NoError(t, svc.deactivateSession(context.Background(), session))
	assert.False(t, session.IsActive)
}
