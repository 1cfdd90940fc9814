package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bnpl_backend_echo/internal/models"
)

const planTypeCacheTTL = 15 * time.Minute

// PlanTypeService resolves financing terms by plan-type id. Terms
// change rarely, so lookups go through the Redis cache when one is
// configured.
type PlanTypeService struct {
	db    *gorm.DB
	cache *RedisCache
}

func NewPlanTypeService(db *gorm.DB, cache *RedisCache) *PlanTypeService {
	return &PlanTypeService{db: db, cache: cache}
}

// Lookup returns the plan type for the given id
func (s *PlanTypeService) Lookup(ctx context.Context, planTypeID uint) (*models.PlanType, error) {
	if s.cache == nil {
		return s.fetch(ctx, planTypeID)
	}

	key := fmt.Sprintf("plan_type:%d", planTypeID)
	pt, err := GetOrSet(s.cache, ctx, key, planTypeCacheTTL, func() (*models.PlanType, error) {
		return s.fetch(ctx, planTypeID)
	})
	if err != nil {
		return nil, err
	}
	return pt, nil
}

func (s *PlanTypeService) fetch(ctx context.Context, planTypeID uint) (*models.PlanType, error) {
	var pt models.PlanType
	if err := s.db.WithContext(ctx).First(&pt, planTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("plan type %d: %w", planTypeID, ErrPlanTypeNotFound)
		}
		return nil, err
	}
	return &pt, nil
}
