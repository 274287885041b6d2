package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/apcontrols/internal/domain/finance"
	"github.com/erp/apcontrols/internal/infrastructure/config"
	"github.com/erp/apcontrols/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormMatchPolicyProvider resolves vendor match policies from ap_vendor_match_policies.
// Vendors without a row get the fallback policy; a nil fallback leaves them unconfigured.
type GormMatchPolicyProvider struct {
	db       *gorm.DB
	fallback *finance.MatchPolicy
}

// NewGormMatchPolicyProvider creates a new GormMatchPolicyProvider
func NewGormMatchPolicyProvider(db *gorm.DB, fallback *finance.MatchPolicy) *GormMatchPolicyProvider {
	return &GormMatchPolicyProvider{db: db, fallback: fallback}
}

// PolicyForVendor returns the vendor's policy, the fallback, or ErrMatchModeNotConfigured
func (p *GormMatchPolicyProvider) PolicyForVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*finance.MatchPolicy, error) {
	var model models.VendorMatchPolicyModel
	err := p.db.WithContext(ctx).
		Where("tenant_id = ? AND vendor_id = ?", tenantID, vendorID).
		First(&model).Error
	switch {
	case err == nil:
		policy := model.ToDomain()
		if err := policy.Validate(); err != nil {
			return nil, err
		}
		return policy, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if p.fallback == nil {
			return nil, finance.ErrMatchModeNotConfigured.WithDetails("vendor_id", vendorID.String())
		}
		policy := *p.fallback
		return &policy, nil
	default:
		return nil, fmt.Errorf("failed to load match policy: %w", err)
	}
}

// SavePolicy creates or replaces the policy of one vendor
func (p *GormMatchPolicyProvider) SavePolicy(ctx context.Context, tenantID, vendorID uuid.UUID, policy finance.MatchPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	model := models.VendorMatchPolicyModel{
		TenantID:  tenantID,
		VendorID:  vendorID,
		MatchMode: policy.Mode,
		Tolerance: policy.Tolerance,
	}
	if err := p.db.WithContext(ctx).Save(&model).Error; err != nil {
		return fmt.Errorf("failed to save match policy: %w", err)
	}
	return nil
}

var _ finance.MatchPolicyProvider = (*GormMatchPolicyProvider)(nil)

// MatchPolicyFromConfig builds the fallback policy from the match section.
// It returns nil when no default mode is configured.
func MatchPolicyFromConfig(cfg config.MatchConfig) (*finance.MatchPolicy, error) {
	if strings.TrimSpace(cfg.DefaultMode) == "" {
		return nil, nil
	}
	mode, err := finance.ParseMatchMode(cfg.DefaultMode)
	if err != nil {
		return nil, err
	}
	price, err := toleranceBand(cfg.PriceTolerance)
	if err != nil {
		return nil, fmt.Errorf("invalid price tolerance: %w", err)
	}
	quantity, err := toleranceBand(cfg.QuantityTolerance)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity tolerance: %w", err)
	}
	total, err := toleranceBand(cfg.TotalTolerance)
	if err != nil {
		return nil, fmt.Errorf("invalid total tolerance: %w", err)
	}
	policy := &finance.MatchPolicy{
		Mode:      mode,
		Tolerance: finance.ToleranceConfig{Price: price, Quantity: quantity, Total: total},
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

func toleranceBand(s config.ToleranceSetting) (finance.ToleranceBand, error) {
	var band finance.ToleranceBand
	var err error
	if s.Absolute != "" {
		if band.Absolute, err = decimal.NewFromString(s.Absolute); err != nil {
			return band, err
		}
	}
	if s.Percent != "" {
		if band.Percent, err = decimal.NewFromString(s.Percent); err != nil {
			return band, err
		}
	}
	return band, nil
}
