package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/careflow/hospital-api/internal/model"
	"github.com/careflow/hospital-api/internal/repository"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
	eligibleKey  = "roster:eligible"
	clinicianKey = "roster:clinician:"
)

// Service reads the clinician roster. The roster changes rarely and is
// read-only here, so lookups go through a short-lived cache.
type Service struct {
	repo  repository.ClinicianRepository
	cache *cache.Cache
}

func NewService(repo repository.ClinicianRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, cacheCleanup),
	}
}

// Eligible returns the clinically eligible roster in registration order.
func (s *Service) Eligible(ctx context.Context) ([]*model.ClinicianProfile, error) {
	if cached, found := s.cache.Get(eligibleKey); found {
		return cached.([]*model.ClinicianProfile), nil
	}

	roster, err := s.repo.List(ctx, &model.ClinicianFilters{
		Roles: []model.ClinicianRole{
			model.RoleGeneralPractitioner,
			model.RoleOphthalmologist,
			model.RoleRadiologist,
			model.RolePhysicalTherapist,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load eligible roster: %w", err)
	}

	s.cache.Set(eligibleKey, roster, cache.DefaultExpiration)
	return roster, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.ClinicianProfile, error) {
	key := clinicianKey + id.String()
	if cached, found := s.cache.Get(key); found {
		return cached.(*model.ClinicianProfile), nil
	}

	clinician, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get clinician: %w", err)
	}

	s.cache.Set(key, clinician, cache.DefaultExpiration)
	return clinician, nil
}

func (s *Service) List(ctx context.Context, filters *model.ClinicianFilters) ([]*model.ClinicianProfile, error) {
	return s.repo.List(ctx, filters)
}

// Invalidate drops cached roster state; called when an external roster sync
// lands.
func (s *Service) Invalidate() {
	s.cache.Flush()
}
