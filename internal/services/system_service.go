package services

import (
	"context"
	"errors"

	"github.com/loomline/api/internal/repositories"
)

// SystemServiceDeps bundles collaborators required to construct a system service instance.
type SystemServiceDeps struct {
	Health repositories.HealthRepository
}

type systemService struct {
	health repositories.HealthRepository
}

// NewSystemService constructs the system service backing readiness probes.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.Health == nil {
		return nil, errors.New("system service: health repository is required")
	}
	return &systemService{health: deps.Health}, nil
}

func (s *systemService) CheckReadiness(ctx context.Context) (SystemHealthReport, error) {
	return s.health.Collect(ctx)
}
