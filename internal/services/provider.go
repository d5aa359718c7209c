package services

import (
	"github.com/meeplenest/meeplenest/internal/config"
	"github.com/meeplenest/meeplenest/internal/lock"
	"github.com/meeplenest/meeplenest/internal/repositories/campaigns"
	campaignService "github.com/meeplenest/meeplenest/internal/services/campaign"
)

// Provider holds all service instances
type Provider struct {
	CampaignService campaignService.Service
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	CampaignRepository campaigns.Repository // Optional, in-memory if nil
	Locker             lock.Locker          // Optional; serializes roster mutations per campaign
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	repo := cfg.CampaignRepository
	if repo == nil {
		repo = campaigns.NewInMemoryRepository(nil)
	}

	svc := campaignService.NewService(&campaignService.ServiceConfig{
		Repository: repo,
		Locker:     cfg.Locker,
	})

	return &Provider{
		CampaignService: svc,
	}
}

// NewProviderFromConfig wires the provider from the environment config,
// building the per-campaign Redis mutation lock when REDIS_URL is set.
func NewProviderFromConfig(cfg *config.Config, repo campaigns.Repository) (*Provider, error) {
	locker, err := lock.NewRedisLockerFromConfig(&cfg.Redis)
	if err != nil {
		return nil, err
	}

	return NewProvider(&ProviderConfig{
		CampaignRepository: repo,
		Locker:             locker,
	}), nil
}
