package stores

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
)

// CampaignStore caches the campaigns of one project and the campaign opened
// on the board. New campaigns are listed first.
type CampaignStore struct {
	api API
	cache[Campaign]
	current *Campaign
}

func NewCampaignStore(api API) (*CampaignStore, error) {
	if api == nil {
		return nil, errors.New("[stores.NewCampaignStore] api is required")
	}
	return &CampaignStore{api: api}, nil
}

func (s *CampaignStore) State() State[Campaign] {
	return s.snapshot()
}

func (s *CampaignStore) Current() (Campaign, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Campaign{}, false
	}
	c := *s.current
	c.Tickets = slices.Clone(c.Tickets)
	return c, true
}

// FetchCampaigns lists the campaigns of a project, optionally only those of
// one version.
func (s *CampaignStore) FetchCampaigns(ctx context.Context, projectID ID, version string) error {
	s.begin()
	defer s.settle()

	var query url.Values
	if version != "" {
		query = url.Values{"version": {version}}
	}

	res, err := s.api.Get(ctx, campaignsPath(projectID), query)
	if err == nil {
		var campaigns []Campaign
		if campaigns, err = normalizeCampaigns(res); err == nil {
			s.replace(campaigns)
			return nil
		}
	}
	s.fail("campaigns", err, fmt.Sprintf("Failed to fetch campaigns for project %s.", projectID))
	return err
}

func (s *CampaignStore) FetchCampaignDetails(ctx context.Context, projectID, campaignID ID) (Campaign, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Get(ctx, campaignsPath(projectID)+"/"+escape(campaignID), nil)
	if err != nil {
		s.fail("campaigns", err, fmt.Sprintf("Failed to fetch campaign details for %s.", campaignID))
		return Campaign{}, err
	}
	campaign, ok, err := decodeOne[Campaign](res)
	if err != nil {
		s.fail("campaigns", err, fmt.Sprintf("Failed to fetch campaign details for %s.", campaignID))
		return Campaign{}, err
	}
	if !ok {
		campaign.ID = campaignID
	}

	s.mu.Lock()
	s.current = &campaign
	s.mu.Unlock()

	current, _ := s.Current()
	return current, nil
}

func (s *CampaignStore) CreateCampaign(ctx context.Context, projectID ID, input CampaignInput) (Campaign, error) {
	s.begin()
	defer s.settle()

	res, err := s.api.Post(ctx, campaignsPath(projectID), input)
	if err != nil {
		s.fail("campaigns", err, "Failed to create campaign.")
		return Campaign{}, err
	}
	campaign, ok, err := decodeOne[Campaign](res)
	if err != nil {
		s.fail("campaigns", err, "Failed to create campaign.")
		return Campaign{}, err
	}
	if ok {
		s.prepend(campaign)
	}
	return campaign, nil
}
