package dns

import (
	"context"

	"github.com/cloudflare/cloudflare-go/v2"
	"github.com/cloudflare/cloudflare-go/v2/option"
	"github.com/cloudflare/cloudflare-go/v2/zones"

	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

type cloudflareBackend struct {
	client    *cloudflare.Client
	accountID string
}

func NewCloudflare(apiToken, accountID string, probe SerialProbe, masterNS string) *CloudZoneAPI {
	client := cloudflare.NewClient(
		option.WithAPIToken(apiToken),
	)
	return newCloudZoneAPI(&cloudflareBackend{client: client, accountID: accountID}, probe, masterNS)
}

func (p *cloudflareBackend) name() string { return "cloudflare" }

func (p *cloudflareBackend) lookup(ctx context.Context, zone string) (string, error) {
	params := zones.ZoneListParams{
		Name: cloudflare.F(zone),
	}
	if p.accountID != "" {
		params.Account = cloudflare.F(zones.ZoneListParamsAccount{
			ID: cloudflare.F(p.accountID),
		})
	}
	resp, err := p.client.Zones.List(ctx, params)
	if err != nil {
		return "", apiError("list zones", err)
	}
	if len(resp.Result) == 0 {
		return "", notFound(zone)
	}
	return resp.Result[0].ID, nil
}

func (p *cloudflareBackend) create(ctx context.Context, zone string) error {
	params := zones.ZoneNewParams{
		Name: cloudflare.F(zone),
	}
	if p.accountID != "" {
		params.Account = cloudflare.F(zones.ZoneNewParamsAccount{
			ID: cloudflare.F(p.accountID),
		})
	}
	if _, err := p.client.Zones.New(ctx, params); err != nil {
		return apiError("create zone", err)
	}
	logger.FromContext(ctx).Info("zone created", "provider", "cloudflare", "domain", zone)
	return nil
}

func (p *cloudflareBackend) remove(ctx context.Context, zone, id string) error {
	if _, err := p.client.Zones.Delete(ctx, zones.ZoneDeleteParams{
		ZoneID: cloudflare.F(id),
	}); err != nil {
		return apiError("delete zone", err)
	}
	logger.FromContext(ctx).Info("zone deleted", "provider", "cloudflare", "domain", zone)
	return nil
}
