package dns

import (
	"context"
	"strings"
	"time"

	alidns "github.com/alibabacloud-go/alidns-20150109/v4/client"
	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	"github.com/alibabacloud-go/tea/tea"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

type aliyunBackend struct {
	client *alidns.Client
}

func NewAliyun(accessKeyID, accessKeySecret string, timeout time.Duration, probe SerialProbe, masterNS string) (*CloudZoneAPI, error) {
	ms := int(timeout / time.Millisecond)
	config := &openapi.Config{
		AccessKeyId:     tea.String(accessKeyID),
		AccessKeySecret: tea.String(accessKeySecret),
		ConnectTimeout:  tea.Int(ms),
		ReadTimeout:     tea.Int(ms),
	}
	config.Endpoint = tea.String("dns.aliyuncs.com")
	client, err := alidns.NewClient(config)
	if err != nil {
		return nil, domain.WrapOp("create aliyun dns client", err)
	}
	return newCloudZoneAPI(&aliyunBackend{client: client}, probe, masterNS), nil
}

func (p *aliyunBackend) name() string { return "aliyun" }

// lookup searches by keyword and keeps only an exact name match.
func (p *aliyunBackend) lookup(_ context.Context, zone string) (string, error) {
	req := &alidns.DescribeDomainsRequest{
		KeyWord: tea.String(zone),
	}
	resp, err := p.client.DescribeDomains(req)
	if err != nil {
		return "", apiError("list domains", err)
	}
	if resp.Body != nil && resp.Body.Domains != nil {
		for _, d := range resp.Body.Domains.Domain {
			if strings.EqualFold(tea.StringValue(d.DomainName), zone) {
				return tea.StringValue(d.DomainId), nil
			}
		}
	}
	return "", notFound(zone)
}

func (p *aliyunBackend) create(ctx context.Context, zone string) error {
	req := &alidns.AddDomainRequest{
		DomainName: tea.String(zone),
	}
	if _, err := p.client.AddDomain(req); err != nil {
		return apiError("add domain", err)
	}
	logger.FromContext(ctx).Info("zone created", "provider", "aliyun", "domain", zone)
	return nil
}

func (p *aliyunBackend) remove(ctx context.Context, zone, _ string) error {
	req := &alidns.DeleteDomainRequest{
		DomainName: tea.String(zone),
	}
	if _, err := p.client.DeleteDomain(req); err != nil {
		return apiError("delete domain", err)
	}
	logger.FromContext(ctx).Info("zone deleted", "provider", "aliyun", "domain", zone)
	return nil
}
