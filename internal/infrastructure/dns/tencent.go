package dns

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	tcerr "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	dnspod "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/dnspod/v20210323"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

type tencentBackend struct {
	client *dnspod.Client
}

func NewTencent(secretID, secretKey string, timeout time.Duration, probe SerialProbe, masterNS string) (*CloudZoneAPI, error) {
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "dnspod.tencentcloudapi.com"
	if secs := int(timeout / time.Second); secs > 0 {
		cpf.HttpProfile.ReqTimeout = secs
	}
	client, err := dnspod.NewClient(credential, "", cpf)
	if err != nil {
		return nil, domain.WrapOp("create tencent dns client", err)
	}
	return newCloudZoneAPI(&tencentBackend{client: client}, probe, masterNS), nil
}

func (p *tencentBackend) name() string { return "tencent" }

func (p *tencentBackend) lookup(_ context.Context, zone string) (string, error) {
	req := dnspod.NewDescribeDomainListRequest()
	req.Keyword = common.StringPtr(zone)

	resp, err := p.client.DescribeDomainList(req)
	if err != nil {
		if sdkErr, ok := err.(*tcerr.TencentCloudSDKError); ok && strings.HasPrefix(sdkErr.GetCode(), "ResourceNotFound") {
			return "", notFound(zone)
		}
		return "", apiError("list domains", err)
	}
	if resp.Response != nil {
		for _, d := range resp.Response.DomainList {
			if d.Name != nil && strings.EqualFold(*d.Name, zone) {
				if d.DomainId != nil {
					return strconv.FormatUint(*d.DomainId, 10), nil
				}
				return zone, nil
			}
		}
	}
	return "", notFound(zone)
}

func (p *tencentBackend) create(ctx context.Context, zone string) error {
	req := dnspod.NewCreateDomainRequest()
	req.Domain = common.StringPtr(zone)

	if _, err := p.client.CreateDomain(req); err != nil {
		return apiError("create domain", err)
	}
	logger.FromContext(ctx).Info("zone created", "provider", "tencent", "domain", zone)
	return nil
}

func (p *tencentBackend) remove(ctx context.Context, zone, _ string) error {
	req := dnspod.NewDeleteDomainRequest()
	req.Domain = common.StringPtr(zone)

	if _, err := p.client.DeleteDomain(req); err != nil {
		return apiError("delete domain", err)
	}
	logger.FromContext(ctx).Info("zone deleted", "provider", "tencent", "domain", zone)
	return nil
}
