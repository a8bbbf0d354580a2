// Package cpanel enumerates the domains hosted on a cPanel server.
package cpanel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

var _ contract.AffiliationSource = (*Source)(nil)

type listAcctsReply struct {
	Data struct {
		Acct []struct {
			User      string `json:"user"`
			Suspended int    `json:"suspended"`
		} `json:"acct"`
	} `json:"data"`
}

type listZonesReply struct {
	Data struct {
		Zone []struct {
			Domain string `json:"domain"`
		} `json:"zone"`
	} `json:"data"`
}

type listDomainsReply struct {
	Result struct {
		Status int      `json:"status"`
		Errors []string `json:"errors"`
		Data   struct {
			AddonDomains  []string `json:"addon_domains"`
			ParkedDomains []string `json:"parked_domains"`
		} `json:"data"`
	} `json:"result"`
}

// Source builds the affiliated set from every zone on the server plus the
// addon and parked domains of each unsuspended account.
type Source struct {
	runner contract.CommandRunner
}

func NewSource(runner contract.CommandRunner) *Source {
	return &Source{runner: runner}
}

// ListAffiliatedDomains fails as a whole when any listing fails, so a
// partial snapshot never demotes domains that are still hosted.
func (s *Source) ListAffiliatedDomains(ctx context.Context) (map[string]struct{}, error) {
	log := logger.FromContext(ctx)
	domains := make(map[string]struct{})

	var accts listAcctsReply
	if err := s.call(ctx, &accts, constants.CPanelAPI, "listaccts", "--output=json"); err != nil {
		return nil, err
	}
	var users []string
	for _, a := range accts.Data.Acct {
		if a.Suspended == 0 {
			users = append(users, a.User)
		}
	}
	log.Info("active accounts found", "count", len(users))

	var zones listZonesReply
	if err := s.call(ctx, &zones, constants.CPanelAPI, "listzones", "--output=json"); err != nil {
		return nil, err
	}
	for _, z := range zones.Data.Zone {
		add(domains, z.Domain)
	}
	log.Info("main domains found", "count", len(zones.Data.Zone))

	addons := 0
	for _, user := range users {
		var reply listDomainsReply
		if err := s.call(ctx, &reply, constants.CPanelUAPI, "--user="+user, "DomainInfo", "list_domains", "--output=json"); err != nil {
			return nil, err
		}
		if reply.Result.Status != 1 {
			return nil, fmt.Errorf("%w: list_domains for %s: %s", domain.ErrAffiliationFailed, user, strings.Join(reply.Result.Errors, "; "))
		}
		for _, d := range reply.Result.Data.AddonDomains {
			add(domains, d)
		}
		for _, d := range reply.Result.Data.ParkedDomains {
			add(domains, d)
		}
		addons += len(reply.Result.Data.AddonDomains)
	}
	log.Info("addon domains found", "count", addons)

	return domains, nil
}

func (s *Source) call(ctx context.Context, v any, name string, args ...string) error {
	stdout, stderr, err := s.runner.Run(ctx, name, args...)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v: %s", domain.ErrAffiliationFailed, name, args[0], err, strings.TrimSpace(stderr))
	}
	if err := json.Unmarshal([]byte(stdout), v); err != nil {
		return fmt.Errorf("%w: parse %s %s: %v", domain.ErrAffiliationFailed, name, args[0], err)
	}
	return nil
}

func add(set map[string]struct{}, name string) {
	if n := entity.NormalizeName(name); n != "" {
		set[n] = struct{}{}
	}
}
