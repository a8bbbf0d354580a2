// Package environment runs preflight checks against the hosting server and
// the remote authority before a sync is trusted to run unattended.
package environment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

type SerialProbe interface {
	Serial(ctx context.Context, server, zone string) (uint32, error)
}

type Checker struct {
	runner     contract.CommandRunner
	probe      SerialProbe
	remote     contract.RemoteAuthority
	nameserver string
	zoneDirs   []string
}

func NewChecker(runner contract.CommandRunner, probe SerialProbe, remote contract.RemoteAuthority, nameserver string, zoneDirs []string) *Checker {
	return &Checker{
		runner:     runner,
		probe:      probe,
		remote:     remote,
		nameserver: nameserver,
		zoneDirs:   zoneDirs,
	}
}

// CheckAll runs every check. sample names a hosted zone used for the
// serial checks; without one those checks are reported as skipped.
func (c *Checker) CheckAll(ctx context.Context, sample string) []CheckResult {
	sample = entity.NormalizeName(sample)
	return []CheckResult{
		c.CheckControlPanel(ctx),
		c.CheckZoneDirs(ctx),
		c.CheckNameserver(ctx, sample),
		c.CheckRemote(ctx, sample),
	}
}

func (c *Checker) CheckControlPanel(ctx context.Context) CheckResult {
	stdout, _, err := c.runner.Run(ctx, constants.CPanelAPI, "version", "--output=json")
	if err != nil {
		return CheckResult{
			Name:    "cPanel API",
			Status:  CheckStatusError,
			Message: "whmapi1 not available",
			Detail:  err.Error(),
		}
	}

	var reply struct {
		Data struct {
			Version string `json:"version"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(stdout), &reply); err != nil || reply.Data.Version == "" {
		return CheckResult{
			Name:    "cPanel API",
			Status:  CheckStatusWarning,
			Message: "unexpected version output",
			Detail:  strings.TrimSpace(stdout),
		}
	}
	return CheckResult{
		Name:    "cPanel API",
		Status:  CheckStatusOK,
		Message: reply.Data.Version,
	}
}

func (c *Checker) CheckZoneDirs(ctx context.Context) CheckResult {
	var found []string
	for _, dir := range c.zoneDirs {
		ok, err := c.runner.FileExists(ctx, dir)
		if err != nil {
			return CheckResult{
				Name:    "Zone directories",
				Status:  CheckStatusError,
				Message: "Failed to probe " + dir,
				Detail:  err.Error(),
			}
		}
		if ok {
			found = append(found, dir)
		}
	}
	if len(found) == 0 {
		return CheckResult{
			Name:    "Zone directories",
			Status:  CheckStatusError,
			Message: "None found: " + strings.Join(c.zoneDirs, ", "),
		}
	}
	return CheckResult{
		Name:    "Zone directories",
		Status:  CheckStatusOK,
		Message: strings.Join(found, ", "),
	}
}

func (c *Checker) CheckNameserver(ctx context.Context, sample string) CheckResult {
	name := fmt.Sprintf("Nameserver %s", c.nameserver)
	if sample == "" {
		return CheckResult{Name: name, Status: CheckStatusWarning, Message: "Skipped, no sample domain"}
	}
	serial, err := c.probe.Serial(ctx, c.nameserver, sample)
	if err != nil {
		return CheckResult{
			Name:    name,
			Status:  CheckStatusError,
			Message: "SOA query failed for " + sample,
			Detail:  err.Error(),
		}
	}
	return CheckResult{
		Name:    name,
		Status:  CheckStatusOK,
		Message: fmt.Sprintf("%s serial %d", sample, serial),
	}
}

// CheckRemote only proves the remote authority answers; a missing zone is
// still a successful round trip.
func (c *Checker) CheckRemote(ctx context.Context, sample string) CheckResult {
	name := fmt.Sprintf("Remote %s", c.remote.Name())
	probe := sample
	if probe == "" {
		probe = "dnssync-preflight.invalid"
	}
	lookup, err := c.remote.GetZone(ctx, probe)
	if err != nil {
		return CheckResult{
			Name:    name,
			Status:  CheckStatusError,
			Message: "Unreachable",
			Detail:  err.Error(),
		}
	}
	switch {
	case sample == "":
		return CheckResult{Name: name, Status: CheckStatusOK, Message: "Reachable"}
	case lookup.NotFound:
		return CheckResult{Name: name, Status: CheckStatusWarning, Message: sample + " not found"}
	}
	return CheckResult{
		Name:    name,
		Status:  CheckStatusOK,
		Message: fmt.Sprintf("%s serial %d", sample, lookup.Zone.Serial),
	}
}

// Failed reports whether any check ended in error.
func Failed(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == CheckStatusError {
			return true
		}
	}
	return false
}

func FormatResults(host string, results []CheckResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] Environment Check\n", host))

	for _, r := range results {
		icon := "✅"
		switch r.Status {
		case CheckStatusWarning:
			icon = "⚠️"
		case CheckStatusError:
			icon = "❌"
		}

		sb.WriteString(fmt.Sprintf("  %-28s %s %s\n", r.Name+":", icon, r.Message))
		if r.Detail != "" && r.Status != CheckStatusOK {
			sb.WriteString(fmt.Sprintf("  %-28s    %s\n", "", r.Detail))
		}
	}

	return sb.String()
}
