// Package bind is the local authority: a cPanel-managed BIND server. Reads
// go over DNS; writes go through whmapi1.
package bind

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

var _ contract.LocalAuthority = (*Authority)(nil)

type SOAResolver interface {
	SOA(ctx context.Context, server, zone string) (entity.SOA, error)
}

type Option func(*Authority)

func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

// WithoutBackup skips the zone-file copy taken before each SOA edit.
func WithoutBackup() Option {
	return func(a *Authority) { a.backup = false }
}

type Authority struct {
	runner     contract.CommandRunner
	resolver   SOAResolver
	nameserver string
	zoneDirs   []string
	backup     bool
	now        func() time.Time

	mu sync.Mutex
	// pending maps a zone file to its backup until the edit succeeds, so a
	// retried write does not copy a half-edited file over the backup.
	pending map[string]string
}

func New(runner contract.CommandRunner, resolver SOAResolver, nameserver string, zoneDirs []string, opts ...Option) *Authority {
	if len(zoneDirs) == 0 {
		zoneDirs = constants.DefaultZoneDirs
	}
	a := &Authority{
		runner:     runner,
		resolver:   resolver,
		nameserver: nameserver,
		zoneDirs:   zoneDirs,
		backup:     true,
		now:        time.Now,
		pending:    map[string]string{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Authority) GetSOA(ctx context.Context, name string) (entity.SOA, error) {
	soa, err := a.resolver.SOA(ctx, a.nameserver, name)
	if err != nil {
		return entity.SOA{}, domain.WrapOp("local SOA", err)
	}
	return soa, nil
}

func (a *Authority) GetSerial(ctx context.Context, name string) (uint32, error) {
	soa, err := a.GetSOA(ctx, name)
	if err != nil {
		return 0, err
	}
	return soa.Serial, nil
}

// ZoneFile returns the first zone file for name found in the zone dirs.
func (a *Authority) ZoneFile(ctx context.Context, name string) (string, error) {
	file := entity.NormalizeName(name) + constants.ZoneFileExt
	for _, dir := range a.zoneDirs {
		p := path.Join(dir, file)
		ok, err := a.runner.FileExists(ctx, p)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}
		if ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrZoneFileMissing, name)
}

func (a *Authority) HasZone(ctx context.Context, name string) (bool, error) {
	_, err := a.ZoneFile(ctx, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrZoneFileMissing) {
		return false, nil
	}
	return false, err
}

// WriteSOA replaces the zone's SOA record. The zone file is copied aside
// first; a failed copy aborts the edit. Until an edit succeeds, repeated
// calls reuse the first backup.
func (a *Authority) WriteSOA(ctx context.Context, name string, soa entity.SOA) error {
	var file string
	if a.backup {
		var err error
		if file, err = a.backupZone(ctx, name); err != nil {
			return err
		}
	}

	args := []string{
		"edit_zone_record",
		"domain=" + entity.NormalizeName(name),
		"class=IN",
		"type=SOA",
		"line=" + soa.RecordLine(name),
	}
	if err := a.whmapi(ctx, args...); err != nil {
		return fmt.Errorf("update SOA for %s: %w", name, err)
	}
	if file != "" {
		a.mu.Lock()
		delete(a.pending, file)
		a.mu.Unlock()
	}
	return nil
}

func (a *Authority) backupZone(ctx context.Context, name string) (string, error) {
	log := logger.FromContext(ctx)
	file, err := a.ZoneFile(ctx, name)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if dst, ok := a.pending[file]; ok {
		log.Debug("zone file already backed up", "domain", name, "backup", dst)
		return file, nil
	}
	dst := fmt.Sprintf("%s.backup.%s", file, a.now().Format("20060102_150405"))
	if _, stderr, err := a.runner.Run(ctx, "cp", "-p", file, dst); err != nil {
		return "", fmt.Errorf("backup zone file %s: %w: %s", file, err, strings.TrimSpace(stderr))
	}
	a.pending[file] = dst
	log.Debug("zone file backed up", "domain", name, "backup", dst)
	return file, nil
}

func (a *Authority) Reload(ctx context.Context, name string) error {
	if err := a.whmapi(ctx, "reloadzones", "domains="+entity.NormalizeName(name)); err != nil {
		return fmt.Errorf("reload zone %s: %w", name, err)
	}
	return nil
}

// whmapi runs a whmapi1 call and checks both the exit status and the
// metadata.result flag of its JSON reply.
func (a *Authority) whmapi(ctx context.Context, args ...string) error {
	args = append(args, "--output=json")
	stdout, stderr, err := a.runner.Run(ctx, constants.CPanelAPI, args...)
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr))
	}
	var reply whmReply
	if err := decodeJSON(stdout, &reply); err != nil {
		return err
	}
	if reply.Metadata.Result != 1 {
		return fmt.Errorf("%w: %s: %s", domain.ErrCommandFailed, args[0], reply.Metadata.Reason)
	}
	return nil
}
