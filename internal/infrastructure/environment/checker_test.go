package environment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

type fakeRunner struct {
	stdout string
	err    error
	files  map[string]bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	return f.stdout, "", f.err
}

func (f *fakeRunner) FileExists(ctx context.Context, path string) (bool, error) {
	return f.files[path], nil
}

type fakeProbe struct {
	serial uint32
	err    error
}

func (p fakeProbe) Serial(ctx context.Context, server, zone string) (uint32, error) {
	return p.serial, p.err
}

type fakeRemote struct {
	zones map[string]uint32
	err   error
}

func (r fakeRemote) Name() string { return "powerdns" }

func (r fakeRemote) GetZone(ctx context.Context, name string) (contract.ZoneLookup, error) {
	if r.err != nil {
		return contract.ZoneLookup{}, r.err
	}
	s, ok := r.zones[name]
	if !ok {
		return contract.ZoneLookup{NotFound: true}, nil
	}
	return contract.ZoneLookup{Zone: &entity.Zone{Name: name + ".", Serial: s}}, nil
}

func (r fakeRemote) CreateZone(ctx context.Context, name string) error { return nil }

func (r fakeRemote) UpdateZone(ctx context.Context, name string, zone *entity.Zone) error {
	return nil
}

func (r fakeRemote) DeleteZone(ctx context.Context, name string) error { return nil }

func TestChecker_CheckAll(t *testing.T) {
	runner := &fakeRunner{
		stdout: `{"metadata":{"result":1},"data":{"version":"11.118.0.12"}}`,
		files:  map[string]bool{"/var/named": true},
	}
	c := NewChecker(runner, fakeProbe{serial: 2024010100},
		fakeRemote{zones: map[string]uint32{"example.com": 2024010100}},
		"127.0.0.1:53", []string{"/var/named", "/var/named/data"})

	results := c.CheckAll(context.Background(), "Example.com.")
	if Failed(results) {
		t.Fatalf("unexpected failure: %+v", results)
	}
	want := []string{"11.118.0.12", "/var/named", "example.com serial 2024010100", "example.com serial 2024010100"}
	for i, r := range results {
		if r.Message != want[i] {
			t.Errorf("%s message = %q, want %q", r.Name, r.Message, want[i])
		}
	}
}

func TestChecker_Failures(t *testing.T) {
	runner := &fakeRunner{err: domain.ErrCommandFailed, files: map[string]bool{}}
	c := NewChecker(runner, fakeProbe{err: domain.ErrNetworkTimeout},
		fakeRemote{err: errors.New("connection refused")},
		"127.0.0.1:53", []string{"/var/named"})

	results := c.CheckAll(context.Background(), "example.com")
	if !Failed(results) {
		t.Fatal("expected failure")
	}
	for _, r := range results {
		if r.Status != CheckStatusError {
			t.Errorf("%s status = %v, want error", r.Name, r.Status)
		}
	}
	out := FormatResults("cpanel01", results)
	if !strings.Contains(out, "[cpanel01] Environment Check") || !strings.Contains(out, "connection refused") {
		t.Errorf("formatted output:\n%s", out)
	}
}

func TestChecker_NoSample(t *testing.T) {
	runner := &fakeRunner{stdout: "not json", files: map[string]bool{"/var/named": true}}
	c := NewChecker(runner, fakeProbe{}, fakeRemote{}, "127.0.0.1:53", []string{"/var/named"})

	results := c.CheckAll(context.Background(), "")
	if Failed(results) {
		t.Fatalf("unexpected failure: %+v", results)
	}
	if results[0].Status != CheckStatusWarning {
		t.Errorf("unparsable version should warn, got %+v", results[0])
	}
	if results[2].Status != CheckStatusWarning || results[3].Message != "Reachable" {
		t.Errorf("results = %+v", results)
	}
}
