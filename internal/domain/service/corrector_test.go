package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
)

func newTemplateLocal() *fakeLocal {
	return &fakeLocal{soa: entity.SOA{
		PrimaryNS: "ns1.example.net", Contact: "hostmaster.example.net",
		Serial: 1, Refresh: 1, Retry: 1, Expire: 1, Minimum: 1, TTL: 1,
	}}
}

func TestDriftCorrector_Monotonic(t *testing.T) {
	for _, pair := range [][2]int64{{100, 95}, {95, 100}} {
		local := newTemplateLocal()
		c := NewDriftCorrector(local)
		res, err := c.Correct(context.Background(), "example.com", pair[0], pair[1], false)
		if err != nil {
			t.Fatalf("Correct(%d,%d) error = %v", pair[0], pair[1], err)
		}
		if res.NewSerial != 101 {
			t.Errorf("Correct(%d,%d) NewSerial = %d, want 101", pair[0], pair[1], res.NewSerial)
		}
		if len(local.written) != 1 || local.written[0].Serial != 101 {
			t.Fatalf("written = %+v", local.written)
		}
		w := local.written[0]
		if w.Refresh != 86400 || w.Retry != 7200 || w.Expire != 3600000 || w.Minimum != 3600 {
			t.Errorf("timer policy not applied: %+v", w)
		}
		if !res.Reloaded {
			t.Error("Reloaded = false")
		}
	}
}

func TestDriftCorrector_DryRunParity(t *testing.T) {
	dryLocal := newTemplateLocal()
	dry, err := NewDriftCorrector(dryLocal).Correct(context.Background(), "example.com", 100, 95, true)
	if err != nil {
		t.Fatalf("dry-run error = %v", err)
	}
	if len(dryLocal.written) != 0 || dryLocal.reloads != 0 {
		t.Error("dry-run must not write or reload")
	}
	if !dry.Success {
		t.Error("dry-run Success = false")
	}

	wetLocal := newTemplateLocal()
	wet, err := NewDriftCorrector(wetLocal).Correct(context.Background(), "example.com", 100, 95, false)
	if err != nil {
		t.Fatalf("write error = %v", err)
	}

	if dry.NewSerial != wet.NewSerial || dry.Record != wet.Record {
		t.Errorf("dry-run target differs: %d %q vs %d %q", dry.NewSerial, dry.Record, wet.NewSerial, wet.Record)
	}
	if !strings.HasPrefix(dry.Message, dryRunVerb) || !strings.HasPrefix(wet.Message, "updated") {
		t.Errorf("messages = %q / %q", dry.Message, wet.Message)
	}
	if strings.TrimPrefix(dry.Message, dryRunVerb) != strings.TrimPrefix(wet.Message, "updated") {
		t.Errorf("messages differ beyond the verb:\n%s\n%s", dry.Message, wet.Message)
	}
}

func TestDriftCorrector_ReloadFailureKeepsWrite(t *testing.T) {
	local := newTemplateLocal()
	local.reloadErr = errors.New("rndc failed")
	res, err := NewDriftCorrector(local).Correct(context.Background(), "example.com", 1, 10, false)
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	if !res.Success || res.Reloaded {
		t.Errorf("Success=%v Reloaded=%v", res.Success, res.Reloaded)
	}
	if len(local.written) != 1 {
		t.Error("write must not be rolled back")
	}
}

func TestDriftCorrector_InvalidInput(t *testing.T) {
	tests := []struct {
		name          string
		local, remote int64
		wantErr       error
	}{
		{"negative local", -1, 5, domain.ErrInvalidInput},
		{"remote too large", 5, math.MaxUint32 + 1, domain.ErrInvalidInput},
		{"exhausted", math.MaxUint32, 5, domain.ErrSerialExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := newTemplateLocal()
			res, err := NewDriftCorrector(local).Correct(context.Background(), "example.com", tt.local, tt.remote, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if res.Success || len(local.written) != 0 {
				t.Error("invalid input must not write")
			}
		})
	}
}

func TestDriftCorrector_MissingZoneFile(t *testing.T) {
	local := newTemplateLocal()
	local.noZone = true
	_, err := NewDriftCorrector(local).Correct(context.Background(), "example.com", 1, 10, false)
	if !errors.Is(err, domain.ErrZoneFileMissing) {
		t.Errorf("error = %v, want ErrZoneFileMissing", err)
	}
}

func TestDriftCorrector_WriteFailure(t *testing.T) {
	local := newTemplateLocal()
	local.writeErr = errors.New("whmapi1 failed")
	res, err := NewDriftCorrector(local).Correct(context.Background(), "example.com", 1, 10, false)
	if err == nil || res.Success {
		t.Errorf("expected failure, got %+v %v", res, err)
	}
	if local.reloads != 0 {
		t.Error("reload attempted after failed write")
	}
}
