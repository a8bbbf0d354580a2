package cpanel

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/lite-lake/dnssync/internal/domain"
)

type fakeRunner struct {
	out   map[string]string
	err   map[string]error
	calls []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	key := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if err := f.err[key]; err != nil {
		return "", "denied", err
	}
	return f.out[key], "", nil
}

func (f *fakeRunner) FileExists(context.Context, string) (bool, error) { return false, nil }

func serverFixture() *fakeRunner {
	return &fakeRunner{out: map[string]string{
		"whmapi1 listaccts --output=json": `{"data":{"acct":[{"user":"alice","suspended":0},{"user":"bob","suspended":1}]}}`,
		"whmapi1 listzones --output=json": `{"data":{"zone":[{"domain":"Alice.com."},{"domain":"bob.org"}]}}`,
		"uapi --user=alice DomainInfo list_domains --output=json": `{"result":{"status":1,"data":{"addon_domains":["shop.alice.net"],"parked_domains":["ALICE.io."]}}}`,
	}}
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestSource_ListAffiliatedDomains(t *testing.T) {
	runner := serverFixture()

	got, err := NewSource(runner).ListAffiliatedDomains(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "alice.com,alice.io,bob.org,shop.alice.net"
	if strings.Join(keys(got), ",") != want {
		t.Errorf("domains = %v, want %s", keys(got), want)
	}
	for _, c := range runner.calls {
		if strings.Contains(c, "--user=bob") {
			t.Errorf("suspended account queried: %s", c)
		}
	}
}

func TestSource_ListAffiliatedDomainsErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fakeRunner)
	}{
		{"listaccts fails", func(f *fakeRunner) {
			f.err = map[string]error{"whmapi1 listaccts --output=json": errors.New("exit 1")}
		}},
		{"listzones unparseable", func(f *fakeRunner) {
			f.out["whmapi1 listzones --output=json"] = "<html>"
		}},
		{"uapi status 0", func(f *fakeRunner) {
			f.out["uapi --user=alice DomainInfo list_domains --output=json"] = `{"result":{"status":0,"errors":["no such user"]}}`
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := serverFixture()
			tt.mutate(runner)
			_, err := NewSource(runner).ListAffiliatedDomains(context.Background())
			if !errors.Is(err, domain.ErrAffiliationFailed) {
				t.Errorf("expected ErrAffiliationFailed, got %v", err)
			}
		})
	}
}
