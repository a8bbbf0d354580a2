package entity

import "testing"

func TestSOA_WithPolicy(t *testing.T) {
	s := SOA{PrimaryNS: "ns1.example.net", Contact: "hostmaster.example.net", Serial: 1, Refresh: 1, Retry: 1, Expire: 1, Minimum: 1}
	got := s.WithPolicy(2024010101)
	if got.Serial != 2024010101 {
		t.Errorf("Serial = %d", got.Serial)
	}
	if got.Refresh != 86400 || got.Retry != 7200 || got.Expire != 3600000 || got.Minimum != 3600 {
		t.Errorf("timers = %d/%d/%d/%d", got.Refresh, got.Retry, got.Expire, got.Minimum)
	}
	if s.Serial != 1 {
		t.Error("WithPolicy mutated receiver")
	}
}

func TestSOA_RecordLine(t *testing.T) {
	s := SOA{PrimaryNS: "ns1.example.net", Contact: "hostmaster.example.net."}.WithPolicy(101)
	want := "example.com. 86400 IN SOA ns1.example.net. hostmaster.example.net. 101 86400 7200 3600000 3600"
	if got := s.RecordLine("Example.com"); got != want {
		t.Errorf("RecordLine() = %q, want %q", got, want)
	}
}

func TestZone_KeepMetadata(t *testing.T) {
	z := Zone{Metadata: []ZoneMetadata{
		{Kind: "X-DNSSEC-KEY", Metadata: []string{"k"}},
		{Kind: "ALSO-NOTIFY", Metadata: []string{"1.2.3.4"}},
	}}
	kept := z.KeepMetadata("X-DNSSEC")
	if len(kept) != 1 || kept[0].Kind != "X-DNSSEC-KEY" {
		t.Errorf("KeepMetadata() = %+v", kept)
	}
}
