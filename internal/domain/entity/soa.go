package entity

import (
	"fmt"

	"github.com/lite-lake/dnssync/internal/constants"
)

type SOA struct {
	PrimaryNS string
	Contact   string
	Serial    uint32
	Refresh   uint32
	Retry     uint32
	Expire    uint32
	Minimum   uint32
	TTL       uint32
}

// WithPolicy returns a copy carrying serial and the fixed operational timers.
func (s SOA) WithPolicy(serial uint32) SOA {
	s.Serial = serial
	s.TTL = constants.SOATTL
	s.Refresh = constants.SOARefresh
	s.Retry = constants.SOARetry
	s.Expire = constants.SOAExpire
	s.Minimum = constants.SOAMinimum
	return s
}

// RecordLine renders the record in zone-file presentation format.
func (s SOA) RecordLine(name string) string {
	return fmt.Sprintf("%s %d IN SOA %s %s %d %d %d %d %d",
		FQDN(name), s.TTL, fqdnHost(s.PrimaryNS), fqdnHost(s.Contact),
		s.Serial, s.Refresh, s.Retry, s.Expire, s.Minimum)
}

func fqdnHost(h string) string {
	if h == "" || h[len(h)-1] == '.' {
		return h
	}
	return h + "."
}
