package entity

import "strings"

type ZoneMetadata struct {
	Kind     string   `json:"kind"`
	Metadata []string `json:"metadata"`
}

// Zone is the remote authority's view of a domain.
type Zone struct {
	Name        string         `json:"name"`
	Kind        string         `json:"kind,omitempty"`
	Serial      uint32         `json:"serial"`
	Masters     []string       `json:"masters"`
	Nameservers []string       `json:"nameservers,omitempty"`
	SOAEditAPI  string         `json:"soa_edit_api,omitempty"`
	Metadata    []ZoneMetadata `json:"metadata,omitempty"`
}

// KeepMetadata returns the metadata entries whose kind carries prefix.
func (z *Zone) KeepMetadata(prefix string) []ZoneMetadata {
	var kept []ZoneMetadata
	for _, m := range z.Metadata {
		if strings.HasPrefix(m.Kind, prefix) {
			kept = append(kept, m)
		}
	}
	return kept
}
