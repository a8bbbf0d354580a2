package bind

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lite-lake/dnssync/internal/domain"
)

type whmReply struct {
	Metadata struct {
		Result int    `json:"result"`
		Reason string `json:"reason"`
	} `json:"metadata"`
}

func decodeJSON(out string, v any) error {
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), v); err != nil {
		return fmt.Errorf("%w: unparseable whmapi1 output: %v", domain.ErrCommandFailed, err)
	}
	return nil
}
