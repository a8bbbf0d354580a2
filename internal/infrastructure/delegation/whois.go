package delegation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
)

const DefaultWHOISServer = "whois.iana.org"

var (
	registrarRe  = regexp.MustCompile(`(?mi)^\s*Registrar:\s*(.+)$`)
	statusRe     = regexp.MustCompile(`(?mi)^\s*(?:Domain )?Status:\s*(.+)$`)
	nameServerRe = regexp.MustCompile(`(?mi)^\s*Name Server:\s*(\S+)`)
	referRe      = regexp.MustCompile(`(?mi)^\s*(?:refer|Registrar WHOIS Server|whois):\s*(\S+)`)
)

// Registration is what the registry says about a domain.
type Registration struct {
	Verified    bool
	Registrar   string
	Status      string
	Nameservers []string
	Errors      []string
}

type WHOIS struct {
	server  string
	timeout time.Duration
	dialer  net.Dialer
}

func NewWHOIS(server string, timeout time.Duration) *WHOIS {
	if server == "" {
		server = DefaultWHOISServer
	}
	if timeout <= 0 {
		timeout = domain.DefaultCallTimeout
	}
	return &WHOIS{server: server, timeout: timeout}
}

// Check queries the configured server and follows one referral. A record
// passes when it names a status and at least one nameserver.
func (w *WHOIS) Check(ctx context.Context, name string) Registration {
	var reg Registration
	text, err := w.query(ctx, w.server, name)
	if err == nil {
		if m := referRe.FindStringSubmatch(text); m != nil && !strings.EqualFold(m[1], w.server) {
			var referred string
			referred, err = w.query(ctx, m[1], name)
			if err == nil {
				text = referred
			}
		}
	}
	if err != nil {
		reg.Errors = append(reg.Errors, fmt.Sprintf("whois %s: %v", name, err))
		return reg
	}
	return parseRegistration(text)
}

func parseRegistration(text string) Registration {
	var reg Registration
	if m := registrarRe.FindStringSubmatch(text); m != nil {
		reg.Registrar = strings.TrimSpace(m[1])
	}
	if m := statusRe.FindStringSubmatch(text); m != nil {
		reg.Status = strings.TrimSpace(m[1])
	}
	for _, m := range nameServerRe.FindAllStringSubmatch(text, -1) {
		reg.Nameservers = append(reg.Nameservers, strings.ToLower(m[1]))
	}
	reg.Verified = reg.Status != "" && len(reg.Nameservers) > 0
	if !reg.Verified {
		reg.Errors = append(reg.Errors, "whois record lacks status or nameservers")
	}
	return reg
}

func (w *WHOIS) query(ctx context.Context, server, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	addr := server
	if _, _, err := net.SplitHostPort(server); err != nil {
		addr = net.JoinHostPort(server, "43")
	}
	conn, err := w.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrNetworkUnreachable, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := io.WriteString(conn, name+"\r\n"); err != nil {
		return "", err
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, bufio.NewReader(conn)); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("%w: %s", domain.ErrNetworkTimeout, addr)
		}
		return "", err
	}
	return sb.String(), nil
}
