package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var _ contract.CommandRunner = (*Client)(nil)

// Client runs cPanel tooling on the hosting server over SSH.
type Client struct {
	client *ssh.Client
	user   string
	sftp   func() (sftpClient, error)
}

func NewClient(host string, port int, user, password string, timeout time.Duration) (*Client, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
	}
	knownHosts := filepath.Join(homeDir, ".ssh", "known_hosts")

	hostKeyCallback, err := createHostKeyCallback(knownHosts)
	if err != nil {
		return nil, fmt.Errorf("failed to create host key callback: %w", err)
	}

	config := &ssh.ClientConfig{
		User: user,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrSSHConnectFailed, addr, err)
	}

	c := &Client{client: client, user: user}
	c.sftp = func() (sftpClient, error) { return newSFTP(c.client) }
	return c, nil
}

func createHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(knownHostsPath), 0700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0600); err != nil {
			return nil, err
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if !errors.As(err, &keyErr) {
			return err
		}

		if len(keyErr.Want) > 0 {
			return fmt.Errorf("host key mismatch for %s: possible MITM attack", hostname)
		}

		line := knownhosts.Line([]string{hostname}, key)
		f, err := os.OpenFile(knownHostsPath, os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open known_hosts: %w", err)
		}
		defer f.Close()
		if _, err := fmt.Fprintln(f, line); err != nil {
			return fmt.Errorf("failed to write to known_hosts: %w", err)
		}
		return nil
	}, nil
}

func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Run executes name with shell-escaped args. Cancelling ctx closes the
// session, which terminates the remote command.
func (c *Client) Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error) {
	session, err := c.client.NewSession()
	if err != nil {
		return "", "", fmt.Errorf("%w: failed to create session: %v", domain.ErrSSHCommandFailed, err)
	}
	defer session.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = &stdoutBuf
	session.Stderr = &stderrBuf

	done := make(chan error, 1)
	go func() { done <- session.Run(CommandLine(name, args...)) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Close()
		return stdoutBuf.String(), stderrBuf.String(), ctx.Err()
	}
	if err != nil {
		return stdoutBuf.String(), stderrBuf.String(), fmt.Errorf("%w: %s: %v", domain.ErrSSHCommandFailed, name, err)
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

func (c *Client) FileExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	sftpClient, err := c.sftp()
	if err != nil {
		return false, fmt.Errorf("%w: sftp: %v", domain.ErrSSHConnectFailed, err)
	}
	defer sftpClient.Close()

	_, err = sftpClient.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CommandLine joins a command and its arguments into one shell-safe string.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(name))
	for _, a := range args {
		parts = append(parts, ShellEscape(a))
	}
	return strings.Join(parts, " ")
}

type sftpClient interface {
	Stat(path string) (os.FileInfo, error)
	Close() error
}
