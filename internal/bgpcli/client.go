// Package bgpcli drives a line-oriented CLI session against a local BGP
// routing daemon (Quagga or FRRouting) over vtysh's TCP port, grounded on
// original_source/src/sonic_ax_impl/lib/quaggaclient.py's QuaggaClient,
// with a reader-goroutine-free request/response transport shape (this
// daemon speaks plaintext vtysh on a local socket, no SSH dial needed;
// see DESIGN.md's "Dropped dependencies").
package bgpcli

import (
	"context"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Provider distinguishes the two BGP daemon implementations by their
// banner names; banner detection is a closed set of exactly these two
// substrings (see DESIGN.md's "Open Questions resolved" §3).
type Provider string

const (
	ProviderQuagga    Provider = "Quagga"
	ProviderFRRouting Provider = "FRRouting"
)

// promptPassword is the password prompt vtysh emits, grounded on
// QuaggaClient.PROMPT_PASSWORD.
var promptPassword = []byte{0x1f}
var promptPasswordSuffix = "Password: "

// promptRE matches a vtysh command prompt: an RFC 1123 hostname followed
// by '#' or '>' and a trailing space, at start of buffer or after a CRLF.
var promptRE = regexp.MustCompile(`(^|\r\n)[a-zA-Z0-9]\S{0,254}[#>] $`)

// DefaultReceiveTimeout bounds how long a read waits for more session
// data before treating the socket as idle.
const DefaultReceiveTimeout = 10 * time.Second

// Client is one vtysh session to the local routing daemon.
type Client struct {
	conn     net.Conn
	Provider Provider
	Timeout  time.Duration
}

// Dial connects to the routing daemon's vtysh port (network/address, e.g.
// "tcp", "127.0.0.1:2605").
func Dial(ctx context.Context, network, address string) (*Client, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, network, address)
	if err != nil {
		return nil, errors.Wrap(err, "bgpcli: dial")
	}
	return &Client{conn: conn, Provider: ProviderQuagga, Timeout: DefaultReceiveTimeout}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Auth reads the login banner, classifies the provider from it, and sends
// password to complete the vtysh login, matching QuaggaClient.auth. An
// unrecognized banner is a hard protocol error (DESIGN.md §3): it does
// not default to either provider.
func (c *Client) Auth(password string) (banner string, err error) {
	banner, err = c.vtyshRecv()
	if err != nil {
		return "", err
	}
	switch {
	case strings.Contains(banner, string(ProviderQuagga)):
		c.Provider = ProviderQuagga
	case strings.Contains(banner, string(ProviderFRRouting)):
		c.Provider = ProviderFRRouting
	default:
		return "", errors.Errorf("bgpcli: unrecognized banner: %q", banner)
	}
	if _, err := c.vtyshRun(password); err != nil {
		return "", errors.Wrap(err, "bgpcli: login")
	}
	return banner, nil
}

func (c *Client) vtyshRun(command string) (string, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
		return "", err
	}
	if _, err := c.conn.Write([]byte(command + "\n")); err != nil {
		return "", errors.Wrap(err, "bgpcli: write")
	}
	return c.vtyshRecv()
}

func (c *Client) vtyshRecv() (string, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
		return "", err
	}
	var acc []byte
	buf := make([]byte, 4096)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			if promptRE.Match(acc) {
				break
			}
			if strings.HasSuffix(string(acc), string(promptPassword)+promptPasswordSuffix) {
				break
			}
		}
		if err != nil {
			return "", errors.Wrapf(err, "bgpcli: recv (acc=%q)", acc)
		}
		if n == 0 {
			return "", errors.Errorf("bgpcli: unexpected EOF (acc=%q)", acc)
		}
	}
	return string(acc), nil
}

// ShowBGPSummary issues the provider-appropriate "show [ip|ipv6] bgp
// summary" command, matching QuaggaClient.show_bgp_summary's FRRouting
// ipv6 special case.
func (c *Client) ShowBGPSummary(ipVersion string) (string, error) {
	if ipVersion != "ip" && ipVersion != "ipv6" {
		return "", errors.Errorf("bgpcli: invalid ip version %q", ipVersion)
	}
	if c.Provider == ProviderFRRouting && ipVersion == "ipv6" {
		return c.vtyshRun("show ip bgp ipv6 summary")
	}
	return c.vtyshRun("show " + ipVersion + " bgp summary")
}
