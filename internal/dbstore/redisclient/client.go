// Package redisclient is a minimal RESP (REdis Serialization Protocol)
// client adapter implementing dbstore.Client directly over net.Conn, in
// the same spirit as damianoneill/net speaking SNMP's wire format directly
// over net.Conn in its snmp/session.go rather than depending on a client
// library —
// see DESIGN.md's entry for internal/dbstore for why no concrete
// key/value store driver from the example pack was available to wire
// here instead.
package redisclient

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/packetflux/agentx-subagent/internal/dbstore"
)

// Client speaks a minimal RESP subset (HGETALL, KEYS, PSUBSCRIBE) over a
// single connection to one backend instance.
type Client struct {
	namespace string
	addr      string
	dialer    net.Dialer

	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// New builds a Client addressing host:port (or a Unix domain socket path
// when addr contains no colon) under the given namespace label (""
// denotes the host namespace).
func New(namespace, addr string) *Client {
	return &Client{namespace: namespace, addr: addr}
}

func (c *Client) Namespace() string { return c.namespace }

func (c *Client) Connect(ctx context.Context, dbName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	network := "tcp"
	if !strings.Contains(c.addr, ":") {
		network = "unix"
	}
	conn, err := c.dialer.DialContext(ctx, network, c.addr)
	if err != nil {
		return errors.Wrapf(err, "redisclient: dial %s", c.addr)
	}
	c.conn = conn
	c.r = bufio.NewReader(conn)
	return nil
}

// Close closes the command connection. Subscription connections opened by
// SubscribeKeyspace are not closed here; each one closes, and its channel
// is closed, only when the ctx passed to SubscribeKeyspace is canceled.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.r = nil
	return err
}

// GetAll issues HGETALL key (dbName is not used) and returns the
// field/value hash, or an empty (non-nil) map if the key does not exist.
func (c *Client) GetAll(ctx context.Context, dbName, key string) (map[string]string, error) {
	reply, err := c.command(ctx, "HGETALL", key)
	if err != nil {
		return nil, err
	}
	arr, ok := reply.([]interface{})
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(arr)/2)
	for i := 0; i+1 < len(arr); i += 2 {
		k, _ := arr[i].(string)
		v, _ := arr[i+1].(string)
		out[k] = v
	}
	return out, nil
}

// Keys issues KEYS pattern and returns the matching key list, or an empty
// (non-nil) slice when nothing matches.
func (c *Client) Keys(ctx context.Context, dbName, pattern string) ([]string, error) {
	reply, err := c.command(ctx, "KEYS", pattern)
	if err != nil {
		return nil, err
	}
	arr, ok := reply.([]interface{})
	if !ok {
		return []string{}, nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// SubscribeKeyspace opens a PSUBSCRIBE to __keyspace@0__:pattern and emits
// a dbstore.Event per published keyspace notification until ctx is
// canceled. Each subscription uses its own dedicated connection, since a
// connection in subscriber mode cannot also serve ordinary commands.
func (c *Client) SubscribeKeyspace(ctx context.Context, dbName, pattern string) (<-chan dbstore.Event, error) {
	network := "tcp"
	if !strings.Contains(c.addr, ":") {
		network = "unix"
	}
	conn, err := c.dialer.DialContext(ctx, network, c.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "redisclient: subscribe dial %s", c.addr)
	}
	channelPattern := fmt.Sprintf("__keyspace@0__:%s", pattern)
	if _, err := conn.Write(encodeCommand("PSUBSCRIBE", channelPattern)); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "redisclient: psubscribe")
	}

	out := make(chan dbstore.Event, 64)
	r := bufio.NewReader(conn)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			reply, err := readReply(r)
			if err != nil {
				return
			}
			arr, ok := reply.([]interface{})
			if !ok || len(arr) < 4 {
				continue
			}
			kind, _ := arr[0].(string)
			if kind != "pmessage" {
				continue
			}
			channel, _ := arr[2].(string)
			op, _ := arr[3].(string)
			key := strings.TrimPrefix(channel, "__keyspace@0__:")
			ev := dbstore.Event{Key: key, Kind: opToKind(op)}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	return out, nil
}

func opToKind(op string) dbstore.EventKind {
	switch op {
	case "del":
		return dbstore.EventDel
	case "expired":
		return dbstore.EventExpired
	default:
		return dbstore.EventSet
	}
}

// command sends a RESP command and waits for its reply, serializing access
// to the shared connection.
func (c *Client) command(ctx context.Context, args ...string) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, errors.New("redisclient: not connected")
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
	} else {
		_ = c.conn.SetDeadline(time.Now().Add(10 * time.Second))
	}
	if _, err := c.conn.Write(encodeCommand(args...)); err != nil {
		return nil, errors.Wrap(err, "redisclient: write")
	}
	return readReply(c.r)
}

func encodeCommand(args ...string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "*%d\r\n", len(args))
	for _, a := range args {
		fmt.Fprintf(&b, "$%d\r\n%s\r\n", len(a), a)
	}
	return []byte(b.String())
}

// readReply parses one RESP reply: simple string (+), error (-), integer
// (:), bulk string ($), or array (*), recursively for arrays.
func readReply(r *bufio.Reader) (interface{}, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, errors.New("redisclient: empty reply line")
	}
	switch line[0] {
	case '+':
		return line[1:], nil
	case '-':
		return nil, errors.New("redisclient: " + line[1:])
	case ':':
		n, err := strconv.ParseInt(line[1:], 10, 64)
		return n, err
	case '$':
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, nil
		}
		buf := make([]byte, n+2)
		if _, err := readFull(r, buf); err != nil {
			return nil, err
		}
		return string(buf[:n]), nil
	case '*':
		n, err := strconv.Atoi(line[1:])
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, nil
		}
		out := make([]interface{}, n)
		for i := 0; i < n; i++ {
			v, err := readReply(r)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, errors.Errorf("redisclient: unknown reply prefix %q", line[0])
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
