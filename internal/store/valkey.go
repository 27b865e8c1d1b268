package store

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// ValkeyConfig holds connection parameters for a Valkey/Redis-compatible server.
type ValkeyConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	TLS          bool
}

// Valkey implements Provider against a Valkey/Redis-compatible server using
// a minimal RESP codec. Connections are short-lived: each operation dials,
// authenticates and closes, which keeps the implementation free of pool
// bookkeeping at the volumes this service sees.
type Valkey struct {
	cfg ValkeyConfig
}

// NewValkey creates a Provider for the given configuration. It pings the
// target so misconfigured credentials or connectivity fail fast at startup.
func NewValkey(cfg ValkeyConfig) (*Valkey, error) {
	if cfg.Addr == "" {
		return nil, errors.New("store: valkey addr is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 500 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}

	v := &Valkey{cfg: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	reply, err := v.command(ctx, "PING")
	if err != nil {
		return nil, err
	}
	if reply.kind != kindSimple || string(reply.data) != "PONG" {
		return nil, fmt.Errorf("store: unexpected PING response: %s", reply.data)
	}
	return v, nil
}

// Get fetches bytes by key, returning ErrNotFound when the key is absent.
func (v *Valkey) Get(ctx context.Context, key string) ([]byte, error) {
	reply, err := v.command(ctx, "GET", key)
	if err != nil {
		return nil, err
	}
	switch reply.kind {
	case kindNil:
		return nil, ErrNotFound
	case kindBulk:
		return reply.data, nil
	default:
		return nil, fmt.Errorf("store: unexpected GET reply kind %q", reply.kind)
	}
}

// Set stores bytes at key without expiry; the snapshot key is replaced whole
// on every aggregation run.
func (v *Valkey) Set(ctx context.Context, key string, value []byte) error {
	reply, err := v.commandBytes(ctx, [][]byte{[]byte("SET"), []byte(key), value})
	if err != nil {
		return err
	}
	if reply.kind != kindSimple || string(reply.data) != "OK" {
		return fmt.Errorf("store: unexpected SET response: %s", reply.data)
	}
	return nil
}

// RPush appends values to the tail of the list at key.
func (v *Valkey) RPush(ctx context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	args := make([][]byte, 0, len(values)+2)
	args = append(args, []byte("RPUSH"), []byte(key))
	args = append(args, values...)
	reply, err := v.commandBytes(ctx, args)
	if err != nil {
		return err
	}
	if reply.kind != kindInteger {
		return fmt.Errorf("store: unexpected RPUSH reply kind %q", reply.kind)
	}
	return nil
}

// LRange returns list elements between start and stop inclusive.
func (v *Valkey) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	reply, err := v.command(ctx, "LRANGE", key,
		strconv.FormatInt(start, 10), strconv.FormatInt(stop, 10))
	if err != nil {
		return nil, err
	}
	if reply.kind != kindArray {
		return nil, fmt.Errorf("store: unexpected LRANGE reply kind %q", reply.kind)
	}
	out := make([][]byte, 0, len(reply.elems))
	for _, el := range reply.elems {
		out = append(out, el.data)
	}
	return out, nil
}

// Del removes a key.
func (v *Valkey) Del(ctx context.Context, key string) error {
	_, err := v.command(ctx, "DEL", key)
	return err
}

// Close is a no-op; connections are per-operation.
func (v *Valkey) Close() error { return nil }

func (v *Valkey) command(ctx context.Context, parts ...string) (resp, error) {
	args := make([][]byte, 0, len(parts))
	for _, p := range parts {
		args = append(args, []byte(p))
	}
	return v.commandBytes(ctx, args)
}

func (v *Valkey) commandBytes(ctx context.Context, args [][]byte) (resp, error) {
	var lastErr error
	for attempt := 0; attempt < v.cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return resp{}, ctx.Err()
		}
		reply, err := v.roundTrip(ctx, args)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		if !retryable(err) || attempt == v.cfg.MaxRetries-1 {
			return resp{}, err
		}
		time.Sleep(time.Duration(1<<attempt) * 25 * time.Millisecond)
	}
	return resp{}, lastErr
}

func (v *Valkey) roundTrip(ctx context.Context, args [][]byte) (resp, error) {
	conn, err := v.dial(ctx)
	if err != nil {
		return resp{}, err
	}
	defer conn.conn.Close()

	if err := v.handshake(conn); err != nil {
		return resp{}, err
	}
	if err := conn.write(args); err != nil {
		return resp{}, err
	}
	return conn.read()
}

func (v *Valkey) dial(ctx context.Context) (*respConn, error) {
	dialer := net.Dialer{Timeout: v.cfg.DialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if v.cfg.TLS {
		host := v.cfg.Addr
		if h, _, splitErr := net.SplitHostPort(v.cfg.Addr); splitErr == nil {
			host = h
		}
		conn, err = tls.DialWithDialer(&dialer, "tcp", v.cfg.Addr,
			&tls.Config{MinVersion: tls.VersionTLS12, ServerName: host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", v.cfg.Addr)
	}
	if err != nil {
		return nil, err
	}
	return &respConn{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		writer:       bufio.NewWriter(conn),
		readTimeout:  v.cfg.ReadTimeout,
		writeTimeout: v.cfg.WriteTimeout,
	}, nil
}

func (v *Valkey) handshake(conn *respConn) error {
	if v.cfg.Password != "" {
		auth := [][]byte{[]byte("AUTH")}
		if v.cfg.Username != "" {
			auth = append(auth, []byte(v.cfg.Username))
		}
		auth = append(auth, []byte(v.cfg.Password))
		if err := conn.write(auth); err != nil {
			return err
		}
		reply, err := conn.read()
		if err != nil {
			return err
		}
		if reply.kind != kindSimple || !strings.EqualFold(string(reply.data), "OK") {
			return fmt.Errorf("store: auth failed: %s", reply.data)
		}
	}
	if v.cfg.DB > 0 {
		if err := conn.write([][]byte{[]byte("SELECT"), []byte(strconv.Itoa(v.cfg.DB))}); err != nil {
			return err
		}
		reply, err := conn.read()
		if err != nil {
			return err
		}
		if reply.kind != kindSimple || !strings.EqualFold(string(reply.data), "OK") {
			return fmt.Errorf("store: select failed: %s", reply.data)
		}
	}
	return nil
}

func retryable(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// replyKind enumerates the subset of RESP types the provider understands.
type replyKind byte

const (
	kindSimple  replyKind = '+'
	kindBulk    replyKind = '$'
	kindInteger replyKind = ':'
	kindArray   replyKind = '*'
	kindNil     replyKind = '_'
)

type resp struct {
	kind  replyKind
	data  []byte
	elems []resp
}

type respConn struct {
	conn         net.Conn
	reader       *bufio.Reader
	writer       *bufio.Writer
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func (c *respConn) write(parts [][]byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.writer, "*%d\r\n", len(parts)); err != nil {
		return err
	}
	for _, part := range parts {
		if _, err := fmt.Fprintf(c.writer, "$%d\r\n", len(part)); err != nil {
			return err
		}
		if _, err := c.writer.Write(part); err != nil {
			return err
		}
		if _, err := c.writer.WriteString("\r\n"); err != nil {
			return err
		}
	}
	return c.writer.Flush()
}

func (c *respConn) read() (resp, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return resp{}, err
	}
	return c.readReply()
}

func (c *respConn) readReply() (resp, error) {
	prefix, err := c.reader.ReadByte()
	if err != nil {
		return resp{}, err
	}
	switch prefix {
	case '+':
		line, err := c.readLine()
		return resp{kind: kindSimple, data: line}, err
	case '-':
		line, err := c.readLine()
		if err != nil {
			return resp{}, err
		}
		return resp{}, fmt.Errorf("store: server error: %s", line)
	case ':':
		line, err := c.readLine()
		return resp{kind: kindInteger, data: line}, err
	case '$':
		line, err := c.readLine()
		if err != nil {
			return resp{}, err
		}
		size, err := strconv.Atoi(string(line))
		if err != nil {
			return resp{}, err
		}
		if size < 0 {
			return resp{kind: kindNil}, nil
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(c.reader, buf); err != nil {
			return resp{}, err
		}
		if _, err := c.readLine(); err != nil {
			return resp{}, err
		}
		return resp{kind: kindBulk, data: buf}, nil
	case '*':
		line, err := c.readLine()
		if err != nil {
			return resp{}, err
		}
		count, err := strconv.Atoi(string(line))
		if err != nil {
			return resp{}, err
		}
		if count < 0 {
			return resp{kind: kindNil}, nil
		}
		elems := make([]resp, 0, count)
		for i := 0; i < count; i++ {
			el, err := c.readReply()
			if err != nil {
				return resp{}, err
			}
			elems = append(elems, el)
		}
		return resp{kind: kindArray, elems: elems}, nil
	default:
		return resp{}, fmt.Errorf("store: unexpected RESP prefix %q", prefix)
	}
}

func (c *respConn) readLine() ([]byte, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return nil, err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return []byte(line), nil
}
