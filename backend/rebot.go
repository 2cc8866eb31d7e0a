package backend

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/rob-gra/go-deviceaccess/catalogue"
	"github.com/rob-gra/go-deviceaccess/deverr"
)

func init() {
	Register("rebot", func(u URI) (Backend, error) {
		if u.Host == "" {
			return nil, deverr.New(deverr.WrongParameter, "rebot URI %q has no host:port", u.Raw)
		}
		return NewRebotBackend(u.Host), nil
	})
}

// Rebot's wire framing (spec.md §6 "Rebot over TCP"): every request and
// response is a 4-byte big-endian opcode, followed by a 4-byte big-endian
// payload length, followed by the payload.
const (
	rebotOpRead  uint32 = 1
	rebotOpWrite uint32 = 2
	rebotOpAck   uint32 = 3
)

const rebotSocketTimeout = 5 * time.Second

// RebotBackend is a TCP client for the Rebot line/frame protocol (spec.md
// §6): a minimal length-prefixed, big-endian request/response framing for
// read(bar,addr,n)/write(bar,addr,data), dialling with exponential
// backoff when opened, and applying a socket read/write deadline per
// spec.md §5's "TCP backends: socket timeout" requirement. A connection
// lost after Open is not re-dialled by later transfers.
type RebotBackend struct {
	addr string

	mu   sync.Mutex
	conn net.Conn
	open bool
	cat  *catalogue.Catalogue
}

// NewRebotBackend returns a closed RebotBackend dialing addr ("host:port")
// on Open.
func NewRebotBackend(addr string) *RebotBackend {
	return &RebotBackend{addr: addr, cat: catalogue.New()}
}

// SetCatalogue installs the RegisterCatalogue this backend reports.
func (b *RebotBackend) SetCatalogue(c *catalogue.Catalogue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cat = c
}

func (b *RebotBackend) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.dialLocked(ctx); err != nil {
		return err
	}
	b.open = true
	return nil
}

// dialLocked connects with exponential backoff. Caller holds b.mu.
func (b *RebotBackend) dialLocked(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		var dialer net.Dialer
		conn, err := dialer.DialContext(ctx, "tcp", b.addr)
		if err == nil {
			b.conn = conn
			return nil
		}
		lastErr = err

		if attempt == 4 {
			break
		}
		select {
		case <-ctx.Done():
			return deverr.Wrap(deverr.IOError, ctx.Err(), "rebot dial %s cancelled", b.addr)
		case <-time.After(bo.NextBackOff()):
		}
	}
	return deverr.Wrap(deverr.IOError, lastErr, "rebot dial %s failed after retries", b.addr)
}

func (b *RebotBackend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	if err != nil {
		return deverr.Wrap(deverr.IOError, err, "rebot close %s", b.addr)
	}
	return nil
}

func (b *RebotBackend) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *RebotBackend) roundTrip(op uint32, payload []byte) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open || b.conn == nil {
		return nil, deverr.New(deverr.NotOpened, "rebot backend %s is not open", b.addr)
	}
	_ = b.conn.SetDeadline(time.Now().Add(rebotSocketTimeout))

	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], op)
	binary.BigEndian.PutUint32(header[4:8], uint32(len(payload)))
	if _, err := b.conn.Write(header); err != nil {
		return nil, deverr.Wrap(deverr.IOError, err, "rebot write header")
	}
	if len(payload) > 0 {
		if _, err := b.conn.Write(payload); err != nil {
			return nil, deverr.Wrap(deverr.IOError, err, "rebot write payload")
		}
	}

	respHeader := make([]byte, 8)
	if _, err := readFull(b.conn, respHeader); err != nil {
		return nil, deverr.Wrap(deverr.IOError, err, "rebot read response header")
	}
	respOp := binary.BigEndian.Uint32(respHeader[0:4])
	respLen := binary.BigEndian.Uint32(respHeader[4:8])
	if respOp != rebotOpAck {
		return nil, deverr.New(deverr.IOError, "rebot unexpected response opcode %d", respOp)
	}
	resp := make([]byte, respLen)
	if respLen > 0 {
		if _, err := readFull(b.conn, resp); err != nil {
			return nil, deverr.Wrap(deverr.IOError, err, "rebot read response payload")
		}
	}
	return resp, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (b *RebotBackend) Read(ctx context.Context, bar uint8, address uint32, dst []byte) error {
	req := make([]byte, 9)
	req[0] = bar
	binary.BigEndian.PutUint32(req[1:5], address)
	binary.BigEndian.PutUint32(req[5:9], uint32(len(dst)))

	resp, err := b.roundTrip(rebotOpRead, req)
	if err != nil {
		return err
	}
	if len(resp) != len(dst) {
		return deverr.New(deverr.IOError, "rebot read returned %d bytes, want %d", len(resp), len(dst))
	}
	copy(dst, resp)
	return nil
}

func (b *RebotBackend) Write(ctx context.Context, bar uint8, address uint32, src []byte) error {
	req := make([]byte, 5+len(src))
	req[0] = bar
	binary.BigEndian.PutUint32(req[1:5], address)
	copy(req[5:], src)

	_, err := b.roundTrip(rebotOpWrite, req)
	return err
}

func (b *RebotBackend) RegisterCatalogue() *catalogue.Catalogue {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cat
}

func (b *RebotBackend) ReadDeviceInfo(ctx context.Context) (string, error) {
	return "RebotBackend(" + b.addr + ")", nil
}
