// Package wire implements the controller<->panel transport: COBS-framed JSON
// messages over a duplex byte stream, with an unbounded queue on each side so
// neither peer can stall the other.
package wire

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"sync"
)

// ErrClosed is returned by Recv once the connection is dead and the inbound
// queue has been drained.
var ErrClosed = errors.New("wire: connection closed")

// queue is an unbounded FIFO of messages.
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Message
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queue) push(m Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, m)
	q.cond.Signal()
	return true
}

// pop blocks until an item is available or the queue is closed and empty.
func (q *queue) pop() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return Message{}, false
	}
	m := q.items[0]
	q.items = q.items[1:]
	return m, true
}

func (q *queue) close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

// Conn wraps a byte stream in the framed message protocol. Both directions
// are queued without bound: Send never blocks, and a slow consumer on either
// end only grows memory, never deadlocks the peer.
type Conn struct {
	nc   net.Conn
	name string

	in   *queue
	out  *queue
	recv chan Message

	closeOnce sync.Once
	done      chan struct{}

	errMu sync.Mutex
	err   error
}

// NewConn starts the reader and writer loops over nc. The name appears in
// log lines for this connection.
func NewConn(nc net.Conn, name string) *Conn {
	c := &Conn{
		nc:   nc,
		name: name,
		in:   newQueue(),
		out:  newQueue(),
		recv: make(chan Message),
		done: make(chan struct{}),
	}
	go c.readLoop()
	go c.writeLoop()
	go c.pumpLoop()
	return c
}

// Send queues m for delivery. It never blocks; a send on a dead connection
// is silently dropped, and the caller learns of the failure from Recv or Err.
func (c *Conn) Send(m Message) {
	c.out.push(m)
}

// SendPayload wraps payload in an envelope and queues it.
func (c *Conn) SendPayload(t MsgType, payload any) error {
	m, err := NewMessage(t, payload)
	if err != nil {
		return err
	}
	c.Send(m)
	return nil
}

// Recv blocks until a message arrives, the connection dies, or ctx is done.
func (c *Conn) Recv(ctx context.Context) (Message, error) {
	select {
	case m, ok := <-c.recv:
		if !ok {
			return Message{}, c.failure()
		}
		return m, nil
	case <-c.done:
		return Message{}, c.failure()
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Err reports why the connection died, or nil while it is still up.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Done is closed when the connection is no longer usable.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down. Queued outbound messages are dropped.
func (c *Conn) Close() error {
	c.fail(ErrClosed)
	return nil
}

func (c *Conn) failure() error {
	if err := c.Err(); err != nil {
		return err
	}
	return ErrClosed
}

// fail records the first fatal error and shuts everything down.
func (c *Conn) fail(err error) {
	c.closeOnce.Do(func() {
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		c.in.close()
		c.out.close()
		c.nc.Close()
		close(c.done)
	})
}

// readLoop splits the stream on delimiters and decodes frames. Malformed
// frames are logged and skipped; the loop resynchronizes on the next
// delimiter. Only a stream-level read error ends the loop.
func (c *Conn) readLoop() {
	r := bufio.NewReader(c.nc)
	for {
		raw, err := r.ReadBytes(Delim)
		// Only delimiter-terminated frames count; a trailing partial
		// read left by a dying stream is dropped, not decoded.
		if n := len(raw); n > 0 && raw[n-1] == Delim {
			if frame := raw[:n-1]; len(frame) > 0 {
				c.decodeFrame(frame)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("wire[%s]: read: %v", c.name, err)
			}
			c.fail(err)
			return
		}
	}
}

func (c *Conn) decodeFrame(frame []byte) {
	body, err := Unstuff(frame)
	if err != nil {
		log.Printf("wire[%s]: discarding malformed frame: %v", c.name, err)
		return
	}
	var m Message
	if err := json.Unmarshal(body, &m); err != nil {
		log.Printf("wire[%s]: discarding undecodable frame: %v", c.name, err)
		return
	}
	c.in.push(m)
}

func (c *Conn) writeLoop() {
	for {
		m, ok := c.out.pop()
		if !ok {
			return
		}
		body, err := json.Marshal(m)
		if err != nil {
			log.Printf("wire[%s]: dropping unencodable message %s: %v", c.name, m.Type, err)
			continue
		}
		buf := append(Stuff(body), Delim)
		if _, err := c.nc.Write(buf); err != nil {
			log.Printf("wire[%s]: write: %v", c.name, err)
			c.fail(err)
			return
		}
	}
}

// pumpLoop hands decoded messages to Recv in order.
func (c *Conn) pumpLoop() {
	for {
		m, ok := c.in.pop()
		if !ok {
			close(c.recv)
			return
		}
		select {
		case c.recv <- m:
		case <-c.done:
			return
		}
	}
}
