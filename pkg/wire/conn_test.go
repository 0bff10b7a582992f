package wire

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"
)

func connPair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	ca := NewConn(a, "a")
	cb := NewConn(b, "b")
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})
	return ca, cb
}

func TestConnRoundTrip(t *testing.T) {
	ca, cb := connPair(t)

	want := Interact{Tag: 7, Kind: EventClick, Button: ButtonLeft, Col: 3, Row: 0}
	if err := ca.SendPayload(TypeInteract, want); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m, err := cb.Recv(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if m.Type != TypeInteract {
		t.Fatalf("expected %s, got %s", TypeInteract, m.Type)
	}
	var got Interact
	if err := m.Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestConnPreservesOrder(t *testing.T) {
	ca, cb := connPair(t)

	const n = 50
	for i := 0; i < n; i++ {
		if err := ca.SendPayload(TypeResize, Resize{Cols: i}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		m, err := cb.Recv(ctx)
		if err != nil {
			t.Fatal(err)
		}
		var r Resize
		if err := m.Decode(&r); err != nil {
			t.Fatal(err)
		}
		if r.Cols != i {
			t.Fatalf("message %d arrived with Cols=%d", i, r.Cols)
		}
	}
}

// A garbled frame must be discarded without disturbing the frames around it.
func TestConnRecoversFromCorruptFrame(t *testing.T) {
	a, b := net.Pipe()
	cb := NewConn(b, "b")
	t.Cleanup(func() {
		a.Close()
		cb.Close()
	})

	frame := func(t MsgType, payload any) []byte {
		m, err := NewMessage(t, payload)
		if err != nil {
			panic(err)
		}
		body, err := json.Marshal(m)
		if err != nil {
			panic(err)
		}
		return append(Stuff(body), Delim)
	}

	var buf []byte
	buf = append(buf, frame(TypeResize, Resize{Cols: 1})...)
	buf = append(buf, 0xFF, 0xFF, 0x01, 0x00) // truncated garbage frame
	buf = append(buf, frame(TypeResize, Resize{Cols: 2})...)
	go a.Write(buf)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, want := range []int{1, 2} {
		m, err := cb.Recv(ctx)
		if err != nil {
			t.Fatal(err)
		}
		var r Resize
		if err := m.Decode(&r); err != nil {
			t.Fatal(err)
		}
		if r.Cols != want {
			t.Fatalf("expected Cols=%d, got %d", want, r.Cols)
		}
	}
}

func TestConnRecvFailsAfterPeerCloses(t *testing.T) {
	ca, cb := connPair(t)
	ca.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := cb.Recv(ctx); err == nil {
		t.Fatal("expected error after peer closed")
	}
}

func TestConnDropsPartialFrameAtStreamEnd(t *testing.T) {
	a, b := net.Pipe()
	cb := NewConn(b, "b")
	t.Cleanup(func() {
		a.Close()
		cb.Close()
	})

	frame := func(cols int) []byte {
		m, err := NewMessage(TypeResize, Resize{Cols: cols})
		if err != nil {
			panic(err)
		}
		body, err := json.Marshal(m)
		if err != nil {
			panic(err)
		}
		return Stuff(body)
	}

	// One complete frame, then a decodable frame with no delimiter before
	// the stream dies. The partial must be dropped, not decoded.
	var buf []byte
	buf = append(buf, frame(1)...)
	buf = append(buf, Delim)
	buf = append(buf, frame(2)...)
	go func() {
		a.Write(buf)
		a.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m, err := cb.Recv(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var r Resize
	if err := m.Decode(&r); err != nil {
		t.Fatal(err)
	}
	if r.Cols != 1 {
		t.Fatalf("expected Cols=1, got %d", r.Cols)
	}
	if _, err := cb.Recv(ctx); err == nil {
		t.Fatal("the undelimited trailing frame must not surface as a message")
	}
}
