package mail

import (
	"context"
	"io"
	"net"
	"testing"
	"time"
)

func TestDialTimesOutOnStalledServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	// Accept the connection but never send a greeting or answer LOGIN.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(io.Discard, conn)
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	acct := Account{
		Host:     host,
		Port:     port,
		Username: "bob",
		Password: "secret",
		Security: SecurityNone,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = Dial(ctx, acct)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Dial succeeded against a server that never answers")
	}
	if !IsTransportError(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
	if elapsed > 5*time.Second {
		t.Fatalf("Dial returned after %v, want the context deadline to bound it", elapsed)
	}
}
