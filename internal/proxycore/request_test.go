package proxycore

import (
	"strings"
	"testing"

	"github.com/nabbar/chatproxy/internal/apperr"
)

func TestParseRequestExtractsMethodPathProtocolHost(t *testing.T) {
	raw := []byte("GET /posts/1 HTTP/1.1\r\nHost: jsonplaceholder.typicode.com\r\nAccept: */*\r\n\r\n")

	req, err := ParseRequest(raw)
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Method != "GET" || req.Path != "/posts/1" || req.Protocol != "HTTP/1.1" {
		t.Fatalf("unexpected parse: %+v", req)
	}
	if req.Host != "jsonplaceholder.typicode.com" {
		t.Fatalf("Host = %q, want jsonplaceholder.typicode.com", req.Host)
	}
}

func TestParseRequestRejectsBadProtocol(t *testing.T) {
	raw := []byte("GET / FOO/9.9\r\nHost: example.com\r\n\r\n")
	if _, err := ParseRequest(raw); apperr.CodeOf(err) != apperr.BadRequest {
		t.Fatalf("expected BadRequest for malformed protocol, got %v", err)
	}
}

func TestParseRequestRejectsMissingHost(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nAccept: */*\r\n\r\n")
	if _, err := ParseRequest(raw); apperr.CodeOf(err) != apperr.BadRequest {
		t.Fatalf("expected BadRequest for missing Host header, got %v", err)
	}
}

func TestSplitHostPortDefaultsTo80(t *testing.T) {
	addr, port := SplitHostPort("example.com")
	if addr != "example.com" || port != 80 {
		t.Fatalf("SplitHostPort = (%q, %d), want (example.com, 80)", addr, port)
	}

	addr, port = SplitHostPort("example.com:8080")
	if addr != "example.com" || port != 8080 {
		t.Fatalf("SplitHostPort = (%q, %d), want (example.com, 8080)", addr, port)
	}
}

func TestRewriteConnectionCloseAlreadyClosedIsUnchanged(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")
	got := RewriteConnectionClose(raw)
	if string(got) != string(raw) {
		t.Fatalf("already-close request must be returned unchanged, got %q", got)
	}
}

func TestRewriteConnectionCloseReplacesKeepAliveInPlace(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: keep-alive\r\n\r\n")
	got := RewriteConnectionClose(raw)

	wantHeaderCount := strings.Count(string(raw), "\r\n")
	gotHeaderCount := strings.Count(string(got), "\r\n")
	if wantHeaderCount != gotHeaderCount {
		t.Fatalf("header-line count changed: got %d, want %d", gotHeaderCount, wantHeaderCount)
	}
	if !strings.Contains(string(got), "Connection: close") {
		t.Fatalf("expected Connection: close, got %q", got)
	}
	if strings.Contains(string(got), "keep-alive") {
		t.Fatalf("keep-alive value should have been replaced, got %q", got)
	}
}

func TestRewriteConnectionCloseInsertsWhenAbsent(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	got := RewriteConnectionClose(raw)

	if !strings.Contains(string(got), "Connection: close\r\n\r\n") {
		t.Fatalf("expected inserted Connection header before blank line, got %q", got)
	}
}

func TestRewriteConnectionCloseIsIdempotent(t *testing.T) {
	raw := []byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: keep-alive\r\n\r\n")
	once := RewriteConnectionClose(raw)
	twice := RewriteConnectionClose(once)

	if string(once) != string(twice) {
		t.Fatalf("rewrite must be idempotent: once=%q twice=%q", once, twice)
	}
}
