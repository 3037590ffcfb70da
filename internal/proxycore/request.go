/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package proxycore

import (
	"strconv"
	"strings"

	"github.com/nabbar/chatproxy/internal/apperr"
)

const (
	// BigBufferSize bounds the request read and the response relay.
	BigBufferSize = 8 * 1024
	// MediumBufferSize bounds path and host fields.
	MediumBufferSize = 512
	// SmallBufferSize bounds method and protocol fields.
	SmallBufferSize = 128
)

// ParsedRequest is the result of tokenizing one HTTP request line plus a
// Host header, without mutating the underlying byte slice, so the same
// bytes can still be forwarded upstream after only the Connection header
// is rewritten.
type ParsedRequest struct {
	Method   string
	Path     string
	Protocol string
	Host     string
}

var validProtocols = map[string]bool{
	"HTTP/1.0": true,
	"HTTP/1.1": true,
	"HTTP/2.0": true,
}

// ParseRequest tokenizes the request line by spaces into method, path and
// protocol, then scans for the first "Host: " prefix anywhere in the
// buffer and takes one whitespace-delimited token as the host value.
// Failure on any of the four fields yields apperr.BadRequest.
func ParseRequest(raw []byte) (ParsedRequest, error) {
	text := string(raw)

	line, _, _ := strings.Cut(text, "\r\n")
	if line == "" {
		line, _, _ = strings.Cut(text, "\n")
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return ParsedRequest{}, apperr.New(apperr.BadRequest, "malformed request line")
	}

	method := fields[0]
	path := fields[1]
	protocol := fields[2]

	if len(method) == 0 || len(method) > SmallBufferSize {
		return ParsedRequest{}, apperr.New(apperr.BadRequest, "malformed method")
	}
	if len(path) == 0 || len(path) > MediumBufferSize {
		return ParsedRequest{}, apperr.New(apperr.BadRequest, "malformed path")
	}
	if !validProtocols[protocol] {
		return ParsedRequest{}, apperr.New(apperr.BadRequest, "unsupported protocol")
	}

	host, err := findHost(text)
	if err != nil {
		return ParsedRequest{}, err
	}

	return ParsedRequest{Method: method, Path: path, Protocol: protocol, Host: host}, nil
}

func findHost(text string) (string, error) {
	idx := strings.Index(text, "Host: ")
	if idx < 0 {
		return "", apperr.New(apperr.BadRequest, "missing Host header")
	}

	rest := text[idx+len("Host: "):]
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", apperr.New(apperr.BadRequest, "empty Host header")
	}

	host := fields[0]
	if len(host) > MediumBufferSize {
		return "", apperr.New(apperr.BadRequest, "Host header too long")
	}

	return host, nil
}

// SplitHostPort finds the rightmost ':' in host and returns the address and
// port. An absent or invalid port defaults to 80.
func SplitHostPort(host string) (addr string, port int) {
	idx := strings.LastIndex(host, ":")
	if idx < 0 {
		return host, 80
	}

	p, err := strconv.Atoi(host[idx+1:])
	if err != nil || p < 1 || p > 65535 {
		return host, 80
	}

	return host[:idx], p
}

// RewriteConnectionClose returns raw with its Connection header forced to
// "close": unchanged if already "close", value-replaced in place if
// "keep-alive" (preserving header count and overall structure), or inserted
// before the header/body separator if absent entirely. This operation must
// be idempotent: re-applying it to its own output is a no-op.
func RewriteConnectionClose(raw []byte) []byte {
	text := string(raw)
	lower := strings.ToLower(text)

	const header = "connection:"
	idx := strings.Index(lower, header)
	if idx >= 0 {
		lineEnd := strings.IndexAny(text[idx:], "\r\n")
		var line string
		if lineEnd < 0 {
			line = text[idx:]
		} else {
			line = text[idx : idx+lineEnd]
		}

		value := strings.TrimSpace(line[len(header):])
		if strings.EqualFold(value, "close") {
			return raw
		}

		newLine := "Connection: close"
		var end int
		if lineEnd < 0 {
			end = len(text)
		} else {
			end = idx + lineEnd
		}
		return []byte(text[:idx] + newLine + text[end:])
	}

	if sep := strings.Index(text, "\r\n\r\n"); sep >= 0 {
		cut := sep + len("\r\n")
		return []byte(text[:cut] + "Connection: close\r\n" + text[cut:])
	}
	if sep := strings.Index(text, "\n\n"); sep >= 0 {
		cut := sep + len("\n")
		return []byte(text[:cut] + "Connection: close\n" + text[cut:])
	}

	return []byte(text + "Connection: close\r\n")
}
