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
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/nabbar/chatproxy/internal/apperr"
	"github.com/nabbar/chatproxy/internal/obslog"
)

// Resolver looks up the IPv4 addresses for host, the seam RequestHandler
// tests substitute to avoid real DNS traffic.
type Resolver interface {
	LookupIPv4(host string) ([]netip.Addr, error)
}

type netResolver struct{}

func (netResolver) LookupIPv4(host string) ([]netip.Addr, error) {
	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}

	var out []netip.Addr
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			addr, ok := netip.AddrFromSlice(v4)
			if ok {
				out = append(out, addr)
			}
		}
	}
	return out, nil
}

// Dialer opens the upstream TCP connection, the seam RequestHandler tests
// substitute for a real network dial.
type Dialer interface {
	Dial(addr string, port int) (net.Conn, error)
}

type netDialer struct{}

func (netDialer) Dial(addr string, port int) (net.Conn, error) {
	return net.Dial("tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
}

// RequestHandler runs one client connection through receive, parse, method
// check, port extraction, resolve, filter, and connect/forward/relay, in
// that order.
type RequestHandler struct {
	filters  *FilterList
	resolver Resolver
	dialer   Dialer
	log      *obslog.Logger
}

// NewRequestHandler builds a handler against a real resolver and dialer.
func NewRequestHandler(filters *FilterList, log *obslog.Logger) *RequestHandler {
	return &RequestHandler{filters: filters, resolver: netResolver{}, dialer: netDialer{}, log: log}
}

// Handle drives the whole request/response cycle for one accepted client
// connection, closing it before returning.
func (h *RequestHandler) Handle(client net.Conn) {
	defer client.Close()

	buf := make([]byte, BigBufferSize)
	n, err := client.Read(buf)
	if err != nil || n <= 0 {
		return
	}
	raw := buf[:n]

	req, err := ParseRequest(raw)
	if err != nil {
		h.reject(client, apperr.CodeOf(err))
		return
	}

	if req.Method != "GET" {
		h.reject(client, apperr.NotImplemented)
		return
	}

	addr, port := SplitHostPort(req.Host)

	ips, err := h.resolver.LookupIPv4(addr)
	if err != nil || len(ips) == 0 {
		h.reject(client, apperr.NotFound)
		return
	}

	for _, ip := range ips {
		if h.filters.Blocked(ip, req.Host) {
			h.reject(client, apperr.Forbidden)
			return
		}
	}

	upstream, err := h.dialer.Dial(ips[0].String(), port)
	if err != nil {
		h.reject(client, apperr.Internal)
		return
	}
	defer upstream.Close()

	rewritten := RewriteConnectionClose(raw)
	if _, err := upstream.Write(rewritten); err != nil {
		return
	}

	h.relay(upstream, client)
}

// relay streams bytes from origin to client until origin signals EOF or
// either side errors. A client-side write error (including a broken pipe,
// treated as a graceful disconnect rather than a failure) and an origin
// read error both end the task without retry.
func (h *RequestHandler) relay(origin, client net.Conn) {
	buf := make([]byte, BigBufferSize)
	for {
		n, err := origin.Read(buf)
		if n > 0 {
			if _, werr := client.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// reject synthesizes and sends the fixed-format HTML error response for
// code.
func (h *RequestHandler) reject(client net.Conn, code apperr.Code) {
	if code == apperr.Unknown {
		code = apperr.Internal
	}
	resp := RenderErrorResponse(code, time.Now())
	_, _ = client.Write(resp)
	if h.log != nil {
		h.log.With(obslog.Fields{"status": code.Int()}).Warn(fmt.Sprintf("rejected request: %s", code.Reason()))
	}
}
