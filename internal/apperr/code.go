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

// Package apperr carries a numeric code alongside an error, the way a caller
// decides whether a failure is a client-facing HTTP status or an internal
// chat-core condition without parsing message strings.
package apperr

// Code is a small closed set of condition codes. The proxy codes line up
// with the HTTP status they produce; the chat-core codes never reach a wire
// response and only drive internal control flow.
type Code uint16

const (
	// Unknown is the zero value; never intentionally returned.
	Unknown Code = 0

	// BadRequest means the request line or headers could not be parsed.
	BadRequest Code = 400
	// Forbidden means the resolved address matched a filter entry.
	Forbidden Code = 403
	// NotFound means DNS resolution returned no usable address.
	NotFound Code = 404
	// Internal means a server-side failure unrelated to the request itself.
	Internal Code = 500
	// NotImplemented means the request method was not GET.
	NotImplemented Code = 501

	// ResourceExhausted means a connection handle exceeds what the
	// readiness mechanism can represent, or a requested worker count is
	// outside the pool's allowed range.
	ResourceExhausted Code = 600
	// Disconnect means a connection's read or write path ended and the
	// connection must be removed from the table.
	Disconnect Code = 601
)

var reason = map[Code]string{
	BadRequest:        "Bad Request",
	Forbidden:         "Forbidden",
	NotFound:          "Not Found",
	Internal:          "Internal Server Err",
	NotImplemented:    "Not supported",
	ResourceExhausted: "resource exhausted",
	Disconnect:        "disconnect",
}

var message = map[Code]string{
	BadRequest:        "Bad Request.",
	Forbidden:         "Access denied.",
	NotFound:          "File not found.",
	Internal:          "Some server side error.",
	NotImplemented:    "Method is not supported.",
	ResourceExhausted: "connection handle exceeds readiness set capacity",
	Disconnect:        "connection closed",
}

// Reason is the short HTTP reason phrase used in a status line and in the
// error page's title and heading.
func (c Code) Reason() string {
	if r, ok := reason[c]; ok {
		return r
	}
	return "Unknown"
}

// Message is the human-readable body line for the HTML error page.
func (c Code) Message() string {
	if m, ok := message[c]; ok {
		return m
	}
	return "Unknown error."
}

func (c Code) Int() int {
	return int(c)
}
