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
	"time"

	"github.com/nabbar/chatproxy/internal/apperr"
)

const bodyTemplate = "<HTML><HEAD><TITLE>%d %s</TITLE></HEAD>\n<BODY><H4>%d %s</H4>\n%s\n</BODY></HTML>"

// gmt gives Date headers the literal "GMT" zone abbreviation RFC 1123 HTTP
// dates use, rather than Go's "UTC" for the zero-offset location.
var gmt = time.FixedZone("GMT", 0)

// RenderErrorResponse builds a complete HTTP/1.1 error response: status
// line, Server/Date/Content-Type/Content-Length/Connection headers, a blank
// line, and an HTML body, exactly per the fixed code/reason/message table.
func RenderErrorResponse(code apperr.Code, now time.Time) []byte {
	reason := code.Reason()
	message := code.Message()
	body := fmt.Sprintf(bodyTemplate, code.Int(), reason, code.Int(), reason, message)

	head := fmt.Sprintf(
		"HTTP/1.1 %d %s\r\n"+
			"Server: webserver/1.0\r\n"+
			"Date: %s\r\n"+
			"Content-Type: text/html\r\n"+
			"Content-Length: %d\r\n"+
			"Connection: close\r\n"+
			"\r\n",
		code.Int(), reason, now.In(gmt).Format(time.RFC1123), len(body),
	)

	return []byte(head + body)
}
