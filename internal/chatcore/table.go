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

//go:build linux

package chatcore

import (
	"github.com/nabbar/chatproxy/internal/apperr"
	"golang.org/x/sys/unix"
)

// Connection is one live client socket plus its outgoing FIFO of owned
// byte-buffer messages.
type Connection struct {
	Handle int
	queue  [][]byte
}

// Writer abstracts the raw socket I/O a Connection is flushed through, so
// ConnectionTable can be exercised in tests without real file descriptors.
type Writer interface {
	Write(fd int, p []byte) (int, error)
	Close(fd int) error
}

type sysWriter struct{}

func (sysWriter) Write(fd int, p []byte) (int, error) { return unix.Write(fd, p) }
func (sysWriter) Close(fd int) error                  { return unix.Close(fd) }

// ConnectionTable tracks every live connection, keeps the readable/writable
// interest bitmaps in step with table membership and per-connection FIFO
// state, and recomputes the event loop's upper scan bound (max handle)
// whenever the handle currently holding that bound is removed.
type ConnectionTable struct {
	conns     map[int]*Connection
	maxHandle int
	listening int
	readiness *ReadinessSet
	io        Writer
}

// NewConnectionTable returns an empty table whose max-handle lower bound is
// the listening socket's own handle, so the bound never falls below it even
// with zero clients connected.
func NewConnectionTable(listening int, readiness *ReadinessSet) *ConnectionTable {
	return &ConnectionTable{
		conns:     make(map[int]*Connection),
		maxHandle: listening,
		listening: listening,
		readiness: readiness,
		io:        sysWriter{},
	}
}

// MaxHandle is the current upper bound the event loop scans up to,
// inclusive.
func (t *ConnectionTable) MaxHandle() int {
	return t.maxHandle
}

// Count returns the number of live client connections (excludes the
// listening socket).
func (t *ConnectionTable) Count() int {
	return len(t.conns)
}

// Has reports whether handle is a live connection in the table.
func (t *ConnectionTable) Has(handle int) bool {
	_, ok := t.conns[handle]
	return ok
}

// Insert adds a new connection with an empty FIFO, marks it interesting for
// readability, and updates the max handle bound. It fails with
// apperr.ResourceExhausted if handle exceeds what the readiness mechanism
// can represent; the caller is expected to close the underlying socket and
// otherwise continue serving existing connections.
func (t *ConnectionTable) Insert(handle int) error {
	if handle < 0 || handle >= MaxHandle {
		return apperr.Newf(apperr.ResourceExhausted, "handle %d exceeds readiness set capacity", handle)
	}

	t.conns[handle] = &Connection{Handle: handle}
	t.readiness.AddReadable(handle)

	if handle > t.maxHandle {
		t.maxHandle = handle
	}

	return nil
}

// Remove drains and releases handle's outgoing FIFO, clears both interest
// bits, closes the socket, and recomputes the max handle bound if handle
// was it. Removing a handle not present in the table is a no-op.
func (t *ConnectionTable) Remove(handle int) {
	if _, ok := t.conns[handle]; !ok {
		return
	}

	delete(t.conns, handle)
	t.readiness.RemoveReadable(handle)
	t.readiness.RemoveWritable(handle)
	_ = t.io.Close(handle)

	if handle == t.maxHandle {
		t.recomputeMaxHandle()
	}
}

// recomputeMaxHandle scans the remaining live connections for the new
// maximum, with the listening socket's own handle as the floor.
func (t *ConnectionTable) recomputeMaxHandle() {
	newMax := t.listening
	for h := range t.conns {
		if h > newMax {
			newMax = h
		}
	}
	t.maxHandle = newMax
}

// Enqueue appends a copy of data to handle's outgoing FIFO and marks it
// interesting for writability. Enqueuing to a handle not present in the
// table is a no-op.
func (t *ConnectionTable) Enqueue(handle int, data []byte) {
	conn, ok := t.conns[handle]
	if !ok {
		return
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	conn.queue = append(conn.queue, buf)
	t.readiness.AddWritable(handle)
}

// Broadcast enqueues data to every connection other than sender.
func (t *ConnectionTable) Broadcast(sender int, data []byte) {
	for handle := range t.conns {
		if handle == sender {
			continue
		}
		t.Enqueue(handle, data)
	}
}

// Flush writes queued messages for handle, in order, until the FIFO empties
// or a write fails. A write returning zero or a negative count is treated as
// an unrecoverable error: the connection is removed from the table. A
// successful full drain clears the writability interest bit.
func (t *ConnectionTable) Flush(handle int) {
	conn, ok := t.conns[handle]
	if !ok {
		return
	}

	for len(conn.queue) > 0 {
		msg := conn.queue[0]
		n, err := t.io.Write(handle, msg)
		if err != nil || n <= 0 {
			t.Remove(handle)
			return
		}
		if n < len(msg) {
			conn.queue[0] = msg[n:]
			continue
		}
		conn.queue = conn.queue[1:]
	}

	t.readiness.RemoveWritable(handle)
}

// UppercaseASCII returns a new slice the same length as data with ASCII
// letters uppercased and every other byte passed through unchanged.
func UppercaseASCII(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 'a' && b <= 'z' {
			out[i] = b - ('a' - 'A')
		} else {
			out[i] = b
		}
	}
	return out
}
