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
	"sync/atomic"

	"github.com/nabbar/chatproxy/internal/obslog"
	"golang.org/x/sys/unix"
)

// ReadBufferSize is the per-read bound on a single client socket: one read,
// one broadcast, no continuation read within the same event.
const ReadBufferSize = 1024

// EventLoop is the single-threaded, cooperative loop driving the chat
// server: one suspension point (readiness wait), non-blocking sockets, no
// locking. Stop is checked at the top of every iteration.
type EventLoop struct {
	listenFD int
	table    *ConnectionTable
	readySet *ReadinessSet
	stop     *atomic.Bool
	log      *obslog.Logger
}

// NewEventLoop wires a loop around an already-bound, already-listening,
// non-blocking socket handle.
func NewEventLoop(listenFD int, table *ConnectionTable, readySet *ReadinessSet, stop *atomic.Bool, log *obslog.Logger) *EventLoop {
	return &EventLoop{listenFD: listenFD, table: table, readySet: readySet, stop: stop, log: log}
}

// Run blocks until stop is set (or select(2) fails while stop is set),
// then removes every live connection, closes the listening socket, and
// returns. A readiness-wait error is fatal only when termination was
// requested; otherwise the loop retries.
func (l *EventLoop) Run() error {
	for !l.stop.Load() {
		readSnap, writeSnap := l.readySet.Snapshot()

		n, err := unix.Select(l.table.MaxHandle()+1, &readSnap, &writeSnap, nil, nil)
		if err != nil {
			if l.stop.Load() {
				break
			}
			l.log.Warn("select failed, retrying: " + err.Error())
			continue
		}
		if n == 0 {
			continue
		}

		for fd := l.listenFD; fd <= l.table.MaxHandle(); fd++ {
			if fdIsSet(&readSnap, fd) {
				if fd == l.listenFD {
					l.accept()
				} else {
					l.receive(fd)
				}
			}
			if fdIsSet(&writeSnap, fd) {
				l.table.Flush(fd)
			}
		}
	}

	l.shutdown()
	return nil
}

// accept takes one pending connection off the listening socket's backlog.
// An accept failure is logged and does not disturb existing connections.
func (l *EventLoop) accept() {
	nfd, _, err := unix.Accept(l.listenFD)
	if err != nil {
		l.log.Warn("accept failed: " + err.Error())
		return
	}

	if err := unix.SetNonblock(nfd, true); err != nil {
		l.log.Warn("setting accepted socket non-blocking failed: " + err.Error())
		_ = unix.Close(nfd)
		return
	}

	if err := l.table.Insert(nfd); err != nil {
		l.log.Warn("dropping accepted connection: " + err.Error())
		_ = unix.Close(nfd)
		return
	}

	l.log.With(obslog.Fields{"handle": nfd}).Info("accepted connection")
}

// receive performs the one bounded read the event loop allows per readable
// client per iteration, and either broadcasts the uppercased bytes or
// removes the connection on EOF/error.
func (l *EventLoop) receive(fd int) {
	buf := make([]byte, ReadBufferSize)
	n, err := unix.Read(fd, buf)
	if err != nil || n <= 0 {
		l.table.Remove(fd)
		return
	}

	l.table.Broadcast(fd, UppercaseASCII(buf[:n]))
}

// shutdown removes every live connection, then closes the listening socket.
func (l *EventLoop) shutdown() {
	for fd := l.listenFD + 1; fd <= l.table.MaxHandle(); fd++ {
		if l.table.Has(fd) {
			l.table.Remove(fd)
		}
	}
	_ = unix.Close(l.listenFD)
}
