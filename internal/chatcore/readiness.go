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

// Package chatcore is the single-threaded, readiness-multiplexed connection
// table and event loop backing the chat broadcast server.
package chatcore

import "golang.org/x/sys/unix"

// MaxHandle is the largest socket handle the readiness mechanism can
// represent: unix.FdSet on Linux is 16 64-bit words, 1024 bits.
const MaxHandle = 1024

// ReadinessSet holds the two interest bitmaps the event loop waits on: which
// handles are of interest for readability, and which for writability.
// Standard descriptors 0, 1 and 2 are never members of either set.
type ReadinessSet struct {
	readable unix.FdSet
	writable unix.FdSet
}

// NewReadinessSet returns an empty ReadinessSet.
func NewReadinessSet() *ReadinessSet {
	return &ReadinessSet{}
}

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << uint(fd%64)
}

func fdClr(set *unix.FdSet, fd int) {
	set.Bits[fd/64] &^= 1 << uint(fd%64)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/64]&(1<<uint(fd%64)) != 0
}

// AddReadable marks handle as interesting for readability.
func (r *ReadinessSet) AddReadable(handle int) {
	fdSet(&r.readable, handle)
}

// RemoveReadable clears handle's readability interest.
func (r *ReadinessSet) RemoveReadable(handle int) {
	fdClr(&r.readable, handle)
}

// IsReadable reports whether handle currently carries readability interest.
func (r *ReadinessSet) IsReadable(handle int) bool {
	return fdIsSet(&r.readable, handle)
}

// AddWritable marks handle as interesting for writability. The event loop
// calls this only when a connection's outgoing FIFO becomes non-empty.
func (r *ReadinessSet) AddWritable(handle int) {
	fdSet(&r.writable, handle)
}

// RemoveWritable clears handle's writability interest. The event loop calls
// this once a connection's outgoing FIFO has fully drained.
func (r *ReadinessSet) RemoveWritable(handle int) {
	fdClr(&r.writable, handle)
}

// IsWritable reports whether handle currently carries writability interest.
func (r *ReadinessSet) IsWritable(handle int) bool {
	return fdIsSet(&r.writable, handle)
}

// Snapshot returns copies of both bitmaps as they stand at the call site,
// the per-iteration copy select(2) needs since it mutates its arguments in
// place to report which handles are actually ready.
func (r *ReadinessSet) Snapshot() (readable, writable unix.FdSet) {
	return r.readable, r.writable
}
