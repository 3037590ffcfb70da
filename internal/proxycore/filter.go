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
	"bufio"
	"fmt"
	"net/netip"
	"os"
	"strings"
)

// FilterEntry is one line of the filter file: either a literal host string
// or an IPv4 CIDR. A line is a CIDR iff its first byte is an ASCII digit;
// a bare address with no "/prefix" is treated as a /32.
type FilterEntry struct {
	literal string
	prefix  netip.Prefix
	isCIDR  bool
}

// ParseFilterEntry classifies one filter-file line.
func ParseFilterEntry(line string) (FilterEntry, error) {
	if len(line) == 0 || line[0] < '0' || line[0] > '9' {
		return FilterEntry{literal: line}, nil
	}

	text := line
	if !strings.Contains(text, "/") {
		text += "/32"
	}

	prefix, err := netip.ParsePrefix(text)
	if err != nil {
		return FilterEntry{}, fmt.Errorf("invalid CIDR filter entry %q: %w", line, err)
	}

	return FilterEntry{prefix: prefix, isCIDR: true}, nil
}

// Matches reports whether addr or host (the unparsed Host header value) is
// covered by this entry. A CIDR entry only ever matches by address; a
// literal entry only ever matches by exact host-string equality.
func (f FilterEntry) Matches(addr netip.Addr, host string) bool {
	if f.isCIDR {
		return f.prefix.Contains(addr)
	}
	return f.literal == host
}

// FilterList is the read-only, ordered set of blocklist entries installed
// once before the worker pool starts and shared across workers without
// synchronization thereafter.
type FilterList struct {
	entries []FilterEntry
}

// LoadFilterList reads one entry per line from path. Newlines are stripped;
// an empty line is itself a never-matching, harmless literal entry rather
// than a parse error.
func LoadFilterList(path string) (*FilterList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening filter file: %w", err)
	}
	defer f.Close()

	var entries []FilterEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entry, err := ParseFilterEntry(scanner.Text())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading filter file: %w", err)
	}

	return &FilterList{entries: entries}, nil
}

// Blocked reports whether addr (resolved from host) matches any filter
// entry, scanning in order and stopping at the first match.
func (l *FilterList) Blocked(addr netip.Addr, host string) bool {
	for _, e := range l.entries {
		if e.Matches(addr, host) {
			return true
		}
	}
	return false
}
