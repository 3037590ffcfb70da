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

// Command proxyServer is the filtering forward proxy: a fixed-size worker
// pool relays GET requests to their resolved origin, rejecting hosts that
// resolve into a blocked CIDR or match a blocked literal hostname.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/nabbar/chatproxy/internal/obslog"
	"github.com/nabbar/chatproxy/internal/proxycore"
	"golang.org/x/sys/unix"
)

func usage() {
	fmt.Println("Usage: proxyServer <port> <pool-size> <max-number-of-requests> <filter>")
}

// positiveInt parses arg as a base-10 integer and reports whether it is
// strictly positive, the shared shape of pool-size and max-requests
// validation (port additionally caps at 65535, checked by the caller).
func positiveInt(arg string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func main() {
	if len(os.Args) != 5 {
		usage()
		os.Exit(1)
	}

	port, ok := positiveInt(os.Args[1])
	if !ok || port > 65535 {
		usage()
		os.Exit(1)
	}

	poolSize, ok := positiveInt(os.Args[2])
	if !ok {
		usage()
		os.Exit(1)
	}

	maxRequests, ok := positiveInt(os.Args[3])
	if !ok {
		usage()
		os.Exit(1)
	}

	filterPath := os.Args[4]

	log := obslog.NewStandard(obslog.InfoLevel)

	filters, err := proxycore.LoadFilterList(filterPath)
	if err != nil {
		log.Fatal("setup failed: " + err.Error())
	}

	pool, err := proxycore.NewWorkerPool(poolSize)
	if err != nil {
		log.Fatal("setup failed: " + err.Error())
	}

	listener, err := listen(port, maxRequests)
	if err != nil {
		log.Fatal("setup failed: " + err.Error())
	}
	defer listener.Close()

	handler := proxycore.NewRequestHandler(filters, log)

	log.With(obslog.Fields{"port": port, "workers": poolSize, "maxRequests": maxRequests}).Info("proxy listening")

	accept(listener, pool, handler, maxRequests, log)

	pool.Destroy()
}

// listen opens a raw IPv4 TCP socket with its backlog set to maxRequests,
// then wraps it back into a net.Listener so the rest of the accept/relay
// path can stay on the standard net.Conn interface.
func listen(port, backlog int) (net.Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("setsockopt: %w", err)
	}

	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind: %w", err)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}

	f := os.NewFile(uintptr(fd), fmt.Sprintf("proxy-listen-%d", port))
	defer f.Close()

	l, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("file listener: %w", err)
	}
	return l, nil
}

// accept runs the acceptor loop on the main goroutine: accept up to max
// connections, wrap each as a dispatched task, and hand it to the pool.
// An accept failure does not end the loop or disturb in-flight tasks.
func accept(listener net.Listener, pool *proxycore.WorkerPool, handler *proxycore.RequestHandler, max int, log *obslog.Logger) {
	for i := 0; i < max; i++ {
		conn, err := listener.Accept()
		if err != nil {
			log.Warn("accept failed: " + err.Error())
			continue
		}

		pool.Dispatch(func() {
			handler.Handle(conn)
		})
	}
}
