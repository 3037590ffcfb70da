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

// Command server is the single-threaded broadcast chat server: every byte a
// client sends, uppercased, reaches every other connected client.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/nabbar/chatproxy/internal/chatcore"
	"github.com/nabbar/chatproxy/internal/obslog"
	"golang.org/x/sys/unix"
)

// listenBacklog is the pending-connection queue size for the listening
// socket.
const listenBacklog = 32

func usage() {
	fmt.Println("Usage: server <port>")
}

func parsePort(arg string) (int, bool) {
	port, err := strconv.Atoi(arg)
	if err != nil {
		return 0, false
	}
	if port < 1 || port > 65535 {
		return 0, false
	}
	return port, true
}

func main() {
	if len(os.Args) != 2 {
		usage()
		os.Exit(1)
	}

	port, ok := parsePort(os.Args[1])
	if !ok {
		usage()
		os.Exit(1)
	}

	log := obslog.NewStandard(obslog.InfoLevel)

	listenFD, err := listen(port)
	if err != nil {
		log.Fatal("setup failed: " + err.Error())
	}

	readySet := chatcore.NewReadinessSet()
	readySet.AddReadable(listenFD)
	table := chatcore.NewConnectionTable(listenFD, readySet)

	var stop atomic.Bool
	notifyStop(&stop, log)

	loop := chatcore.NewEventLoop(listenFD, table, readySet, &stop, log)

	log.With(obslog.Fields{"port": port}).Info("chat server listening")
	if err := loop.Run(); err != nil {
		log.Fatal("event loop failed: " + err.Error())
	}
}

// listen creates, binds and starts listening on a non-blocking IPv4 TCP
// socket, returning its raw handle for the event loop to drive directly.
func listen(port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return 0, fmt.Errorf("socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return 0, fmt.Errorf("setsockopt: %w", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return 0, fmt.Errorf("nonblock: %w", err)
	}

	addr := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return 0, fmt.Errorf("bind: %w", err)
	}

	if err := unix.Listen(fd, listenBacklog); err != nil {
		_ = unix.Close(fd)
		return 0, fmt.Errorf("listen: %w", err)
	}

	return fd, nil
}

// notifyStop arranges for SIGINT to set the cooperative stop flag the event
// loop checks at the top of every iteration.
func notifyStop(stop *atomic.Bool, log *obslog.Logger) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)

	go func() {
		<-ch
		log.Info("shutdown requested")
		stop.Store(true)
	}()
}
