// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// minThroughputBytesPerSecond is the slowest transfer rate a connection may
// sustain before its deadline expires.
const minThroughputBytesPerSecond = 4000

// Listener wraps accepted connections in a Conn with throughput-scaled deadlines.
type Listener struct {
	net.Listener
	Timeout time.Duration
}

func (l *Listener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: c, Timeout: l.Timeout}, nil
}

// Conn extends its deadline on every read and write. The deadline grows with
// the bytes already transferred, so a large document posted at a steady
// rate is not cut off while an idle connection still is.
type Conn struct {
	net.Conn
	Timeout      time.Duration
	bytesRead    int64
	bytesWritten int64
}

// scaledTimeout returns timeout multiplied by one for every timeout-period's
// worth of bytes already transferred at the minimum throughput.
func scaledTimeout(timeout time.Duration, transferred int64) time.Duration {
	perPeriod := int64(float64(minThroughputBytesPerSecond) * timeout.Seconds())
	if perPeriod <= 0 {
		perPeriod = 1
	}
	return timeout * time.Duration(transferred/perPeriod+1)
}

func (c *Conn) Read(b []byte) (int, error) {
	if c.Timeout != 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(scaledTimeout(c.Timeout, c.bytesRead))); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Read(b)
	c.bytesRead += int64(n)
	return n, err
}

func (c *Conn) Write(b []byte) (int, error) {
	if c.Timeout != 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(scaledTimeout(c.Timeout, c.bytesWritten))); err != nil {
			return 0, err
		}
	}
	n, err := c.Conn.Write(b)
	c.bytesWritten += int64(n)
	return n, err
}

// NewListener listens on addr. A zero timeout disables deadlines.
func NewListener(addr string, timeout time.Duration) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Listener{Listener: listener, Timeout: timeout}, nil
}

func JoinHostPort(host string, port int) string {
	portStr := strconv.Itoa(port)
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		return host + ":" + portStr
	}
	return net.JoinHostPort(host, portStr)
}
