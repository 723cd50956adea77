/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

//go:build unix

// Package dev implements ncomm/endpoint/serial.Device against a real
// POSIX tty, putting the line into raw mode and the requested baud
// rate via termios ioctls, in the idiom of golib's other OS-facing
// packages that wrap golang.org/x/sys/unix directly rather than
// shelling out.
package dev

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/nabbar/ncomm/errs"
)

// Config describes how to open and configure a serial device.
type Config struct {
	// Path is the device node, e.g. "/dev/ttyUSB0".
	Path string
	// BaudRate is a unix.B* constant (unix.B9600, unix.B115200, ...).
	// Zero leaves the device's current speed untouched.
	BaudRate uint32
}

// Device is a raw-mode, non-blocking POSIX serial line.
type Device struct {
	f  *os.File
	fd int
}

// Open opens cfg.Path and puts it into raw mode: no line editing, no
// signal generation, no character translation, 8 data bits, no
// parity, one stop bit.
func Open(cfg Config) (*Device, error) {
	f, err := os.OpenFile(cfg.Path, os.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, errs.IO("open serial device "+cfg.Path, err)
	}

	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		_ = f.Close()
		return nil, errs.IO("get termios for "+cfg.Path, err)
	}

	raw := *t
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	raw.Cc[unix.VMIN] = 0
	raw.Cc[unix.VTIME] = 0

	if cfg.BaudRate != 0 {
		raw.Ispeed = cfg.BaudRate
		raw.Ospeed = cfg.BaudRate
	}

	if err = unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		_ = f.Close()
		return nil, errs.IO("set termios for "+cfg.Path, err)
	}

	return &Device{f: f, fd: fd}, nil
}

// ReadReady reports whether a Read would return data without blocking.
func (d *Device) ReadReady() bool {
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	return err == nil && n > 0 && fds[0].Revents&unix.POLLIN != 0
}

func (d *Device) Read(p []byte) (int, error)  { return d.f.Read(p) }
func (d *Device) Write(p []byte) (int, error) { return d.f.Write(p) }
func (d *Device) Close() error                { return d.f.Close() }
