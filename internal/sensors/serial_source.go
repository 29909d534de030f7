// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors reads live IMU samples from the acquisition board.
package sensors

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/pkg/errors"

	"github.com/relabs-tech/orientation_tracking/internal/imu"
)

// LineSource reads one sample per text line in the board's CSV format:
//
//	ts,a0,a1,a2,g0,g1,g2
//
// with the timestamp in seconds and the six channels in raw ADC counts, in
// log row order. Blank lines and lines starting with '#' are skipped.
type LineSource struct {
	reader *bufio.Reader
	closer io.Closer

	line   int
	lastTs float64
	seen   bool
}

// NewLineSource reads samples from r.
func NewLineSource(r io.Reader) *LineSource {
	s := &LineSource{reader: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenSerial opens the board's serial port (8N1) and returns a source
// reading from it.
func OpenSerial(portName string, baudRate int) (*LineSource, error) {
	serialOpts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", portName)
	}
	return NewLineSource(port), nil
}

// Next returns the next sample, or io.EOF once the stream ends. A sample
// whose timestamp does not increase is rejected with imu.ErrInvalidTrace.
func (s *LineSource) Next() (imu.Sample, error) {
	for {
		text, err := s.reader.ReadString('\n')
		if err != nil && (err != io.EOF || text == "") {
			if err == io.EOF {
				return imu.Sample{}, io.EOF
			}
			return imu.Sample{}, errors.Wrap(err, "serial read")
		}
		s.line++

		text = strings.TrimSpace(text)
		if text == "" || strings.HasPrefix(text, "#") {
			if err == io.EOF {
				return imu.Sample{}, io.EOF
			}
			continue
		}

		smp, perr := ParseLine(text)
		if perr != nil {
			return imu.Sample{}, errors.Wrapf(perr, "line %d", s.line)
		}
		if s.seen && smp.Timestamp <= s.lastTs {
			return imu.Sample{}, errors.Wrapf(imu.ErrInvalidTrace, "line %d: timestamp %.6f does not increase from %.6f",
				s.line, smp.Timestamp, s.lastTs)
		}
		s.seen = true
		s.lastTs = smp.Timestamp
		return smp, nil
	}
}

// Close closes the underlying port, if any.
func (s *LineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ParseLine parses "ts,a0,a1,a2,g0,g1,g2".
func ParseLine(line string) (imu.Sample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 1+imu.Channels {
		return imu.Sample{}, errors.Wrapf(imu.ErrInvalidTrace, "expected %d fields, got %d", 1+imu.Channels, len(fields))
	}

	var v [1 + imu.Channels]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return imu.Sample{}, errors.Wrapf(imu.ErrInvalidTrace, "field %d: %v", i, err)
		}
		v[i] = x
	}
	return imu.Sample{
		Timestamp: v[0],
		Accel:     [3]float64{v[1], v[2], v[3]},
		Gyro:      [3]float64{v[4], v[5], v[6]},
	}, nil
}
