// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package frames

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Stream is the output collaborator the archiver writes frames to. The
// archiver hands over fully-assembled ChatItems; serialization and flushing
// are the stream's problem, and failures come back as plain error values.
type Stream interface {
	WriteFrame(item *ChatItem) error
}

// Errors returned when opening a backup stream for reading.
var (
	ErrBadMagic           = errors.New("stream does not start with backup magic")
	ErrUnsupportedVersion = errors.New("unsupported backup stream version")
	ErrFrameTooLarge      = errors.New("frame exceeds maximum size")
)

const (
	streamMagic   = "CBAK"
	streamVersion = 1

	// maxFrameSize bounds a single frame so a corrupt length prefix can't
	// trigger a giant allocation.
	maxFrameSize = 64 << 20
)

// Writer writes a backup stream: a fixed header followed by length-delimited
// frames. It buffers internally; call Flush before closing the underlying
// writer.
type Writer struct {
	buf     *bufio.Writer
	scratch [binary.MaxVarintLen64]byte
}

var _ Stream = (*Writer)(nil)

// NewWriter wraps w in a backup stream writer and writes the stream header.
func NewWriter(w io.Writer) (*Writer, error) {
	buf := bufio.NewWriter(w)
	_, err := buf.WriteString(streamMagic)
	if err == nil {
		err = buf.WriteByte(streamVersion)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write stream header: %w", err)
	}
	return &Writer{buf: buf}, nil
}

// WriteFrame appends one frame to the stream.
func (w *Writer) WriteFrame(item *ChatItem) error {
	data := item.Marshal()
	n := binary.PutUvarint(w.scratch[:], uint64(len(data)))
	_, err := w.buf.Write(w.scratch[:n])
	if err == nil {
		_, err = w.buf.Write(data)
	}
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Flush writes any buffered frames to the underlying writer.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Reader reads a backup stream written by Writer.
type Reader struct {
	buf *bufio.Reader
}

// NewReader wraps r in a backup stream reader and validates the stream header.
func NewReader(r io.Reader) (*Reader, error) {
	buf := bufio.NewReader(r)
	header := make([]byte, len(streamMagic)+1)
	_, err := io.ReadFull(buf, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream header: %w", err)
	}
	if string(header[:len(streamMagic)]) != streamMagic {
		return nil, ErrBadMagic
	}
	if header[len(streamMagic)] != streamVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header[len(streamMagic)])
	}
	return &Reader{buf: buf}, nil
}

// ReadFrame reads the next frame from the stream. It returns io.EOF at the
// clean end of the stream and io.ErrUnexpectedEOF if the stream is truncated
// mid-frame.
func (r *Reader) ReadFrame() (*ChatItem, error) {
	size, err := binary.ReadUvarint(r.buf)
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	} else if err != nil {
		return nil, fmt.Errorf("failed to read frame length: %w", err)
	}
	if size > maxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	data := make([]byte, size)
	_, err = io.ReadFull(r.buf, data)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read frame body: %w", err)
	}
	return Unmarshal(data)
}
