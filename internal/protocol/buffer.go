// Package protocol implements the length-prefixed binary wire format
// spoken by brokers and clients: requests (ActionMessage) travel one
// frame per TCP write, responses (ResponseMessage) may be pipelined as
// several frames concatenated into a single buffer.
package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// decoder reads primitives from a byte slice left to right, the way
// sarama's packetDecoder reads a request/response body.
type decoder struct {
	buf []byte
	pos int
}

func newDecoder(buf []byte) *decoder {
	return &decoder{buf: buf}
}

// errShortBuffer is returned when a length field would read past the
// end of the buffer; the dispatcher layer treats this as a fatal
// framing error per spec.
type errShortBuffer struct {
	need, have int
}

func (e *errShortBuffer) Error() string {
	return fmt.Sprintf("protocol: short buffer: need %d bytes, have %d", e.need, e.have)
}

func (d *decoder) require(n int) error {
	if d.pos+n > len(d.buf) {
		return &errShortBuffer{need: d.pos + n, have: len(d.buf)}
	}
	return nil
}

func (d *decoder) readUint8() (uint8, error) {
	if err := d.require(1); err != nil {
		return 0, err
	}
	v := d.buf[d.pos]
	d.pos++
	return v, nil
}

func (d *decoder) readUint32() (uint32, error) {
	if err := d.require(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	return v, nil
}

// readString decodes a u32 byte-length prefix followed by that many
// UTF-8 bytes. Invalid UTF-8 is replaced with the Unicode replacement
// character rather than failing, mirroring String::from_utf8_lossy.
func (d *decoder) readString() (string, error) {
	n, err := d.readUint32()
	if err != nil {
		return "", err
	}
	if err := d.require(int(n)); err != nil {
		return "", err
	}
	raw := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return strings.ToValidUTF8(string(raw), "�"), nil
}

func (d *decoder) finishedRead() bool {
	return d.pos >= len(d.buf)
}

// encoder appends wire-format primitives to a growable byte slice, the
// way sarama's packetEncoder builds a request body.
type encoder struct {
	buf []byte
}

func (e *encoder) writeUint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) writeUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

// writeString encodes the byte length of value, not its rune count.
func (e *encoder) writeString(value string) {
	e.writeUint32(uint32(len(value)))
	e.buf = append(e.buf, value...)
}

func (e *encoder) bytes() []byte {
	return e.buf
}
