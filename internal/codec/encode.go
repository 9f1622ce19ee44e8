// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package codec converts between bit strings and matrices over Z_q.
//
// Message encoding embeds B-bit chunks of a message (read least
// significant bit first) in the high bits of each element.  Packing
// serializes the full D bits of every element, most significant bit
// first, with no padding between elements.
package codec

import (
	"fmt"

	"github.com/jrick/pqss/internal/matrix"
	"github.com/jrick/pqss/internal/zq"
)

// MessageSize returns the byte length of a message carried by a
// rows x cols matrix at b bits per element.
func MessageSize(rows, cols int, b uint) int {
	return (rows*cols*int(b) + 7) / 8
}

func checkMessage(rows, cols int, b uint, n int) {
	switch b {
	case 2, 4:
	case 3:
		if rows*cols%8 != 0 {
			panic(fmt.Sprintf("codec: %d elements do not fill 3-byte groups", rows*cols))
		}
	default:
		panic(fmt.Sprintf("codec: unsupported B=%d", b))
	}
	if n != MessageSize(rows, cols, b) {
		panic(fmt.Sprintf("codec: message is %d bytes, need %d", n, MessageSize(rows, cols, b)))
	}
}

// Encode splits msg into b-bit values and encodes each as an element of
// a rows x cols matrix.
func Encode(ring zq.Ring, b uint, rows, cols int, msg []byte) *matrix.Matrix {
	checkMessage(rows, cols, b, len(msg))
	m := matrix.New(ring, rows, cols)
	e := m.Elems
	ec := func(k byte) zq.Elem { return ring.Encode(b, uint16(k)) }

	switch b {
	case 2:
		for i, x := range msg {
			o := 4 * i
			e[o+0] = ec(x >> 0 & 0x3)
			e[o+1] = ec(x >> 2 & 0x3)
			e[o+2] = ec(x >> 4 & 0x3)
			e[o+3] = ec(x >> 6 & 0x3)
		}
	case 3:
		// Three bytes carry eight values; values 2 and 5 straddle bytes.
		for i := 0; i < len(msg); i += 3 {
			x0, x1, x2 := msg[i], msg[i+1], msg[i+2]
			o := 8 * (i / 3)
			e[o+0] = ec(x0 >> 0 & 0x7)
			e[o+1] = ec(x0 >> 3 & 0x7)
			e[o+2] = ec((x1&0x1)<<2 | x0>>6&0x3)
			e[o+3] = ec(x1 >> 1 & 0x7)
			e[o+4] = ec(x1 >> 4 & 0x7)
			e[o+5] = ec((x2&0x3)<<1 | x1>>7&0x1)
			e[o+6] = ec(x2 >> 2 & 0x7)
			e[o+7] = ec(x2 >> 5)
		}
	case 4:
		for i, x := range msg {
			o := 2 * i
			e[o+0] = ec(x & 0xf)
			e[o+1] = ec(x >> 4)
		}
	}
	return m
}

// Decode rounds every element of m to its b most significant bits and
// concatenates them into a message.  It inverts Encode.
func Decode(m *matrix.Matrix, b uint) []byte {
	msg := make([]byte, MessageSize(m.Rows, m.Cols, b))
	checkMessage(m.Rows, m.Cols, b, len(msg))
	dc := func(i int) byte { return byte(m.Ring.Decode(b, m.Elems[i])) }

	switch b {
	case 2:
		for i := range msg {
			o := 4 * i
			msg[i] = dc(o+3)<<6 | dc(o+2)<<4 | dc(o+1)<<2 | dc(o+0)
		}
	case 3:
		for i := 0; i < len(msg); i += 3 {
			o := 8 * (i / 3)
			t0, t1, t2, t3 := dc(o+0), dc(o+1), dc(o+2), dc(o+3)
			t4, t5, t6, t7 := dc(o+4), dc(o+5), dc(o+6), dc(o+7)
			msg[i+0] = (t2&0x3)<<6 | t1<<3 | t0
			msg[i+1] = (t5&0x1)<<7 | t4<<4 | t3<<1 | t2>>2
			msg[i+2] = t7<<5 | t6<<2 | t5>>1
		}
	case 4:
		for i := range msg {
			o := 2 * i
			msg[i] = dc(o+1)<<4 | dc(o+0)
		}
	}
	return msg
}
