// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package kmac

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = 0x40 + byte(i)
	}
	return key
}

// SP 800-185 KMAC256 sample #4.
func TestKMAC256Sample(t *testing.T) {
	want, err := hex.DecodeString("20c570c31346f703c9ac36c61c03cb64c3970d0cfc787e9b79599d273a68d2f7" +
		"f69d4cc3de9d104a351689f27cf6f5951f0103f33f4f24871024d9c27773a8dd")
	require.NoError(t, err)

	got := Derive(sampleKey(), []byte{0, 1, 2, 3}, []byte("My Tagged Application"), 64)
	require.Equal(t, want, got)
}

func TestSumKeepsState(t *testing.T) {
	h := NewKMAC256(sampleKey(), 32, []byte("test"))
	h.Write([]byte("abc"))
	first := h.Sum(nil)
	require.Equal(t, first, h.Sum(nil))

	h.Reset()
	h.Write([]byte("abc"))
	require.Equal(t, first, h.Sum(nil))
	require.Equal(t, 32, h.Size())
}

func TestTagLengthBinding(t *testing.T) {
	short := Derive(sampleKey(), nil, nil, 32)
	long := Derive(sampleKey(), nil, nil, 64)
	require.NotEqual(t, short, long[:32])
}

func TestPanics(t *testing.T) {
	require.Panics(t, func() { NewKMAC256(make([]byte, 16), 32, nil) })
	require.Panics(t, func() { NewKMAC256(sampleKey(), 4, nil) })
}
