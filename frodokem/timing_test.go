// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package frodokem

import (
	"bytes"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// welch accumulates running moments for one class of timing samples.
type welch struct {
	n, mean, m2 float64
}

func (w *welch) add(x float64) {
	w.n++
	d := x - w.mean
	w.mean += d / w.n
	w.m2 += d * (x - w.mean)
}

func (w *welch) variance() float64 { return w.m2 / (w.n - 1) }

func welchT(a, b *welch) float64 {
	return (a.mean - b.mean) / math.Sqrt(a.variance()/a.n+b.variance()/b.n)
}

// TestDecapsTiming compares Decaps timings of honest and tampered
// ciphertexts.  It is noisy and only runs when PQSS_DUDECT=1.
func TestDecapsTiming(t *testing.T) {
	if os.Getenv("PQSS_DUDECT") != "1" {
		t.Skip("set PQSS_DUDECT=1 to run")
	}
	s := EFrodoKEM640
	pk, sk, err := s.GenerateKeyPair(nil)
	require.NoError(t, err)
	ct, _, err := s.Encapsulate(nil, pk)
	require.NoError(t, err)
	bad := bytes.Clone(ct)
	bad[len(bad)-1] ^= 1

	const samples = 2000
	var valid, invalid welch
	inputs := [2][]byte{ct, bad}
	classes := [2]*welch{&valid, &invalid}
	for i := 0; i < samples; i++ {
		c := i & 1
		start := time.Now()
		_, err := s.Decaps(sk, inputs[c])
		elapsed := time.Since(start)
		require.NoError(t, err)
		classes[c].add(float64(elapsed.Nanoseconds()))
	}

	tv := welchT(&valid, &invalid)
	t.Logf("t = %.2f (valid mean %.0fns, invalid mean %.0fns)", tv, valid.mean, invalid.mean)
	require.Less(t, math.Abs(tv), 10.0)
}
