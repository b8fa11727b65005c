// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-nixstore.
//
// go-nixstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package digest

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	sum := sha256.Sum256([]byte("hello"))
	d := Digest{Algorithm: SHA256, Sum: sum[:]}

	parsed, err := Parse(d.String())
	require.NoError(t, err)
	assert.True(t, d.Equal(parsed))
	assert.Equal(t, SHA256, parsed.Algorithm)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"no separator", "sha256deadbeef", ErrMalformedDigest},
		{"unknown algorithm", "md5:deadbeef", ErrUnknownAlgorithm},
		{"bad hex", "sha256:zzzz", ErrMalformedDigest},
		{"empty value", "sha256:", ErrMalformedDigest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewHasher_AllAlgorithms(t *testing.T) {
	for _, a := range []Algorithm{SHA256, SHA512, BLAKE2b, BLAKE3} {
		t.Run(string(a), func(t *testing.T) {
			h, err := NewHasher(a)
			require.NoError(t, err)
			require.NotNil(t, h)
			_, err = h.Write([]byte("content"))
			require.NoError(t, err)
			assert.NotEmpty(t, h.Sum(nil))
		})
	}

	_, err := NewHasher(Algorithm("md5"))
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestSink_MatchesDirectHash(t *testing.T) {
	content := []byte("some store entry content")

	sink, err := NewSink(SHA256)
	require.NoError(t, err)

	n, err := sink.Write(content)
	require.NoError(t, err)
	require.Equal(t, len(content), n)

	d, written := sink.Finish()
	expected := sha256.Sum256(content)
	assert.Equal(t, expected[:], d.Sum)
	assert.Equal(t, int64(len(content)), written)
}

func TestDigest_Equal(t *testing.T) {
	sum := sha256.Sum256([]byte("x"))
	a := Digest{Algorithm: SHA256, Sum: sum[:]}
	b := Digest{Algorithm: SHA256, Sum: sum[:]}
	c := Digest{Algorithm: SHA512, Sum: sum[:]}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))

	tampered := Digest{Algorithm: SHA256, Sum: append([]byte{0x00}, sum[1:]...)}
	assert.False(t, a.Equal(tampered))
}
