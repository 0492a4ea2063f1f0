package util

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptyGzip = "\x1f\x8b\b\x00\x00\x00\x00\x00\x00\xff\x01\x00\x00\xff\xff\x00\x00\x00\x00\x00\x00\x00\x00"

func TestGzipGunzip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Should round trip empty data", []byte{}},
		{"Should round trip text", []byte("Test string")},
		{"Should round trip zip archive", append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0, 1, 2, 0xff}, 4096)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := Gzip(tt.data)
			require.NoError(t, err)
			assert.True(t, IsGzipData(compressed))
			got, err := Gunzip(compressed)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
		})
	}
}

func TestIsGzipData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"Should return false for nil", nil, false},
		{"Should return false for magic only", []byte{0x1f, 0x8b}, false},
		{"Should return false for a zip archive", []byte("PK\x03\x04"), false},
		{"Should return true for empty gzip", []byte(emptyGzip), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGzipData(tt.data))
		})
	}
}

func TestGunzipErrors(t *testing.T) {
	_, err := Gunzip(nil)
	assert.Error(t, err)

	compressed, err := Gzip([]byte("truncated archive content"))
	require.NoError(t, err)
	_, err = Gunzip(compressed[:len(compressed)-6])
	assert.Error(t, err)

	got, err := Gunzip([]byte(emptyGzip))
	assert.NoError(t, err)
	assert.Empty(t, got)
}
