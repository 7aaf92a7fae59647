package model

import (
	"reflect"
	"testing"
)

func TestCodec_RoundTrip(t *testing.T) {
	c := newTestCodec(t)
	g := testGrid(t)

	blob, err := c.Encode(g)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(blob)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got.Lons(), g.Lons()) || !reflect.DeepEqual(got.Lats(), g.Lats()) {
		t.Errorf("decoded grid differs: lons=%v lats=%v", got.Lons(), got.Lats())
	}
}

func TestCodec_DecodeErrors(t *testing.T) {
	c := newTestCodec(t)
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not zstd", []byte("plain text")},
		{"not msgpack", c.encoder.EncodeAll([]byte{0xc1}, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Decode(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}
