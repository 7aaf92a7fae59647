package model

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/kailas-cloud/obsoper/internal/domain/grid"
)

// verticesRecord is the msgpack layout of a grid: row-major (Ni, Nj) arrays.
type verticesRecord struct {
	Ni   int       `msgpack:"ni"`
	Nj   int       `msgpack:"nj"`
	Lons []float64 `msgpack:"lons"`
	Lats []float64 `msgpack:"lats"`
}

// Codec turns grids into compressed msgpack blobs and back.
// Safe for concurrent use.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewCodec creates a codec with reusable zstd state.
func NewCodec() (*Codec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Codec{encoder: encoder, decoder: decoder}, nil
}

// Encode serializes the grid vertices.
func (c *Codec) Encode(g *grid.Grid) ([]byte, error) {
	ni, nj := g.Shape()
	rec := verticesRecord{Ni: ni, Nj: nj, Lons: make([]float64, 0, g.Len()), Lats: make([]float64, 0, g.Len())}
	for k := range g.Len() {
		p := g.At(k)
		rec.Lons = append(rec.Lons, p.X())
		rec.Lats = append(rec.Lats, p.Y())
	}
	raw, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode vertices: %w", err)
	}
	return c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Decode rebuilds a grid from Encode output.
func (c *Codec) Decode(data []byte) (*grid.Grid, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty vertices blob")
	}
	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress vertices: %w", err)
	}
	var rec verticesRecord
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode vertices: %w", err)
	}
	if rec.Ni <= 0 || rec.Nj <= 0 || len(rec.Lons) != rec.Ni*rec.Nj || len(rec.Lats) != rec.Ni*rec.Nj {
		return nil, fmt.Errorf("vertices record shape (%d, %d) does not match %d values", rec.Ni, rec.Nj, len(rec.Lons))
	}
	lons := make([][]float64, rec.Ni)
	lats := make([][]float64, rec.Ni)
	for i := range rec.Ni {
		lons[i] = rec.Lons[i*rec.Nj : (i+1)*rec.Nj]
		lats[i] = rec.Lats[i*rec.Nj : (i+1)*rec.Nj]
	}
	return grid.New(lons, lats)
}

// Close releases the zstd encoder and decoder.
func (c *Codec) Close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}
