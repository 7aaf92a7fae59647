// Package model holds the stored model grid aggregate.
package model

import (
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/obsoper/internal/domain"
	"github.com/kailas-cloud/obsoper/internal/domain/grid"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Layout names the grid family, which fixes how cells are searched and which
// observations count as inside.
type Layout string

const (
	// LayoutTripolar is a global ORCA-family ocean grid: tripolar search,
	// latitude band inclusion, optional halo.
	LayoutTripolar Layout = "tripolar"
	// LayoutRegional is a limited area grid: cartesian search, perimeter
	// polygon inclusion.
	LayoutRegional Layout = "regional"
	// LayoutRegular is an evenly spaced longitude/latitude grid located
	// arithmetically.
	LayoutRegular Layout = "regular"
)

// IsValid checks if the layout is supported.
func (l Layout) IsValid() bool {
	return l == LayoutTripolar || l == LayoutRegional || l == LayoutRegular
}

// Model is a named grid (immutable value object).
type Model struct {
	name        string
	layout      Layout
	grid        *grid.Grid
	halo        bool
	createdAt   int64
	fingerprint uint64
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: model name is required", domain.ErrInvalidModel)
	}
	if len(name) > 64 {
		return fmt.Errorf("%w: model name too long (max 64)", domain.ErrInvalidModel)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: model name must be alphanumeric with underscores and hyphens", domain.ErrInvalidModel)
	}
	return nil
}

// New validates and creates a Model.
func New(name string, layout Layout, g *grid.Grid, halo bool) (Model, error) {
	if layout == "" {
		layout = LayoutRegional
	}
	if !layout.IsValid() {
		return Model{}, fmt.Errorf("%w: invalid layout %q", domain.ErrInvalidModel, layout)
	}
	if err := validateName(name); err != nil {
		return Model{}, err
	}
	if g == nil {
		return Model{}, fmt.Errorf("%w: grid is required", domain.ErrInvalidModel)
	}
	if halo && layout != LayoutTripolar {
		return Model{}, fmt.Errorf("%w: halo applies to tripolar grids only", domain.ErrInvalidModel)
	}
	if halo {
		if _, err := g.RemoveHalo(); err != nil {
			return Model{}, fmt.Errorf("%w: %w", domain.ErrInvalidModel, err)
		}
	}
	return Reconstruct(name, layout, g, halo, time.Now().UnixMilli()), nil
}

// Reconstruct creates a Model without validation (storage hydration).
func Reconstruct(name string, layout Layout, g *grid.Grid, halo bool, createdAt int64) Model {
	return Model{
		name:        name,
		layout:      layout,
		grid:        g,
		halo:        halo,
		createdAt:   createdAt,
		fingerprint: Fingerprint(layout, g, halo),
	}
}

// Name returns the model name.
func (m Model) Name() string { return m.name }

// Layout returns the grid family.
func (m Model) Layout() Layout { return m.layout }

// Grid returns the vertex grid as stored, halo included.
func (m Model) Grid() *grid.Grid { return m.grid }

// Halo reports whether the grid carries a halo.
func (m Model) Halo() bool { return m.halo }

// CreatedAt returns the creation timestamp (unix millis).
func (m Model) CreatedAt() int64 { return m.createdAt }

// Fingerprint identifies the geometry; equal grids share a fingerprint.
func (m Model) Fingerprint() uint64 { return m.fingerprint }

// Fingerprint hashes the layout, halo flag, shape and vertex bits.
func Fingerprint(layout Layout, g *grid.Grid, halo bool) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(string(layout))
	var buf [8]byte
	if halo {
		buf[0] = 1
	}
	_, _ = d.Write(buf[:1])
	if g == nil {
		return d.Sum64()
	}
	ni, nj := g.Shape()
	binary.LittleEndian.PutUint64(buf[:], uint64(ni))
	_, _ = d.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(nj))
	_, _ = d.Write(buf[:])
	for k := range g.Len() {
		p := g.At(k)
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(p.X()))
		_, _ = d.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(p.Y()))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// Summary describes a model without its vertices.
type Summary struct {
	Name        string
	Layout      Layout
	Halo        bool
	Ni, Nj      int
	CreatedAt   int64
	Fingerprint uint64
}

// Summary returns the model description.
func (m Model) Summary() Summary {
	ni, nj := m.grid.Shape()
	return Summary{
		Name:        m.name,
		Layout:      m.layout,
		Halo:        m.halo,
		Ni:          ni,
		Nj:          nj,
		CreatedAt:   m.createdAt,
		Fingerprint: m.fingerprint,
	}
}
