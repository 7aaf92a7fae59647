// Package model persists model grids: a metadata hash per model plus a
// compressed vertices blob.
package model

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/obsoper/internal/db"
	"github.com/kailas-cloud/obsoper/internal/domain"
	dommodel "github.com/kailas-cloud/obsoper/internal/domain/model"
)

// store is the consumer interface for models (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
}

// Repo implements usecase/interpolation.Repository.
type Repo struct {
	store  store
	codec  *Codec
	prefix string
}

// New creates a model repository. Keys are namespaced by prefix.
func New(s store, codec *Codec, prefix string) *Repo {
	return &Repo{store: s, codec: codec, prefix: prefix}
}

// Create stores a model: SET NX the vertices, then HSET the metadata.
// On HSET failure, rolls back the vertices via DEL.
func (r *Repo) Create(ctx context.Context, m dommodel.Model) error {
	name := m.Name()

	blob, err := r.codec.Encode(m.Grid())
	if err != nil {
		return err
	}
	stored, err := r.store.SetNX(ctx, r.verticesKey(name), blob)
	if err != nil {
		return fmt.Errorf("set vertices %s: %w", name, err)
	}
	if !stored {
		return domain.ErrAlreadyExists
	}

	if err := r.store.HSet(ctx, r.metaKey(name), summaryToHash(m.Summary())); err != nil {
		cleanupErr := r.store.Del(ctx, r.verticesKey(name))
		return errors.Join(fmt.Errorf("hset model %s: %w", name, err), cleanupErr)
	}
	return nil
}

// Get loads a model with its vertices.
func (r *Repo) Get(ctx context.Context, name string) (dommodel.Model, error) {
	meta, err := r.store.HGetAll(ctx, r.metaKey(name))
	if err != nil {
		return dommodel.Model{}, fmt.Errorf("hgetall model %s: %w", name, err)
	}
	if len(meta) == 0 {
		return dommodel.Model{}, domain.ErrNotFound
	}
	s, err := summaryFromHash(meta)
	if err != nil {
		return dommodel.Model{}, fmt.Errorf("parse model %s: %w", name, err)
	}

	blob, err := r.store.Get(ctx, r.verticesKey(name))
	if errors.Is(err, db.ErrKeyNotFound) {
		return dommodel.Model{}, domain.ErrNotFound
	}
	if err != nil {
		return dommodel.Model{}, fmt.Errorf("get vertices %s: %w", name, err)
	}
	g, err := r.codec.Decode(blob)
	if err != nil {
		return dommodel.Model{}, fmt.Errorf("decode model %s: %w", name, err)
	}
	return dommodel.Reconstruct(s.Name, s.Layout, g, s.Halo, s.CreatedAt), nil
}

// List returns every model description sorted by CreatedAt.
func (r *Repo) List(ctx context.Context) ([]dommodel.Summary, error) {
	keys, err := r.store.Scan(ctx, r.metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan models: %w", err)
	}
	if len(keys) == 0 {
		return []dommodel.Summary{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi models: %w", err)
	}

	out := make([]dommodel.Summary, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		s, err := summaryFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse model %s: %w", keys[i], err)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Delete removes a model's metadata and vertices.
func (r *Repo) Delete(ctx context.Context, name string) error {
	meta, err := r.store.HGetAll(ctx, r.metaKey(name))
	if err != nil {
		return fmt.Errorf("hgetall model %s: %w", name, err)
	}
	if len(meta) == 0 {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, r.metaKey(name), r.verticesKey(name)); err != nil {
		return fmt.Errorf("del model %s: %w", name, err)
	}
	return nil
}

// Key patterns: {prefix}model:{name}, {prefix}vertices:{name}

func (r *Repo) metaKey(name string) string {
	return fmt.Sprintf("%smodel:%s", r.prefix, name)
}

func (r *Repo) verticesKey(name string) string {
	return fmt.Sprintf("%svertices:%s", r.prefix, name)
}
