package model

import (
	"fmt"
	"strconv"

	dommodel "github.com/kailas-cloud/obsoper/internal/domain/model"
)

// summaryToHash converts a model description to a map for HSET.
func summaryToHash(s dommodel.Summary) map[string]string {
	return map[string]string{
		"name":        s.Name,
		"layout":      string(s.Layout),
		"halo":        strconv.FormatBool(s.Halo),
		"ni":          strconv.Itoa(s.Ni),
		"nj":          strconv.Itoa(s.Nj),
		"created_at":  strconv.FormatInt(s.CreatedAt, 10),
		"fingerprint": strconv.FormatUint(s.Fingerprint, 16),
	}
}

// summaryFromHash hydrates a model description from an HGETALL result map.
func summaryFromHash(m map[string]string) (dommodel.Summary, error) {
	s := dommodel.Summary{Name: m["name"], Layout: dommodel.Layout(m["layout"])}
	var err error
	if s.Halo, err = strconv.ParseBool(m["halo"]); err != nil {
		return dommodel.Summary{}, fmt.Errorf("invalid halo: %w", err)
	}
	if s.Ni, err = strconv.Atoi(m["ni"]); err != nil {
		return dommodel.Summary{}, fmt.Errorf("invalid ni: %w", err)
	}
	if s.Nj, err = strconv.Atoi(m["nj"]); err != nil {
		return dommodel.Summary{}, fmt.Errorf("invalid nj: %w", err)
	}
	if s.CreatedAt, err = strconv.ParseInt(m["created_at"], 10, 64); err != nil {
		return dommodel.Summary{}, fmt.Errorf("invalid created_at: %w", err)
	}
	if s.Fingerprint, err = strconv.ParseUint(m["fingerprint"], 16, 64); err != nil {
		return dommodel.Summary{}, fmt.Errorf("invalid fingerprint: %w", err)
	}
	return s, nil
}
