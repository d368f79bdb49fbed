package aggregate

import "jobportal-engine/internal/domain"

// Normalize replaces blank fields with domain.Missing. It returns a new slice.
func Normalize(in []domain.JobRecord) []domain.JobRecord {
	out := make([]domain.JobRecord, len(in))
	for i, r := range in {
		out[i] = r.Normalized()
	}
	return out
}

// Dedup keeps the first record for each (title, company) pair, preserving order.
func Dedup(in []domain.JobRecord) []domain.JobRecord {
	seen := make(map[domain.Key]struct{}, len(in))
	out := make([]domain.JobRecord, 0, len(in))
	for _, r := range in {
		k := r.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
