package groundtruth

import (
	"math/rand"
	"slices"
	"sort"
)

// SampleParams configures one sampling pass.
type SampleParams struct {
	Size         int   // 0 = return a copy of the full set
	Seed         int64 // pseudo-random seed for reproducibility
	ExtraIndices []int // row indices that must appear in the output
}

// Sample selects a reproducible subset of questions without replacement.
// The same (set, Size, Seed) always yields the same random picks; forced
// indices are always included and count toward Size. Returns a
// ValidationError when Size exceeds the set, an index is out of range, or
// the forced rows alone exceed Size.
func Sample(set []Question, p SampleParams) ([]Question, error) {
	forced, err := dedupExtras(p.ExtraIndices, len(set))
	if err != nil {
		return nil, err
	}

	// No size requested: the full set already contains every forced row.
	// Cloned so the sample never aliases the caller's slice.
	if p.Size == 0 {
		return slices.Clone(set), nil
	}
	if p.Size > len(set) {
		return nil, Validationf("sample size %d exceeds %d available questions", p.Size, len(set))
	}
	if len(forced) > p.Size {
		return nil, Validationf("%d forced indices exceed sample size %d", len(forced), p.Size)
	}

	inForced := make(map[int]bool, len(forced))
	for _, idx := range forced {
		inForced[idx] = true
	}

	// Seeded draw without replacement, skipping forced rows.
	rng := rand.New(rand.NewSource(p.Seed))
	needed := p.Size - len(forced)
	var picks []int
	for _, idx := range rng.Perm(len(set)) {
		if len(picks) == needed {
			break
		}
		if inForced[idx] {
			continue
		}
		picks = append(picks, idx)
	}

	out := make([]Question, 0, p.Size)
	for _, idx := range picks {
		out = append(out, set[idx])
	}
	for _, idx := range forced {
		out = append(out, set[idx])
	}
	return out, nil
}

// dedupExtras validates forced indices against the set bounds and returns
// them deduplicated in ascending order.
func dedupExtras(extras []int, n int) ([]int, error) {
	if len(extras) == 0 {
		return nil, nil
	}
	seen := make(map[int]bool, len(extras))
	var out []int
	for _, idx := range extras {
		if idx < 0 || idx >= n {
			return nil, Validationf("extra index %d out of range [0, %d)", idx, n)
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}
