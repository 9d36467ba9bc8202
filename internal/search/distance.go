package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/robert-malhotra/aurorax-client/internal/aurorax"
)

// Distance is the maximum distance, in kilometres, allowed between criteria
// blocks of a conjunction search. Default applies to every pair; Overrides
// replaces it for individual pairs keyed like "ground1-space2" in either
// order. A nil value means the pair is unconstrained.
type Distance struct {
	Default   *float64
	Overrides map[string]*float64
}

// Km returns a pointer to v, for use in Distance fields.
func Km(v float64) *float64 {
	return &v
}

// Scalar is a Distance applying d to every pair.
func Scalar(d float64) Distance {
	return Distance{Default: Km(d)}
}

// Pairs is a Distance built only from per-pair overrides. Pairs left out
// are unconstrained.
func Pairs(overrides map[string]*float64) Distance {
	return Distance{Overrides: overrides}
}

type blockLabel struct {
	kind  BlockKind
	index int
}

func (l blockLabel) String() string {
	return string(l.kind) + strconv.Itoa(l.index)
}

// Labels returns the block labels of a search in enumeration order:
// ground1..g, space1..s, events1..e, adhoc1..c.
func (c BlockCounts) Labels() []string {
	labels := c.labels()
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.String()
	}
	return out
}

func (c BlockCounts) labels() []blockLabel {
	out := make([]blockLabel, 0, c.Total())
	add := func(kind BlockKind, n int) {
		for i := 1; i <= n; i++ {
			out = append(out, blockLabel{kind: kind, index: i})
		}
	}
	add(KindGround, c.Ground)
	add(KindSpace, c.Space)
	add(KindEvents, c.Events)
	add(KindAdhoc, c.Custom)
	return out
}

// pairable reports whether the server accepts a distance between two kinds.
// Any two different kinds pair, and among same kinds only ground and space do.
func pairable(a, b BlockKind) bool {
	if a != b {
		return true
	}
	return a == KindGround || a == KindSpace
}

type labelPair struct {
	a, b blockLabel
}

func (p labelPair) key() string {
	return p.a.String() + "-" + p.b.String()
}

// PairKeys lists the canonical max_distances keys for the given block counts
// in enumeration order.
func PairKeys(c BlockCounts) []string {
	pairs := validPairs(c)
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.key()
	}
	return keys
}

func validPairs(c BlockCounts) []labelPair {
	labels := c.labels()
	var pairs []labelPair
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			if pairable(labels[i].kind, labels[j].kind) {
				pairs = append(pairs, labelPair{labels[i], labels[j]})
			}
		}
	}
	return pairs
}

// BuildDistances expands d into one entry per valid block pair. The result
// maps canonical pair keys to a distance, or nil when the pair is
// unconstrained. Override keys that name no valid pair, and two keys that
// name the same pair with different values, are rejected with
// aurorax.ErrValidation.
func BuildDistances(c BlockCounts, d Distance) (map[string]*float64, error) {
	pairs := validPairs(c)

	index := make(map[labelPair]string, len(pairs))
	out := make(map[string]*float64, len(pairs))
	for _, p := range pairs {
		index[p] = p.key()
		out[p.key()] = copyDistance(d.Default)
	}

	seen := make(map[string]string, len(d.Overrides))
	for rawKey, value := range d.Overrides {
		p, err := parsePairKey(rawKey)
		if err != nil {
			return nil, err
		}
		key, ok := index[p]
		if !ok {
			key, ok = index[labelPair{p.b, p.a}]
		}
		if !ok {
			return nil, fmt.Errorf("%w: distance key %q does not name a valid pair of criteria blocks (valid: %s)",
				aurorax.ErrValidation, rawKey, strings.Join(PairKeys(c), ", "))
		}
		if prev, dup := seen[key]; dup && !sameDistance(d.Overrides[prev], value) {
			first, second := min(prev, rawKey), max(prev, rawKey)
			return nil, fmt.Errorf("%w: distance keys %q and %q name the same pair with different values",
				aurorax.ErrValidation, first, second)
		}
		seen[key] = rawKey
		out[key] = copyDistance(value)
	}

	return out, nil
}

func parsePairKey(key string) (labelPair, error) {
	left, right, ok := strings.Cut(strings.TrimSpace(key), "-")
	if !ok {
		return labelPair{}, fmt.Errorf("%w: distance key %q must look like \"ground1-space1\"", aurorax.ErrValidation, key)
	}
	a, err := parseLabel(left)
	if err != nil {
		return labelPair{}, fmt.Errorf("%w: distance key %q: %v", aurorax.ErrValidation, key, err)
	}
	b, err := parseLabel(right)
	if err != nil {
		return labelPair{}, fmt.Errorf("%w: distance key %q: %v", aurorax.ErrValidation, key, err)
	}
	return labelPair{a, b}, nil
}

func parseLabel(s string) (blockLabel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, kind := range []BlockKind{KindGround, KindSpace, KindEvents, KindAdhoc, "custom"} {
		rest, ok := strings.CutPrefix(s, string(kind))
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return blockLabel{}, fmt.Errorf("invalid block label %q", s)
		}
		if kind == "custom" {
			kind = KindAdhoc
		}
		return blockLabel{kind: kind, index: n}, nil
	}
	return blockLabel{}, fmt.Errorf("unknown block label %q", s)
}

func sameDistance(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyDistance(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Km(*v)
}
