package leptons

import "math"

// DefaultMatchDeltaR is the separation below which a standard and a low
// pT electron are taken to be the same particle.
const DefaultMatchDeltaR = 0.1

// Origin tells which side of a merge a candidate was taken from.
type Origin uint8

const (
	OriginPreferred Origin = iota
	OriginOther
)

func (o Origin) String() string {
	if o == OriginPreferred {
		return "P"
	}
	return "O"
}

// MergedRef is one entry of a merged collection.
type MergedRef struct {
	Origin Origin
	CandidateRef
}

type MergedIndexList []MergedRef

// Pair records that preferred candidate P was matched to other candidate O.
type Pair struct {
	P  int
	O  int
	DR float64
}

// Match removes from the other collection the candidates that are the
// nearest neighbour of a preferred candidate within threshold. Each
// preferred candidate looks for its nearest neighbour on its own, so two
// of them may claim the same other candidate; that is kept as is.
func Match(preferred []CandidateRef, pDirs []Direction, other []CandidateRef, oDirs []Direction,
	threshold float64) ([]Pair, MergedIndexList) {
	var pairs []Pair
	matched := make([]bool, len(other))
	for i, p := range pDirs {
		nearest := -1
		minDR := math.Inf(1)
		for j, o := range oDirs {
			if dr := DeltaR(p.Eta, p.Phi, o.Eta, o.Phi); dr < minDR {
				minDR = dr
				nearest = j
			}
		}
		if nearest >= 0 && minDR < threshold {
			pairs = append(pairs, Pair{P: i, O: nearest, DR: minDR})
			matched[nearest] = true
		}
	}

	merged := make(MergedIndexList, 0, len(preferred)+len(other))
	for _, ref := range preferred {
		merged = append(merged, MergedRef{Origin: OriginPreferred, CandidateRef: ref})
	}
	for j, ref := range other {
		if !matched[j] {
			merged = append(merged, MergedRef{Origin: OriginOther, CandidateRef: ref})
		}
	}
	return pairs, merged
}
