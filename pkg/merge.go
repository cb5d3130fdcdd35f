package leptons

import (
	"golang.org/x/exp/slices"
)

// MergeCopy gathers one attribute through a merged index list, reading
// preferred entries from first and the others from second.
func MergeCopy[T any](list MergedIndexList, first []T, second []T) []T {
	out := make([]T, len(list))
	for i, ref := range list {
		if ref.Origin == OriginPreferred {
			out[i] = first[ref.Index]
		} else {
			out[i] = second[ref.Index]
		}
	}
	return out
}

// MergeFillSecond is MergeCopy for an attribute only the preferred side
// has; other entries get fill.
func MergeFillSecond[T any](list MergedIndexList, first []T, fill T) []T {
	out := make([]T, len(list))
	for i, ref := range list {
		if ref.Origin == OriginPreferred {
			out[i] = first[ref.Index]
		} else {
			out[i] = fill
		}
	}
	return out
}

// MergeFillFirst is MergeCopy for an attribute only the other side has.
func MergeFillFirst[T any](list MergedIndexList, fill T, second []T) []T {
	out := make([]T, len(list))
	for i, ref := range list {
		if ref.Origin == OriginPreferred {
			out[i] = fill
		} else {
			out[i] = second[ref.Index]
		}
	}
	return out
}

// LeptonMerge orders two collections together by decreasing pt without
// any geometric matching. Equal pt keeps the concatenation order, first
// collection before second.
func LeptonMerge(first []CandidateRef, ptFirst []float64, second []CandidateRef, ptSecond []float64) MergedIndexList {
	type entry struct {
		ref MergedRef
		pt  float64
	}
	entries := make([]entry, 0, len(first)+len(second))
	for i, ref := range first {
		entries = append(entries, entry{ref: MergedRef{Origin: OriginPreferred, CandidateRef: ref}, pt: ptFirst[i]})
	}
	for i, ref := range second {
		entries = append(entries, entry{ref: MergedRef{Origin: OriginOther, CandidateRef: ref}, pt: ptSecond[i]})
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.pt > b.pt:
			return -1
		case a.pt < b.pt:
			return 1
		default:
			return 0
		}
	})

	list := make(MergedIndexList, len(entries))
	for i, e := range entries {
		list[i] = e.ref
	}
	return list
}
