package leptons

import "math"

// DeltaPhi is the azimuthal distance folded into [0, pi].
func DeltaPhi(phi1 float64, phi2 float64) float64 {
	return math.Abs(math.Remainder(phi2-phi1, 2*math.Pi))
}

func DeltaR(eta1 float64, phi1 float64, eta2 float64, phi2 float64) float64 {
	dphi := DeltaPhi(phi1, phi2)
	deta := eta1 - eta2
	return math.Sqrt(dphi*dphi + deta*deta)
}

// Direction is the (eta, phi) pair used for angular matching.
type Direction struct {
	Eta float64
	Phi float64
}

// MinDeltaR is the smallest separation between d and any of others, or
// +Inf when others is empty.
func MinDeltaR(d Direction, others []Direction) float64 {
	minDR := math.Inf(1)
	for _, o := range others {
		if dr := DeltaR(o.Eta, o.Phi, d.Eta, d.Phi); dr < minDR {
			minDR = dr
		}
	}
	return minDR
}

// MT is the transverse mass of a lepton and the missing momentum.
func MT(pt float64, phi float64, metPt float64, metPhi float64) float64 {
	return math.Sqrt(2 * pt * metPt * (1 - math.Cos(phi-metPhi)))
}

func CT1(met float64, ht float64) float64 {
	return math.Min(met, ht-100)
}

func CT2(met float64, isrPt float64) float64 {
	return math.Min(met, isrPt-25)
}
