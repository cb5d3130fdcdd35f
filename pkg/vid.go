package leptons

import (
	"fmt"
	"strconv"
	"strings"
)

// Electron VID cut names, most significant segment first. Each cut uses
// 3 bits of Electron_vidNestedWPBitmap holding the highest working point
// passed (0 fail, 1 veto, 2 loose, 3 medium, 4 tight).
const (
	GsfEleMissingHitsCut                = "GsfEleMissingHitsCut"
	GsfEleConversionVetoCut             = "GsfEleConversionVetoCut"
	GsfEleRelPFIsoScaledCut             = "GsfEleRelPFIsoScaledCut"
	GsfEleEInverseMinusPInverseCut      = "GsfEleEInverseMinusPInverseCut"
	GsfEleHadronicOverEMEnergyScaledCut = "GsfEleHadronicOverEMEnergyScaledCut"
	GsfEleFull5x5SigmaIEtaIEtaCut       = "GsfEleFull5x5SigmaIEtaIEtaCut"
	GsfEleDPhiInCut                     = "GsfEleDPhiInCut"
	GsfEleDEtaInSeedCut                 = "GsfEleDEtaInSeedCut"
	GsfEleSCEtaMultiRangeCut            = "GsfEleSCEtaMultiRangeCut"
	MinPtCut                            = "MinPtCut"
)

const bitsPerCut = 3

var VIDCutNames = []string{
	GsfEleMissingHitsCut,
	GsfEleConversionVetoCut,
	GsfEleRelPFIsoScaledCut,
	GsfEleEInverseMinusPInverseCut,
	GsfEleHadronicOverEMEnergyScaledCut,
	GsfEleFull5x5SigmaIEtaIEtaCut,
	GsfEleDPhiInCut,
	GsfEleDEtaInSeedCut,
	GsfEleSCEtaMultiRangeCut,
	MinPtCut,
}

// Short names used in the analysis configuration to drop single cuts.
var vidCutAliases = map[string]string{
	"lostHits":       GsfEleMissingHitsCut,
	"convVeto":       GsfEleConversionVetoCut,
	"pfRelIso03_all": GsfEleRelPFIsoScaledCut,
	"EinvMinusPinv":  GsfEleEInverseMinusPInverseCut,
	"hoe":            GsfEleHadronicOverEMEnergyScaledCut,
	"sieie":          GsfEleFull5x5SigmaIEtaIEtaCut,
	"dPhiInCut":      GsfEleDPhiInCut,
	"dEtaSeed":       GsfEleDEtaInSeedCut,
	"SCEta":          GsfEleSCEtaMultiRangeCut,
	"pt":             MinPtCut,
}

// BitCutMap is the decoded content of a VID bitmap.
type BitCutMap map[string]uint8

// BitDecoder splits packed bitmaps into named 3 bit segments.
type BitDecoder struct {
	names []string
	index map[string]int
}

var vidDecoder = mustBitDecoder(VIDCutNames)

// NewBitDecoder builds a decoder for the given segment names, most
// significant first.
func NewBitDecoder(names []string) (*BitDecoder, error) {
	if len(names) == 0 || len(names)*bitsPerCut > 63 {
		return nil, &ConfigurationError{
			Field:  "cut_names",
			Value:  strings.Join(names, ","),
			Reason: fmt.Sprintf("%d segments do not fit a 64 bit bitmap", len(names)),
		}
	}
	d := &BitDecoder{names: names, index: make(map[string]int, len(names))}
	for i, name := range names {
		if _, ok := d.index[name]; ok {
			return nil, &ConfigurationError{Field: "cut_names", Value: name, Reason: "duplicated cut name"}
		}
		d.index[name] = i
	}
	return d, nil
}

func mustBitDecoder(names []string) *BitDecoder {
	d, err := NewBitDecoder(names)
	if err != nil {
		panic(err)
	}
	return d
}

// VIDDecoder returns the decoder for Electron_vidNestedWPBitmap.
func VIDDecoder() *BitDecoder {
	return vidDecoder
}

// Width is the number of bits covered by the named segments.
func (d *BitDecoder) Width() int {
	return len(d.names) * bitsPerCut
}

// Names returns the segment names, most significant first.
func (d *BitDecoder) Names() []string {
	return append([]string(nil), d.names...)
}

// Decode renders the bitmap as a fixed width binary string and reads it
// back three bits at a time.
func (d *BitDecoder) Decode(bitmap uint64) (BitCutMap, error) {
	width := d.Width()
	s := strconv.FormatUint(bitmap, 2)
	if len(s) > width {
		return nil, &ConfigurationError{
			Field:  "bitmap",
			Value:  strconv.FormatUint(bitmap, 8),
			Reason: fmt.Sprintf("wider than %d bits", width),
		}
	}
	s = strings.Repeat("0", width-len(s)) + s

	cuts := make(BitCutMap, len(d.names))
	for i, name := range d.names {
		level, err := strconv.ParseUint(s[i*bitsPerCut:(i+1)*bitsPerCut], 2, 8)
		if err != nil {
			return nil, err
		}
		cuts[name] = uint8(level)
	}
	return cuts, nil
}

// Encode packs the levels back into a bitmap. Missing names encode as 0.
func (d *BitDecoder) Encode(cuts BitCutMap) (uint64, error) {
	var bitmap uint64
	for name, level := range cuts {
		i, ok := d.index[name]
		if !ok {
			return 0, &ConfigurationError{Field: "cut", Value: name, Reason: "unknown cut name"}
		}
		if level > 7 {
			return 0, &ConfigurationError{Field: name, Value: strconv.Itoa(int(level)), Reason: "level does not fit 3 bits"}
		}
		shift := uint((len(d.names) - 1 - i) * bitsPerCut)
		bitmap |= uint64(level) << shift
	}
	return bitmap, nil
}

// resolve maps full names and aliases to segment names.
func (d *BitDecoder) resolve(ignore []string) (map[string]bool, error) {
	removed := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		if alias, ok := vidCutAliases[name]; ok {
			if _, known := d.index[alias]; known {
				name = alias
			}
		}
		if _, ok := d.index[name]; !ok {
			return nil, &ConfigurationError{Field: "ignore_cuts", Value: name, Reason: "unknown cut name"}
		}
		removed[name] = true
	}
	return removed, nil
}

// Evaluate requires every cut not listed in ignore to reach minLevel.
// Ignoring every cut leaves nothing to check and passes.
func (d *BitDecoder) Evaluate(cuts BitCutMap, minLevel uint8, ignore []string) (bool, error) {
	removed, err := d.resolve(ignore)
	if err != nil {
		return false, err
	}
	for name, level := range cuts {
		if removed[name] {
			continue
		}
		if level < minLevel {
			return false, nil
		}
	}
	return true, nil
}

// VIDRequirement is a minimum working point with some cuts dropped,
// resolved once so that the per candidate check is a few shifts.
type VIDRequirement struct {
	decoder  *BitDecoder
	minLevel uint8
	checked  []bool
}

func NewVIDRequirement(d *BitDecoder, minLevel uint8, ignore []string) (VIDRequirement, error) {
	if minLevel > 7 {
		return VIDRequirement{}, &ConfigurationError{Field: "min_level", Value: strconv.Itoa(int(minLevel)), Reason: "level does not fit 3 bits"}
	}
	removed, err := d.resolve(ignore)
	if err != nil {
		return VIDRequirement{}, err
	}
	checked := make([]bool, len(d.names))
	for i, name := range d.names {
		checked[i] = !removed[name]
	}
	return VIDRequirement{decoder: d, minLevel: minLevel, checked: checked}, nil
}

// Pass gives the same answer as Decode followed by Evaluate.
func (r VIDRequirement) Pass(bitmap uint64) (bool, error) {
	n := len(r.checked)
	if n*bitsPerCut < 64 && bitmap>>uint(n*bitsPerCut) != 0 {
		return false, &ConfigurationError{
			Field:  "bitmap",
			Value:  strconv.FormatUint(bitmap, 8),
			Reason: fmt.Sprintf("wider than %d bits", n*bitsPerCut),
		}
	}
	for i := 0; i < n; i++ {
		if !r.checked[i] {
			continue
		}
		level := uint8(bitmap>>uint((n-1-i)*bitsPerCut)) & 07
		if level < r.minLevel {
			return false, nil
		}
	}
	return true, nil
}
