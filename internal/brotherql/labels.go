package brotherql

import (
	"fmt"
	"sort"
)

// LabelKind distinguishes continuous tape from pre-cut labels.
type LabelKind int

const (
	EndlessLabel LabelKind = iota + 1
	DieCutLabel
	RoundDieCutLabel
)

func (k LabelKind) String() string {
	switch k {
	case EndlessLabel:
		return "endless"
	case DieCutLabel:
		return "die-cut"
	case RoundDieCutLabel:
		return "round die-cut"
	default:
		return fmt.Sprintf("LabelKind(%d)", int(k))
	}
}

// Dots is a width/height pair measured in printer dots (300 dpi).
type Dots struct {
	Width  int
	Height int
}

// LabelSpec describes one media type the printers accept.
type LabelSpec struct {
	Identifier string
	Name       string
	Kind       LabelKind
	// TapeSize is width and length in millimetres; length is 0 for endless tape.
	TapeSize         [2]int
	DotsTotal        Dots
	DotsPrintable    Dots
	RightMarginDots  int
	FeedMargin       int
	RestrictToModels []string
	Color            bool
}

// Endless reports whether the label is continuous tape.
func (s LabelSpec) Endless() bool { return s.Kind == EndlessLabel }

var labelSpecs = []LabelSpec{
	{Identifier: "12", Name: "12mm endless", Kind: EndlessLabel, TapeSize: [2]int{12, 0}, DotsTotal: Dots{142, 0}, DotsPrintable: Dots{106, 0}, RightMarginDots: 29, FeedMargin: 35},
	{Identifier: "29", Name: "29mm endless", Kind: EndlessLabel, TapeSize: [2]int{29, 0}, DotsTotal: Dots{341, 0}, DotsPrintable: Dots{306, 0}, RightMarginDots: 6, FeedMargin: 35},
	{Identifier: "38", Name: "38mm endless", Kind: EndlessLabel, TapeSize: [2]int{38, 0}, DotsTotal: Dots{449, 0}, DotsPrintable: Dots{413, 0}, RightMarginDots: 12, FeedMargin: 35},
	{Identifier: "50", Name: "50mm endless", Kind: EndlessLabel, TapeSize: [2]int{50, 0}, DotsTotal: Dots{590, 0}, DotsPrintable: Dots{554, 0}, RightMarginDots: 12, FeedMargin: 35},
	{Identifier: "54", Name: "54mm endless", Kind: EndlessLabel, TapeSize: [2]int{54, 0}, DotsTotal: Dots{636, 0}, DotsPrintable: Dots{590, 0}, RightMarginDots: 0, FeedMargin: 35},
	{Identifier: "62", Name: "62mm endless", Kind: EndlessLabel, TapeSize: [2]int{62, 0}, DotsTotal: Dots{732, 0}, DotsPrintable: Dots{696, 0}, RightMarginDots: 12, FeedMargin: 35},
	{Identifier: "62red", Name: "62mm endless (black/red/white)", Kind: EndlessLabel, TapeSize: [2]int{62, 0}, DotsTotal: Dots{732, 0}, DotsPrintable: Dots{696, 0}, RightMarginDots: 12, FeedMargin: 35, RestrictToModels: []string{"QL-800", "QL-810W", "QL-820NWB"}, Color: true},
	{Identifier: "102", Name: "102mm endless", Kind: EndlessLabel, TapeSize: [2]int{102, 0}, DotsTotal: Dots{1200, 0}, DotsPrintable: Dots{1164, 0}, RightMarginDots: 12, FeedMargin: 35, RestrictToModels: wideModels},
	{Identifier: "17x54", Name: "17mm x 54mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{17, 54}, DotsTotal: Dots{201, 636}, DotsPrintable: Dots{165, 566}, RightMarginDots: 0},
	{Identifier: "17x87", Name: "17mm x 87mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{17, 87}, DotsTotal: Dots{201, 1026}, DotsPrintable: Dots{165, 956}, RightMarginDots: 0},
	{Identifier: "23x23", Name: "23mm x 23mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{23, 23}, DotsTotal: Dots{272, 272}, DotsPrintable: Dots{202, 202}, RightMarginDots: 42},
	{Identifier: "29x42", Name: "29mm x 42mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{29, 42}, DotsTotal: Dots{341, 495}, DotsPrintable: Dots{306, 425}, RightMarginDots: 6},
	{Identifier: "29x90", Name: "29mm x 90mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{29, 90}, DotsTotal: Dots{341, 1061}, DotsPrintable: Dots{306, 991}, RightMarginDots: 6},
	{Identifier: "39x90", Name: "38mm x 90mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{38, 90}, DotsTotal: Dots{449, 1061}, DotsPrintable: Dots{413, 991}, RightMarginDots: 12},
	{Identifier: "39x48", Name: "39mm x 48mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{39, 48}, DotsTotal: Dots{461, 565}, DotsPrintable: Dots{425, 495}, RightMarginDots: 6},
	{Identifier: "52x29", Name: "52mm x 29mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{52, 29}, DotsTotal: Dots{614, 341}, DotsPrintable: Dots{578, 271}, RightMarginDots: 0},
	{Identifier: "62x29", Name: "62mm x 29mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{62, 29}, DotsTotal: Dots{732, 341}, DotsPrintable: Dots{696, 271}, RightMarginDots: 12},
	{Identifier: "62x100", Name: "62mm x 100mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{62, 100}, DotsTotal: Dots{732, 1179}, DotsPrintable: Dots{696, 1109}, RightMarginDots: 12},
	{Identifier: "102x51", Name: "102mm x 51mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{102, 51}, DotsTotal: Dots{1200, 596}, DotsPrintable: Dots{1164, 526}, RightMarginDots: 12, RestrictToModels: wideModels},
	{Identifier: "102x152", Name: "102mm x 153mm die-cut", Kind: DieCutLabel, TapeSize: [2]int{102, 153}, DotsTotal: Dots{1200, 1822}, DotsPrintable: Dots{1164, 1660}, RightMarginDots: 12, RestrictToModels: wideModels},
	{Identifier: "d12", Name: "12mm round die-cut", Kind: RoundDieCutLabel, TapeSize: [2]int{12, 12}, DotsTotal: Dots{142, 142}, DotsPrintable: Dots{94, 94}, RightMarginDots: 113},
	{Identifier: "d24", Name: "24mm round die-cut", Kind: RoundDieCutLabel, TapeSize: [2]int{24, 24}, DotsTotal: Dots{284, 284}, DotsPrintable: Dots{236, 236}, RightMarginDots: 42},
	{Identifier: "d58", Name: "58mm round die-cut", Kind: RoundDieCutLabel, TapeSize: [2]int{58, 58}, DotsTotal: Dots{688, 688}, DotsPrintable: Dots{618, 618}, RightMarginDots: 51},
}

var wideModels = []string{"QL-1050", "QL-1060N", "QL-1100", "QL-1100NWB", "QL-1110NWB", "QL-1115NWB"}

var labelsByID = func() map[string]LabelSpec {
	m := make(map[string]LabelSpec, len(labelSpecs))
	for _, s := range labelSpecs {
		m[s.Identifier] = s
	}
	return m
}()

// Label returns the spec registered under identifier.
func Label(identifier string) (LabelSpec, bool) {
	s, ok := labelsByID[identifier]
	return s, ok
}

// Labels returns all label specs in their canonical order.
func Labels() []LabelSpec {
	out := make([]LabelSpec, len(labelSpecs))
	copy(out, labelSpecs)
	return out
}

// LabelIdentifiers returns the identifiers of all known labels, sorted.
func LabelIdentifiers() []string {
	ids := make([]string, 0, len(labelSpecs))
	for _, s := range labelSpecs {
		ids = append(ids, s.Identifier)
	}
	sort.Strings(ids)
	return ids
}

// SupportedBy reports whether the label can be used with the given model.
func (s LabelSpec) SupportedBy(model string) bool {
	if len(s.RestrictToModels) == 0 {
		return true
	}
	for _, m := range s.RestrictToModels {
		if m == model {
			return true
		}
	}
	return false
}
