package brotherql

import "sort"

// Model holds the capabilities of one printer model.
type Model struct {
	Name string
	// MaxLengthDots is the longest single print job the model feeds.
	MaxLengthDots int
	ModeSetting   bool
	Cutting       bool
	ExpandedMode  bool
	Compression   bool
	TwoColor      bool
	BytesPerRow   int
	// AdditionalOffsetR is added to the right margin of every label.
	AdditionalOffsetR  int
	NumInvalidateBytes int
}

// PixelWidth is the width of one raster row in dots.
func (m Model) PixelWidth() int { return m.BytesPerRow * 8 }

func newModel(name string, maxLen int, opts ...func(*Model)) Model {
	m := Model{
		Name:               name,
		MaxLengthDots:      maxLen,
		ModeSetting:        true,
		Cutting:            true,
		ExpandedMode:       true,
		Compression:        true,
		BytesPerRow:        90,
		NumInvalidateBytes: 200,
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func noCompression(m *Model) { m.Compression = false }
func noModeSetting(m *Model) { m.ModeSetting = false }
func twoColor(m *Model) {
	m.TwoColor = true
	m.NumInvalidateBytes = 400
}
func wide(m *Model) {
	m.BytesPerRow = 162
	m.AdditionalOffsetR = 44
}

var models = []Model{
	newModel("QL-500", 11811, noCompression, noModeSetting, func(m *Model) {
		m.ExpandedMode = false
		m.Cutting = false
	}),
	newModel("QL-550", 11811, noCompression, noModeSetting),
	newModel("QL-560", 11811, noCompression, noModeSetting),
	newModel("QL-570", 11811, noCompression, noModeSetting),
	newModel("QL-580N", 11811),
	newModel("QL-650TD", 11811),
	newModel("QL-700", 11811, noCompression, noModeSetting),
	newModel("QL-710W", 11811),
	newModel("QL-720NW", 11811),
	newModel("QL-800", 11811, twoColor, noCompression),
	newModel("QL-810W", 11811, twoColor),
	newModel("QL-820NWB", 11811, twoColor),
	newModel("QL-1050", 35433, wide),
	newModel("QL-1060N", 35433, wide),
	newModel("QL-1100", 35434, wide),
	newModel("QL-1100NWB", 35434, wide),
	newModel("QL-1110NWB", 35434, wide),
	newModel("QL-1115NWB", 35434, wide),
	newModel("PT-P750W", 14172, func(m *Model) { m.BytesPerRow = 16 }),
	newModel("PT-P900W", 28346, func(m *Model) { m.BytesPerRow = 70 }),
}

// LookupModel returns the model with the given name.
func LookupModel(name string) (Model, bool) {
	for _, m := range models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// ModelNames lists every supported model name, sorted.
func ModelNames() []string {
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}
