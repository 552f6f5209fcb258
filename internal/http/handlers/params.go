package handlers

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"qlweb/internal/brotherql"
	"qlweb/internal/config"
	"qlweb/internal/domain"
	"qlweb/internal/infra/fonts"
)

const (
	defaultFontSize  = 40
	defaultMargin    = 10
	defaultThreshold = 70
	defaultMarginPct = 25

	maxFontSize  = 1000
	maxMarginPct = 1000
)

// FontLookup resolves installed fonts. *fonts.Registry implements it.
type FontLookup interface {
	Path(family, style string) (string, bool)
	Styles(family string) []string
}

// floatParam reads a numeric form or query value, falling back to def when
// the field is absent.
func floatParam(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.FormValue(key))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid %s: %q", key, raw))
	}
	return f, nil
}

// intParam is floatParam truncated to an int. Browsers may send floats for
// range inputs.
func intParam(c *fiber.Ctx, key string, def int) (int, error) {
	f, err := floatParam(c, key, float64(def))
	if err != nil {
		return 0, err
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s out of range", key))
	}
	return int(f), nil
}

// splitFontFamily parses "Family (Style)". Without parentheses the whole
// value is the family and the style is empty.
func splitFontFamily(v string) (family, style string) {
	v = strings.TrimSpace(v)
	open := strings.LastIndex(v, "(")
	if open < 0 || !strings.HasSuffix(v, ")") {
		return v, ""
	}
	return strings.TrimSpace(v[:open]), strings.TrimSpace(v[open+1 : len(v)-1])
}

func resolveFont(lookup FontLookup, value string, def config.FontSpec) (family, style, path string, err error) {
	family, style = splitFontFamily(value)
	if family == "" {
		family, style = def.Family, def.Style
	}
	if style == "" {
		styles := lookup.Styles(family)
		switch {
		case len(styles) == 0:
		case family == def.Family && containsString(styles, def.Style):
			style = def.Style
		default:
			style = styles[0]
		}
	}
	path, ok := lookup.Path(family, style)
	if !ok {
		return family, style, "", fmt.Errorf("%w: %s (%s)", domain.ErrUnknownFont, family, style)
	}
	return family, style, path, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// codeType picks the grocy symbol: the request field, then the Code128
// environment switch, then the configured default.
func codeType(c *fiber.Ctx, cfg config.Config) (domain.CodeType, error) {
	if v := c.FormValue("code_type"); v != "" {
		ct := domain.CodeType(strings.ToLower(v))
		if !ct.Valid() {
			return "", fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid code_type: %q", v))
		}
		return ct, nil
	}
	if os.Getenv("Code128") == "1" {
		return domain.CodeCode128, nil
	}
	return domain.CodeType(cfg.Label.GrocyCode), nil
}

// parseLabelContext builds the rendering context of a request. Lookup
// failures wrap the domain sentinel errors; malformed fields are returned
// as *fiber.Error with status 400.
func parseLabelContext(c *fiber.Ctx, cfg config.Config, lookup FontLookup) (*domain.LabelContext, error) {
	lc := &domain.LabelContext{
		Text:      c.FormValue("text"),
		LabelSize: c.FormValue("label_size", cfg.Label.DefaultSize),
		GrocyCode: c.FormValue("grocycode"),
		Product:   c.FormValue("product"),
		Chore:     c.FormValue("chore"),
		Battery:   c.FormValue("battery"),
		DueDate:   c.FormValue("due_date"),
	}

	var err error
	if lc.FontSize, err = intParam(c, "font_size", defaultFontSize); err != nil {
		return nil, err
	}
	if lc.FontSize <= 0 || lc.FontSize > maxFontSize {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("font_size must be between 1 and %d", maxFontSize))
	}
	if lc.Margin, err = intParam(c, "margin", defaultMargin); err != nil {
		return nil, err
	}
	if lc.Threshold, err = intParam(c, "threshold", defaultThreshold); err != nil {
		return nil, err
	}

	lc.Align = domain.Align(strings.ToLower(c.FormValue("align", string(domain.AlignCenter))))
	switch lc.Align {
	case domain.AlignLeft, domain.AlignCenter, domain.AlignRight:
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid align: %q", lc.Align))
	}

	lc.Orientation = domain.Orientation(strings.ToLower(c.FormValue("orientation", cfg.Label.DefaultOrientation)))
	if !lc.Orientation.Valid() {
		return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid orientation: %q", lc.Orientation))
	}

	margins := []struct {
		key string
		dst *int
	}{
		{"margin_top", &lc.MarginTop},
		{"margin_bottom", &lc.MarginBottom},
		{"margin_left", &lc.MarginLeft},
		{"margin_right", &lc.MarginRight},
	}
	for _, m := range margins {
		pct, err := floatParam(c, m.key, defaultMarginPct)
		if err != nil {
			return nil, err
		}
		if pct < 0 || pct > maxMarginPct {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s must be between 0 and %d", m.key, maxMarginPct))
		}
		*m.dst = int(float64(lc.FontSize) * pct / 100)
	}

	if lc.CodeType, err = codeType(c, cfg); err != nil {
		return nil, err
	}

	lc.FontFamily, lc.FontStyle, lc.FontPath, err = resolveFont(lookup, c.FormValue("font_family"), cfg.Label.DefaultFont)
	if err != nil {
		return nil, err
	}

	spec, ok := brotherql.Label(lc.LabelSize)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownLabelSize, lc.LabelSize)
	}
	lc.Kind = spec.Kind
	lc.Width, lc.Height = domain.Dimensions(spec, lc.Orientation)

	lc.FillColor = domain.Black
	if strings.Contains(lc.LabelSize, "red") {
		lc.FillColor = domain.Red
		lc.Red = true
	}
	return lc, nil
}

var _ FontLookup = (*fonts.Registry)(nil)
