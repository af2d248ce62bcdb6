package printing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mazznoer/csscolorparser"
)

// Declaration is a single CSS property/value pair
type Declaration struct {
	Property string
	Value    string
}

// StyleRule is a selector with its declarations, in source order
type StyleRule struct {
	Selector     string
	Declarations []Declaration
}

// StyleSet is an ordered stylesheet
type StyleSet []StyleRule

// Clone returns a deep copy of the style set
func (s StyleSet) Clone() StyleSet {
	out := make(StyleSet, len(s))
	for i, r := range s {
		out[i] = StyleRule{
			Selector:     r.Selector,
			Declarations: append([]Declaration(nil), r.Declarations...),
		}
	}
	return out
}

// CSS serializes the style set
func (s StyleSet) CSS() string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(r.Selector)
		b.WriteString("{")
		for _, d := range r.Declarations {
			b.WriteString(d.Property)
			b.WriteString(":")
			b.WriteString(d.Value)
			b.WriteString(";")
		}
		b.WriteString("}\n")
	}
	return b.String()
}

// Lookup returns the value of a property for a selector
func (s StyleSet) Lookup(selector, property string) (string, bool) {
	for _, r := range s {
		if r.Selector != selector {
			continue
		}
		for _, d := range r.Declarations {
			if d.Property == property {
				return d.Value, true
			}
		}
	}
	return "", false
}

// UnsafeColorFallback replaces color expressions that cannot be resolved
// to sRGB, such as functions whose channels come from var().
const UnsafeColorFallback = "#000000"

// ProjectExportSafe maps a style set onto an equivalent that only uses
// hex and rgba() colors. Color functions and named colors are evaluated to
// sRGB. The input is never modified.
func ProjectExportSafe(s StyleSet) StyleSet {
	out := s.Clone()
	for i := range out {
		for j := range out[i].Declarations {
			out[i].Declarations[j].Value = SafeColorValue(out[i].Declarations[j].Value)
		}
	}
	return out
}

// IsExportSafe reports whether every declaration is already rasterizer-safe
func IsExportSafe(s StyleSet) bool {
	for _, r := range s {
		for _, d := range r.Declarations {
			if SafeColorValue(d.Value) != d.Value {
				return false
			}
		}
	}
	return true
}

var colorFunctions = map[string]bool{
	"oklch": true, "oklab": true, "lab": true, "lch": true,
	"hsl": true, "hsla": true, "hwb": true, "color": true,
	"color-mix": true, "rgb": true, "rgba": true,
}

// keywords that are colors but have no hex form or depend on context
var keptColorKeywords = map[string]bool{
	"transparent":  true,
	"currentcolor": true,
}

// SafeColorValue rewrites every color function and named color in a CSS
// value to hex or rgba. Strings, url() and var() are copied as they are.
func SafeColorValue(value string) string {
	var b strings.Builder
	i := 0
	for i < len(value) {
		c := value[i]
		switch {
		case c == '"' || c == '\'':
			end := strings.IndexByte(value[i+1:], c)
			if end < 0 {
				b.WriteString(value[i:])
				return b.String()
			}
			b.WriteString(value[i : i+end+2])
			i += end + 2
		case isIdentStart(c) && (i == 0 || (!isIdentChar(value[i-1]) && value[i-1] != '#')):
			j := i
			for j < len(value) && isIdentChar(value[j]) {
				j++
			}
			word := value[i:j]
			if j < len(value) && value[j] == '(' {
				end := matchParen(value, j)
				if end < 0 {
					b.WriteString(value[i:])
					return b.String()
				}
				b.WriteString(projectCall(word, value[i:end+1], value[j+1:end]))
				i = end + 1
				continue
			}
			if col, ok := namedColor(word); ok {
				b.WriteString(cssColor(col))
			} else {
				b.WriteString(word)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func projectCall(name, call, body string) string {
	lower := strings.ToLower(name)
	switch {
	case colorFunctions[lower]:
		if c, err := parseColor(call); err == nil {
			return cssColor(c)
		}
		return UnsafeColorFallback
	case lower == "var" || lower == "url":
		return call
	default:
		return name + "(" + SafeColorValue(body) + ")"
	}
}

// namedColor resolves a bare CSS color keyword
func namedColor(word string) (csscolorparser.Color, bool) {
	word = strings.ToLower(word)
	if keptColorKeywords[word] || isHexDigits(word) {
		return csscolorparser.Color{}, false
	}
	c, err := csscolorparser.Parse(word)
	if err != nil {
		return csscolorparser.Color{}, false
	}
	return c, true
}

func isHexDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

// matchParen returns the index of the paren closing the one at open
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// cssColor prints an opaque color as #rrggbb and a translucent one as rgba()
func cssColor(c csscolorparser.Color) string {
	r, g, b := channel(c.R), channel(c.G), channel(c.B)
	a := clamp01(c.A)
	if a >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, strconv.FormatFloat(math.Round(a*1000)/1000, 'f', -1, 64))
}

func channel(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func withAlpha(c colorful.Color, a float64) csscolorparser.Color {
	c = c.Clamped()
	return csscolorparser.Color{R: c.R, G: c.G, B: c.B, A: clamp01(a)}
}

func toColorful(c csscolorparser.Color) colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

// parseColor evaluates a color expression to sRGB. Hex, named colors and
// the rgb, hsl and hwb functions go through csscolorparser; the Lab family,
// color() and color-mix() are converted with go-colorful.
func parseColor(expr string) (csscolorparser.Color, error) {
	expr = strings.TrimSpace(expr)
	open := strings.IndexByte(expr, '(')
	if open < 0 {
		return csscolorparser.Parse(expr)
	}
	if !strings.HasSuffix(expr, ")") {
		return csscolorparser.Color{}, fmt.Errorf("unterminated color %q", expr)
	}
	name := strings.ToLower(strings.TrimSpace(expr[:open]))
	body := expr[open+1 : len(expr)-1]
	if strings.Contains(body, "var(") {
		return csscolorparser.Color{}, fmt.Errorf("unresolved variable in %q", expr)
	}

	switch name {
	case "rgb", "rgba", "hsl", "hsla", "hwb":
		return csscolorparser.Parse(expr)
	case "color-mix":
		return parseColorMix(body)
	}

	channels, alpha, err := splitChannels(body)
	if err != nil {
		return csscolorparser.Color{}, err
	}

	var c colorful.Color
	switch name {
	case "oklab":
		c, err = fromOklab(channels)
	case "oklch":
		c, err = fromOklch(channels)
	case "lab":
		c, err = fromLab(channels)
	case "lch":
		c, err = fromLch(channels)
	case "color":
		c, err = fromColorSpace(channels)
	default:
		err = fmt.Errorf("unsupported color function %q", name)
	}
	if err != nil {
		return csscolorparser.Color{}, err
	}

	a := 1.0
	if alpha != "" {
		if a, err = parseNumber(alpha, 1); err != nil {
			return csscolorparser.Color{}, err
		}
	}
	return withAlpha(c, a), nil
}

// splitChannels splits "a b c / alpha"
func splitChannels(body string) ([]string, string, error) {
	alpha := ""
	if idx := strings.IndexByte(body, '/'); idx >= 0 {
		alpha = strings.TrimSpace(body[idx+1:])
		body = body[:idx]
	}
	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	if len(fields) < 3 {
		return nil, "", fmt.Errorf("expected three channels, got %q", body)
	}
	return fields, alpha, nil
}

// parseNumber parses a number or percentage; a percentage maps 100% to full
func parseNumber(s string, full float64) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "none" {
		return 0, nil
	}
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid percentage %q", s)
		}
		return v / 100 * full, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

var angleUnits = []struct {
	suffix string
	factor float64
}{
	{"deg", 1},
	{"grad", 0.9},
	{"rad", 180 / math.Pi},
	{"turn", 360},
}

// parseHue parses an angle into degrees
func parseHue(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, u := range angleUnits {
		if strings.HasSuffix(s, u.suffix) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(s, u.suffix), 64)
			if err != nil {
				return 0, fmt.Errorf("invalid angle %q", s)
			}
			return v * u.factor, nil
		}
	}
	return parseNumber(s, 0)
}

// parseTriple reads three channels, each with its own percentage reference
func parseTriple(ch []string, full [3]float64) ([3]float64, error) {
	var out [3]float64
	for i := range out {
		v, err := parseNumber(ch[i], full[i])
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// polar reads lightness, chroma and hue and returns lightness, a, b
func polar(ch []string, fullL, fullC float64) (float64, float64, float64, error) {
	l, err := parseNumber(ch[0], fullL)
	if err != nil {
		return 0, 0, 0, err
	}
	c, err := parseNumber(ch[1], fullC)
	if err != nil {
		return 0, 0, 0, err
	}
	h, err := parseHue(ch[2])
	if err != nil {
		return 0, 0, 0, err
	}
	rad := h * math.Pi / 180
	return l, c * math.Cos(rad), c * math.Sin(rad), nil
}

func fromOklab(ch []string) (colorful.Color, error) {
	v, err := parseTriple(ch, [3]float64{1, 0.4, 0.4})
	if err != nil {
		return colorful.Color{}, err
	}
	return colorful.OkLab(v[0], v[1], v[2]), nil
}

func fromOklch(ch []string) (colorful.Color, error) {
	l, a, b, err := polar(ch, 1, 0.4)
	if err != nil {
		return colorful.Color{}, err
	}
	return colorful.OkLab(l, a, b), nil
}

func fromLab(ch []string) (colorful.Color, error) {
	v, err := parseTriple(ch, [3]float64{100, 125, 125})
	if err != nil {
		return colorful.Color{}, err
	}
	return cieLab(v[0], v[1], v[2]), nil
}

func fromLch(ch []string) (colorful.Color, error) {
	l, a, b, err := polar(ch, 100, 150)
	if err != nil {
		return colorful.Color{}, err
	}
	return cieLab(l, a, b), nil
}

// cieLab converts CSS Lab (D50 white, L in 0..100) to sRGB
func cieLab(l, a, b float64) colorful.Color {
	x, y, z := colorful.LabToXyzWhiteRef(l/100, a/100, b/100, colorful.D50)
	return colorful.Xyz(d50ToD65(x, y, z))
}

// d50ToD65 applies the Bradford chromatic adaptation
func d50ToD65(x, y, z float64) (float64, float64, float64) {
	return 0.9554734527042182*x - 0.023098536874261423*y + 0.0632593086610217*z,
		-0.028369706963208136*x + 1.0099954580058226*y + 0.021041398966943008*z,
		0.012314001688319899*x - 0.020507696433477912*y + 1.3303659366080753*z
}

var colorSpaces = map[string]func(x, y, z float64) colorful.Color{
	"srgb":        func(r, g, b float64) colorful.Color { return colorful.Color{R: r, G: g, B: b} },
	"srgb-linear": colorful.LinearRgb,
	"display-p3": func(r, g, b float64) colorful.Color {
		// display-p3 shares the sRGB transfer curve
		r, g, b = colorful.Color{R: r, G: g, B: b}.LinearRgb()
		return colorful.Xyz(
			0.4865709486482162*r+0.26566769316909306*g+0.1982172852343625*b,
			0.2289745640697488*r+0.6917385218365064*g+0.079286914093745*b,
			0.04511338185890264*g+1.043944368900976*b,
		)
	},
	"xyz":     colorful.Xyz,
	"xyz-d65": colorful.Xyz,
	"xyz-d50": func(x, y, z float64) colorful.Color { return colorful.Xyz(d50ToD65(x, y, z)) },
}

func fromColorSpace(ch []string) (colorful.Color, error) {
	if len(ch) < 4 {
		return colorful.Color{}, fmt.Errorf("color() needs a space and three channels")
	}
	space, ok := colorSpaces[strings.ToLower(ch[0])]
	if !ok {
		return colorful.Color{}, fmt.Errorf("unsupported color space %q", ch[0])
	}
	v, err := parseTriple(ch[1:], [3]float64{1, 1, 1})
	if err != nil {
		return colorful.Color{}, err
	}
	return space(v[0], v[1], v[2]), nil
}

// parseColorMix evaluates color-mix(in <space>, A [p%], B [p%]). Mixing in
// srgb interpolates gamma-encoded channels; every other space mixes in oklab.
func parseColorMix(body string) (csscolorparser.Color, error) {
	parts := splitTopLevel(body, ',')
	if len(parts) != 3 {
		return csscolorparser.Color{}, fmt.Errorf("color-mix needs a space and two colors")
	}
	space := strings.Fields(strings.ToLower(parts[0]))
	if len(space) < 2 || space[0] != "in" {
		return csscolorparser.Color{}, fmt.Errorf("invalid color-mix space %q", parts[0])
	}

	c1, p1, err := mixOperand(parts[1])
	if err != nil {
		return csscolorparser.Color{}, err
	}
	c2, p2, err := mixOperand(parts[2])
	if err != nil {
		return csscolorparser.Color{}, err
	}

	switch {
	case p1 < 0 && p2 < 0:
		p1, p2 = 50, 50
	case p1 < 0:
		p1 = 100 - p2
	case p2 < 0:
		p2 = 100 - p1
	}
	total := p1 + p2
	if total <= 0 {
		return csscolorparser.Color{}, fmt.Errorf("color-mix percentages sum to zero")
	}
	w := p2 / total

	var mixed colorful.Color
	if space[1] == "srgb" {
		mixed = toColorful(c1).BlendRgb(toColorful(c2), w)
	} else {
		mixed = toColorful(c1).BlendOkLab(toColorful(c2), w)
	}
	alpha := (c1.A + (c2.A-c1.A)*w) * math.Min(total, 100) / 100
	return withAlpha(mixed, alpha), nil
}

// mixOperand parses "color [pct%]"; a missing percentage is returned as -1
func mixOperand(s string) (csscolorparser.Color, float64, error) {
	s = strings.TrimSpace(s)
	pct := -1.0
	if idx := strings.LastIndexByte(s, ' '); idx >= 0 && strings.HasSuffix(s, "%") && !strings.HasSuffix(s, ")") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s[idx+1:], "%"), 64)
		if err == nil {
			pct = v
			s = strings.TrimSpace(s[:idx])
		}
	}
	c, err := parseColor(s)
	return c, pct, err
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
