package printing

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hexChannels(t *testing.T, hex string) [3]int {
	t.Helper()
	require.Len(t, hex, 7, "expected #rrggbb, got %q", hex)
	var out [3]int
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(hex[1+2*i:3+2*i], 16, 8)
		require.NoError(t, err)
		out[i] = int(v)
	}
	return out
}

func assertHexNear(t *testing.T, want, got string, tolerance int) {
	t.Helper()
	w, g := hexChannels(t, want), hexChannels(t, got)
	for i := range w {
		diff := w[i] - g[i]
		if diff < 0 {
			diff = -diff
		}
		assert.LessOrEqual(t, diff, tolerance, "channel %d of %s vs %s", i, got, want)
	}
}

func TestSafeColorValue_Functions(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		want      string
		tolerance int
	}{
		{"oklch white", "oklch(1 0 0)", "#ffffff", 0},
		{"oklch black", "oklch(0 0 0)", "#000000", 0},
		{"oklch red", "oklch(62.8% 0.2577 29.23)", "#ff0000", 1},
		{"oklab red", "oklab(0.62796 0.22486 0.12585)", "#ff0000", 1},
		{"lab red", "lab(54.29 80.82 69.91)", "#ff0000", 2},
		{"lch red", "lch(54.29 106.84 40.85)", "#ff0000", 2},
		{"hsl legacy", "hsl(120, 100%, 25%)", "#008000", 0},
		{"hsl modern", "hsl(240deg 100% 50%)", "#0000ff", 0},
		{"hwb pure", "hwb(0 0% 0%)", "#ff0000", 0},
		{"hwb gray", "hwb(0 50% 50%)", "#808080", 0},
		{"display-p3 clamps", "color(display-p3 1 0 0)", "#ff0000", 0},
		{"srgb", "color(srgb 0 0.5 1)", "#0080ff", 0},
		{"modern rgb", "rgb(255 0 0)", "#ff0000", 0},
		{"oklch turn hue", "oklch(0.452 0.313 0.7335turn)", "#0000ff", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeColorValue(tt.in)
			assertHexNear(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestSafeColorValue_Alpha(t *testing.T) {
	assert.Equal(t, "rgba(255, 255, 255, 0.5)", SafeColorValue("oklch(1 0 0 / 50%)"))
	assert.Equal(t, "rgba(0, 0, 0, 0.25)", SafeColorValue("rgba(0, 0, 0, 0.25)"))
	assert.Equal(t, "#ffffff", SafeColorValue("hsl(0 0% 100% / 1)"))
}

func TestSafeColorValue_EmbeddedInShorthand(t *testing.T) {
	got := SafeColorValue("1px solid oklch(0 0 0)")
	assert.Equal(t, "1px solid #000000", got)

	got = SafeColorValue("linear-gradient(90deg, oklch(1 0 0), hsl(0 0% 0%))")
	assert.Equal(t, "linear-gradient(90deg, #ffffff, #000000)", got)
}

func TestSafeColorValue_LeavesOtherValuesAlone(t *testing.T) {
	for _, v := range []string{
		"#2563eb",
		"12px",
		"avoid",
		"exact",
		"var(--brand)",
		"calc(100% - 2mm)",
		"background-color",
		"transparent",
		"currentColor",
		"#fade",
		"url(red.png)",
		`"red"`,
		"bold italic",
	} {
		assert.Equal(t, v, SafeColorValue(v), v)
	}
}

func TestSafeColorValue_NamedColors(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"red", "#ff0000"},
		{"White", "#ffffff"},
		{"rebeccapurple", "#663399"},
		{"1px solid red", "1px solid #ff0000"},
		{"linear-gradient(navy, teal)", "linear-gradient(#000080, #008080)"},
		{"0 0 2px black !important", "0 0 2px #000000 !important"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeColorValue(tt.in), tt.in)
	}

	named := StyleSet{{Selector: ".pin", Declarations: []Declaration{{Property: "color", Value: "red"}}}}
	assert.False(t, IsExportSafe(named))
	color, _ := ProjectExportSafe(named).Lookup(".pin", "color")
	assert.Equal(t, "#ff0000", color)
}

func TestSafeColorValue_Unresolvable(t *testing.T) {
	assert.Equal(t, UnsafeColorFallback, SafeColorValue("oklch(var(--l) 0.1 200)"))
	assert.Equal(t, UnsafeColorFallback, SafeColorValue("color(rec2020 1 0 0)"))
	assert.Equal(t, UnsafeColorFallback, SafeColorValue("oklch(banana)"))
}

func TestSafeColorValue_ColorMix(t *testing.T) {
	assert.Equal(t, "#808080", SafeColorValue("color-mix(in srgb, #ffffff, #000000 50%)"))
	assert.Equal(t, "#ffffff", SafeColorValue("color-mix(in oklab, white 100%, black)"))

	got := SafeColorValue("color-mix(in oklab, oklch(1 0 0), oklch(0 0 0))")
	c := hexChannels(t, got)
	assert.Equal(t, c[0], c[1])
	assert.Equal(t, c[1], c[2])
	assert.Greater(t, c[0], 80)
	assert.Less(t, c[0], 120)
}

func TestSafeColorValue_Idempotent(t *testing.T) {
	for _, v := range []string{
		"oklch(0.7 0.15 150)",
		"oklch(0.7 0.15 150 / 0.4)",
		"lab(50 20 -30)",
		"hsl(10 50% 50%)",
	} {
		once := SafeColorValue(v)
		assert.Equal(t, once, SafeColorValue(once), v)
	}
}

func TestProjectExportSafe(t *testing.T) {
	live := StyleSet{
		{Selector: ":root", Declarations: []Declaration{
			{Property: "--brand", Value: "oklch(0.546 0.245 262.881)"},
		}},
		{Selector: ".card", Declarations: []Declaration{
			{Property: "border", Value: "1px dashed oklch(0.872 0.01 258.338)"},
			{Property: "break-inside", Value: "avoid"},
		}},
	}
	snapshot := live.Clone()

	safe := ProjectExportSafe(live)

	assert.Equal(t, snapshot, live, "live styles must not change")
	assert.False(t, IsExportSafe(live))
	assert.True(t, IsExportSafe(safe))

	brand, ok := safe.Lookup(":root", "--brand")
	require.True(t, ok)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, brand)

	border, ok := safe.Lookup(".card", "border")
	require.True(t, ok)
	assert.Regexp(t, `^1px dashed #[0-9a-f]{6}$`, border)

	brk, _ := safe.Lookup(".card", "break-inside")
	assert.Equal(t, "avoid", brk)
}

func TestStyleSet_CSS(t *testing.T) {
	s := StyleSet{{Selector: ".a", Declarations: []Declaration{{Property: "color", Value: "#000"}, {Property: "margin", Value: "0"}}}}
	assert.Equal(t, ".a{color:#000;margin:0;}\n", s.CSS())
}
