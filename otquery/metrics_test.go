package otquery

import (
	"math"
	"strings"
	"testing"

	"github.com/npillmayer/gtype/ot"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goregular"
)

// --- Test Suite Preparation ------------------------------------------------

type MetricsTestEnviron struct {
	suite.Suite
	gofont *ot.Font
}

// listen for 'go test' command --> run test methods
func TestMetricsFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "gtype.fonts")
	defer teardown()
	suite.Run(t, new(MetricsTestEnviron))
}

// run once, before test suite methods
func (env *MetricsTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("gtype.fonts").SetTraceLevel(tracing.LevelError)
	otf, err := ot.Parse(goregular.TTF)
	if err != nil {
		env.T().Fatalf("cannot parse embedded test font: %s", err)
	}
	env.gofont = otf
	tracing.Select("gtype.fonts").SetTraceLevel(tracing.LevelInfo)
}

// run once, after test suite methods
func (env *MetricsTestEnviron) TearDownSuite() {
	env.T().Log("Tearing down test suite")
}

// --- Tests -----------------------------------------------------------------

func (env *MetricsTestEnviron) TestGlyphIndex() {
	gid := GlyphIndex(env.gofont, 'A')
	env.NotEqual(ot.GlyphIndex(0), gid, "expected 'A' to be mapped in test font")
	env.Equal('A', CodePointForGlyph(env.gofont, gid), "expected reverse lookup to roundtrip")
}

func (env *MetricsTestEnviron) TestFontMetrics() {
	m := FontMetrics(env.gofont)
	env.T().Logf("metrics = %v", m)
	env.Greater(int(m.Ascent), 0, "expected positive ascent")
	env.Less(int(m.Descent), 0, "expected negative descent")
	env.Equal(2048, int(m.UnitsPerEm), "expected 2048 units per em in test font")
	env.False(m.BBox.Empty(), "expected a non-empty font bounding box")
}

func (env *MetricsTestEnviron) TestGlyphMetrics() {
	gid := GlyphIndex(env.gofont, 'A')
	m := GlyphMetrics(env.gofont, gid)
	env.T().Logf("metrics = %v", m)
	env.Greater(int(m.Advance), 0, "expected positive advance for 'A'")
	env.False(m.BBox.Empty(), "expected a bounding box for 'A'")
	env.Equal(m.Advance-(m.LSB+m.BBox.Dx()), m.RSB, "expected rsb = aw - (lsb + dx)")
}

func (env *MetricsTestEnviron) TestWhitespaceMetrics() {
	gid := GlyphIndex(env.gofont, ' ')
	m := GlyphMetrics(env.gofont, gid)
	env.Greater(int(m.Advance), 0, "expected positive advance for space")
	env.True(m.BBox.Empty(), "expected an empty bounding box for space")
}

func (env *MetricsTestEnviron) TestScaleRoundTrip() {
	ascent, descent, _ := env.gofont.HHea.LineMetrics()
	for _, h := range []float32{8, 12.5, 20, 64, 300} {
		scale := ScaleForPixelHeight(env.gofont, h)
		back := scale * float32(int(ascent)-int(descent))
		env.InEpsilon(float64(h), float64(back), 1e-6, "expected scale to invert line height")
	}
}

func (env *MetricsTestEnviron) TestScaleForEmToPixels() {
	scale := ScaleForEmToPixels(env.gofont, 2048)
	env.True(math.Abs(float64(scale-1)) < 1e-6, "expected identity scale at upem pixels")
}

func (env *MetricsTestEnviron) TestKernAdvance() {
	if env.gofont.Kern == nil {
		env.T().Skip("test font has no kern table")
	}
	a := GlyphIndex(env.gofont, 'A')
	v := GlyphIndex(env.gofont, 'V')
	env.LessOrEqual(int(KernAdvance(env.gofont, a, v)), 0, "expected 'AV' not to kern apart")
}

func (env *MetricsTestEnviron) TestFontName() {
	name := FontName(env.gofont)
	env.T().Logf("family = %q", name)
	env.True(strings.HasPrefix(name, "Go"), "expected family name of test font to start with 'Go'")
	info := NameInfo(env.gofont)
	env.Contains(info, "family", "expected a family entry in the name info")
}
