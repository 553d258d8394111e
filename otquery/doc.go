/*
Package otquery queries metrics and naming information from parsed fonts.

Package otquery knows which tables of a font to address for which kind of
query: line metrics and units-per-em come from `hhea` and `head`, per-glyph
advance and side bearings from `hmtx`, kerning from `kern`, and family
names from `name`. Clients will typically be text layouters and glyph
rasterizers, which need scaling factors to map font units onto pixels.

# Status

Work in progress. No variable fonts, no vertical metrics.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert.pillmayer@gmx.de>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'gtype.fonts'
func tracer() tracing.Trace {
	return tracing.Select("gtype.fonts")
}
