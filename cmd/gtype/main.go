package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/flopp/go-findfont"
	"github.com/npillmayer/gtype/ot"
	"github.com/npillmayer/gtype/otquery"
	"github.com/npillmayer/gtype/raster"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
	"golang.org/x/image/font/gofont/goregular"
)

// tracer traces with key 'gtype.fonts'
func tracer() tracing.Trace {
	return tracing.Select("gtype.fonts")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":    "go",
		"trace.gtype.fonts":  "Info",
		"trace.gtype.raster": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load (file path or family name)")
	fontindex := flag.Int("index", 0, "Font index within a TTC collection file")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError) // will set the correct level later
	pterm.Info.Println("Welcome to the gtype CLI")
	tracer().Infof("Trace level is %s", *tlevel)
	//
	// set up REPL
	repl, err := readline.New("gtype > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl}
	//
	// load font to use
	if err := intp.loadFont(*fontname, *fontindex); err != nil {
		tracer().Errorf(err.Error())
		os.Exit(4)
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D")
	switch strings.ToLower(*tlevel) {
	case "debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().SetTraceLevel(tracing.LevelInfo)
	}
	intp.REPL()
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	font *ot.Font
	repl *readline.Instance
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := intp.execute(line)
		if err != nil {
			pterm.Error.Println(err.Error())
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

func (intp *Intp) execute(line string) (bool, error) {
	c := strings.Split(line, ":") // e.g. "render:A:20" or "glyph:G" or "tables"
	tracer().Infof("parse command = %v", c)
	switch strings.ToLower(c[0]) {
	case "quit":
		return true, nil
	case "tables":
		pterm.Printfln("font tables: %v", intp.font.TableTags())
	case "info":
		names := otquery.NameInfo(intp.font)
		m := otquery.FontMetrics(intp.font)
		pterm.Printfln("family:   %s %s", names["family"], names["subfamily"])
		pterm.Printfln("version:  %s", names["version"])
		pterm.Printfln("glyphs:   %d", intp.font.NumGlyphs())
		pterm.Printfln("ascent %d, descent %d, line gap %d, %d units/em",
			m.Ascent, m.Descent, m.LineGap, m.UnitsPerEm)
	case "glyph":
		cp, err := argRune(c, 1)
		if err != nil {
			return false, err
		}
		gid := intp.font.GlyphIndex(cp)
		metrics := otquery.GlyphMetrics(intp.font, gid)
		pterm.Printfln("glyph %d, advance %d, lsb %d, rsb %d, bbox %v",
			gid, metrics.Advance, metrics.LSB, metrics.RSB, metrics.BBox)
	case "kern":
		cp1, err := argRune(c, 1)
		if err != nil {
			return false, err
		}
		cp2, err := argRune(c, 2)
		if err != nil {
			return false, err
		}
		g1 := intp.font.GlyphIndex(cp1)
		g2 := intp.font.GlyphIndex(cp2)
		pterm.Printfln("kern %c%c = %d font units", cp1, cp2,
			otquery.KernAdvance(intp.font, g1, g2))
	case "render":
		cp, err := argRune(c, 1)
		if err != nil {
			return false, err
		}
		px := 20
		if len(c) > 2 {
			if px, err = strconv.Atoi(c[2]); err != nil {
				return false, fmt.Errorf("pixel height not numeric: %v", c[2])
			}
		}
		scale := otquery.ScaleForPixelHeight(intp.font, float32(px))
		bm, _, _, err := raster.CodepointBitmap(intp.font, scale, scale, cp)
		if err != nil {
			return false, err
		}
		pterm.Printfln("%c at %dpx, %dx%d:\n%s", cp, px, bm.Width, bm.Height, bm)
	default:
		help()
	}
	return false, nil
}

func argRune(c []string, inx int) (rune, error) {
	if len(c) <= inx || c[inx] == "" {
		return 0, fmt.Errorf("command needs a character argument, e.g. %s:A", c[0])
	}
	return []rune(c[inx])[0], nil
}

// loadFont reads a font file and parses it. fontname may be a file path or
// a family name to locate among the installed system fonts; with an empty
// name the embedded Go Regular font is used.
func (intp *Intp) loadFont(fontname string, index int) error {
	data := goregular.TTF
	if fontname != "" {
		path := fontname
		if _, err := os.Stat(path); err != nil {
			if path, err = findfont.Find(fontname); err != nil {
				return err
			}
			tracer().Infof("found font file %s", path)
		}
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return err
		}
	}
	offset := ot.FontOffsetForIndex(data, index)
	if offset < 0 {
		return fmt.Errorf("no font at index %d", index)
	}
	otf, err := ot.ParseAt(data, offset)
	if err != nil {
		return err
	}
	intp.font = otf
	pterm.Printfln("font tables: %v", otf.TableTags())
	return nil
}

func help() {
	pterm.Info.Println("Commands")
	pterm.Println(`
	tables          list the font's table tags
	info            family name and global metrics
	glyph:<char>    glyph index and metrics for a character
	kern:<a>:<b>    kerning adjustment for a pair
	render:<char>:<px>
	                rasterize a character as ASCII art
	quit            leave the CLI
	`)
}
