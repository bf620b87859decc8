package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/korap/krill"
	"golang.org/x/term"
)

// lanePalette colors highlight lanes; lanes beyond the palette wrap around.
var lanePalette = []color.Attribute{
	color.FgHiYellow,
	color.FgHiGreen,
	color.FgHiCyan,
	color.FgHiMagenta,
	color.FgHiRed,
	color.FgHiBlue,
}

// configureColor applies the --color flag.
// "auto" respects the NO_COLOR env var and whether stdout is a TTY.
func configureColor(mode string) error {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != ""
	default:
		return fmt.Errorf("unknown color mode %q (want auto, always or never)", mode)
	}
	return nil
}

// renderTerminal renders a snippet with ANSI styles instead of brackets:
// the match is bold and underlined, each highlight lane has its own color
// and annotation spans are italic.
func renderTerminal(s *krill.Snippet) string {
	lanes := krill.NewLaneTable()
	var open []krill.ClassID

	var b strings.Builder
	if s.StartMore {
		b.WriteString("... ")
	}
	for _, it := range s.Items {
		switch it.Kind {
		case krill.ItemText:
			b.WriteString(styleFor(open, lanes, it.Text))
		case krill.ItemOpen:
			if it.Class.IsHighlight() {
				lanes.Acquire(it.Class)
			}
			open = append(open, it.Class)
		case krill.ItemClose:
			open = open[:len(open)-1]
			if it.Class.IsHighlight() && it.Terminal {
				lanes.Release(it.Class)
			}
		}
	}
	if s.EndMore {
		b.WriteString(" ...")
	}
	return b.String()
}

func styleFor(open []krill.ClassID, lanes *krill.LaneTable, text string) string {
	var attrs []color.Attribute
	lane := -1
	for _, class := range open {
		switch {
		case class.IsMatch():
			attrs = append(attrs, color.Bold, color.Underline)
		case class.IsAnnotation():
			attrs = append(attrs, color.Italic)
		default:
			// Innermost highlight wins.
			if l, ok := lanes.Lane(class); ok {
				lane = l
			}
		}
	}
	if lane >= 0 {
		attrs = append(attrs, lanePalette[lane%len(lanePalette)])
	}
	if len(attrs) == 0 {
		return text
	}
	return color.New(attrs...).Sprint(text)
}
