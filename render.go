package krill

import (
	"html"
	"log/slog"
	"strconv"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RENDERERS
// ═══════════════════════════════════════════════════════════════════════════════
// Both renderers walk the combinator items in order; the items are already
// well nested, so no renderer needs a stack of its own.
//
// BRACKETS:
// ---------
//
//	... der [alte {1:Mann} ging] langsam ...
//
//	[ ]          the match
//	{ }          highlight class 0
//	{n: }        highlight class n
//	{title: }    annotation span
//
// MARKUP:
// -------
//
//	<span class="more"></span>der <mark>alte <mark class="class-1 level-0">Mann</mark> ging</mark>...
// ═══════════════════════════════════════════════════════════════════════════════

// RenderBrackets returns the bracket notation of s. Text is not escaped.
func RenderBrackets(s *Snippet) string {
	var b strings.Builder
	if s.StartMore {
		b.WriteString("... ")
	}
	for _, it := range s.Items {
		switch it.Kind {
		case ItemText:
			b.WriteString(it.Text)
		case ItemOpen:
			switch {
			case it.Class.IsMatch():
				b.WriteByte('[')
			case it.Class.IsAnnotation():
				b.WriteByte('{')
				b.WriteString(s.Titles[it.Class])
				b.WriteByte(':')
			case it.Class == 0:
				b.WriteByte('{')
			default:
				b.WriteByte('{')
				b.WriteString(strconv.Itoa(int(it.Class)))
				b.WriteByte(':')
			}
		case ItemClose:
			if it.Class.IsMatch() {
				b.WriteByte(']')
			} else {
				b.WriteByte('}')
			}
		}
	}
	if s.EndMore {
		b.WriteString(" ...")
	}
	return b.String()
}

// RenderStats reports degradations of one markup rendering.
type RenderStats struct {
	LanesExhausted bool
	MaxLanes       int // highest number of lanes in use at once
}

// HTMLRenderer renders snippets as markup. The zero value is not usable;
// call NewHTMLRenderer. A renderer can be reused for many snippets.
type HTMLRenderer struct {
	MoreMarker string
	stats      RenderStats
}

// NewHTMLRenderer returns a renderer with the default ellipsis marker.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{MoreMarker: `<span class="more"></span>`}
}

// Stats returns the statistics of the last Render call.
func (hr *HTMLRenderer) Stats() RenderStats { return hr.stats }

// Render returns the markup of s.
func (hr *HTMLRenderer) Render(s *Snippet) string {
	hr.stats = RenderStats{}
	lanes := NewLaneTable()

	var b strings.Builder
	if s.StartMore {
		b.WriteString(hr.MoreMarker)
	}
	for _, it := range s.Items {
		switch it.Kind {
		case ItemText:
			b.WriteString(html.EscapeString(it.Text))
		case ItemOpen:
			hr.open(&b, s, lanes, it.Class)
		case ItemClose:
			hr.close(&b, lanes, it)
		}
	}
	if s.EndMore {
		b.WriteString(hr.MoreMarker)
	}

	if lanes.Exhausted() {
		hr.stats.LanesExhausted = true
		slog.Warn("highlight lanes exhausted, lane 0 reused",
			slog.Int("docID", s.DocID), slog.Int("lanes", LaneCount), slog.String("error", ErrLanesExhausted.Error()))
	}
	return b.String()
}

func (hr *HTMLRenderer) open(b *strings.Builder, s *Snippet, lanes *LaneTable, class ClassID) {
	switch {
	case class.IsMatch():
		b.WriteString("<mark>")
	case class.IsAnnotation():
		b.WriteString(`<span title="`)
		b.WriteString(html.EscapeString(s.Titles[class]))
		b.WriteString(`">`)
	default:
		lane, _ := lanes.Acquire(class)
		if used := LaneCount - lanes.Free(); used > hr.stats.MaxLanes {
			hr.stats.MaxLanes = used
		}
		b.WriteString(`<mark class="class-`)
		b.WriteString(strconv.Itoa(int(class)))
		b.WriteString(` level-`)
		b.WriteString(strconv.Itoa(lane))
		b.WriteString(`">`)
	}
}

func (hr *HTMLRenderer) close(b *strings.Builder, lanes *LaneTable, it Item) {
	switch {
	case it.Class.IsAnnotation():
		b.WriteString("</span>")
	case it.Class.IsMatch():
		b.WriteString("</mark>")
	default:
		b.WriteString("</mark>")
		// Non-terminal closes keep the lane for the reopened run.
		if it.Terminal {
			lanes.Release(it.Class)
		}
	}
}

// RenderHTML renders s with a fresh HTMLRenderer.
func RenderHTML(s *Snippet) (string, RenderStats) {
	hr := NewHTMLRenderer()
	out := hr.Render(s)
	return out, hr.Stats()
}
