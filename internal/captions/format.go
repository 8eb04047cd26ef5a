package captions

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"captionsync/internal/textutil"
)

// Format names a caption syntax.
type Format string

// Supported formats.
const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(value string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".") {
	case "srt", "subrip":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "ass", "ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported caption format %q", value)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Style configures ASS output.
type Style struct {
	FontName string
	FontSize int
	Outline  int
	Shadow   int
	// FadeIn and FadeOut are milliseconds.
	FadeIn  int
	FadeOut int
}

// Options controls rendering.
type Options struct {
	Format          Format
	MaxCharsPerLine int
	SpeakerLabels   bool
	Style           Style
}

// DefaultOptions returns SRT output wrapped at 42 characters.
func DefaultOptions() Options {
	return Options{
		Format:          FormatSRT,
		MaxCharsPerLine: 42,
		SpeakerLabels:   true,
		Style:           Style{FontName: "Arial", FontSize: 18, Outline: 2, Shadow: 1, FadeIn: 50, FadeOut: 50},
	}
}

// Render writes cues to w.
func Render(w io.Writer, cues []Cue, opts Options) error {
	switch opts.Format {
	case FormatSRT, "":
		return renderSRT(w, cues, opts)
	case FormatVTT:
		return renderVTT(w, cues, opts)
	case FormatASS:
		return renderASS(w, cues, opts)
	default:
		return fmt.Errorf("unsupported caption format %q", opts.Format)
	}
}

// Marshal renders cues into memory.
func Marshal(cues []Cue, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, cues, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cueLines(c Cue, opts Options) []string {
	text := c.Text
	if opts.SpeakerLabels && c.MultiSpeaker && c.Speaker != "" {
		text = "[" + c.Speaker + "] " + text
	}
	lines := textutil.Wrap(text, opts.MaxCharsPerLine)
	if len(lines) == 0 {
		return []string{text}
	}
	return lines
}

func renderSRT(w io.Writer, cues []Cue, opts Options) error {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n", i+1, clockMillis(c.Start, ','), clockMillis(c.End, ','))
		b.WriteString(strings.Join(cueLines(c, opts), "\n"))
		b.WriteString("\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderVTT(w io.Writer, cues []Cue, opts Options) error {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, c := range cues {
		fmt.Fprintf(&b, "%s --> %s\n", clockMillis(c.Start, '.'), clockMillis(c.End, '.'))
		b.WriteString(strings.Join(cueLines(c, opts), "\n"))
		b.WriteString("\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

const assHeader = `[Script Info]
Title: captionsync
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,%s,%d,&H00FFFFFF,&H00FFFFFF,&H00000000,&H80000000,0,0,0,0,100,100,0,0,1,%d,%d,2,10,10,10,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

func renderASS(w io.Writer, cues []Cue, opts Options) error {
	style := opts.Style
	if style.FontName == "" {
		style.FontName = "Arial"
	}
	if style.FontSize <= 0 {
		style.FontSize = 18
	}
	var b strings.Builder
	fmt.Fprintf(&b, assHeader, style.FontName, style.FontSize, style.Outline, style.Shadow)
	for _, c := range cues {
		text := strings.Join(cueLines(c, opts), `\N`)
		if style.FadeIn > 0 || style.FadeOut > 0 {
			text = fmt.Sprintf(`{\fad(%d,%d)}`, style.FadeIn, style.FadeOut) + text
		}
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,%s,0,0,0,,%s\n",
			clockCentis(c.Start), clockCentis(c.End), assName(c.Speaker), text)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func assName(speaker string) string {
	return strings.NewReplacer(",", " ", "\n", " ").Replace(speaker)
}

// clockMillis renders HH:MM:SS<sep>mmm.
func clockMillis(seconds float64, sep byte) string {
	total := int64(math.Round(max(0, seconds) * 1000))
	ms := total % 1000
	s := total / 1000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", s/3600, (s%3600)/60, s%60, sep, ms)
}

// clockCentis renders H:MM:SS.cc.
func clockCentis(seconds float64) string {
	total := int64(math.Round(max(0, seconds) * 100))
	cs := total % 100
	s := total / 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", s/3600, (s%3600)/60, s%60, cs)
}
