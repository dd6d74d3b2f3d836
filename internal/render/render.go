// Package render formats batch results for an output sink.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danmuck/tcontctl/internal/batch"
	"github.com/danmuck/tcontctl/internal/protocol"
)

// Writer renders results to its sink.
type Writer interface {
	Write(results []batch.Result) error
}

// Text writes the line format:
//
//	Request:
//	Command: 3132
//	F1: 12
//
// with a blank line between messages.
type Text struct {
	w      io.Writer
	color  bool
	title  lipgloss.Style
	errs   lipgloss.Style
	labels lipgloss.Style
}

// NewText binds a text writer to w. Colour is only applied when requested
// and w is a terminal.
func NewText(w io.Writer, color bool) *Text {
	r := lipgloss.NewRenderer(w)
	return &Text{
		w:      w,
		color:  color,
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7d56f4")),
		errs:   r.NewStyle().Foreground(lipgloss.Color("#ee4b2b")),
		labels: r.NewStyle().Italic(true).Foreground(lipgloss.Color("#888888")),
	}
}

func (t *Text) style(s lipgloss.Style, text string) string {
	if !t.color {
		return text
	}
	return s.Render(text)
}

func (t *Text) Write(results []batch.Result) error {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		if res.Err != nil {
			fmt.Fprintf(&b, "%s %s\n",
				t.style(t.title, res.Direction.String()),
				t.style(t.errs, fmt.Sprintf("error: %s: %v", protocol.KindOf(res.Err), res.Err)),
			)
			continue
		}
		fmt.Fprintf(&b, "%s\n", t.style(t.title, res.Direction.String()+":"))
		fmt.Fprintf(&b, "%s %s\n", t.style(t.labels, "Command:"), res.Message.Data)
		for _, f := range res.Message.Fields {
			fmt.Fprintf(&b, "%s %s\n", t.style(t.labels, f.Name+":"), f.Value.String())
		}
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// JSON writes the results as a single document.
type JSON struct {
	w      io.Writer
	indent bool
}

func NewJSON(w io.Writer, indent bool) *JSON {
	return &JSON{w: w, indent: indent}
}

// FieldOut is the JSON shape of one field. Value is a string or a number.
// JSON strings are UTF-8, so ASCII values holding bytes above 0x7F lose them
// in Value; Raw always carries the exact hex slice.
type FieldOut struct {
	Name     string `json:"name"`
	Encoding string `json:"encoding"`
	Offset   int    `json:"offset"`
	Raw      string `json:"raw"`
	Value    any    `json:"value"`
}

// ErrorOut is the JSON shape of a failed record.
type ErrorOut struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type MessageOut struct {
	Index     int        `json:"index"`
	Direction string     `json:"direction"`
	Data      string     `json:"data,omitempty"`
	Fields    []FieldOut `json:"fields,omitempty"`
	Error     *ErrorOut  `json:"error,omitempty"`
}

// Document builds the JSON shape shared by the CLI and the HTTP service.
func Document(results []batch.Result) []MessageOut {
	out := make([]MessageOut, 0, len(results))
	for _, res := range results {
		m := MessageOut{Index: res.Index, Direction: res.Direction.String()}
		if res.Err != nil {
			m.Error = ErrorFor(res.Err)
			out = append(out, m)
			continue
		}
		m.Data = res.Message.Data
		m.Fields = make([]FieldOut, 0, len(res.Message.Fields))
		for _, f := range res.Message.Fields {
			m.Fields = append(m.Fields, FieldOut{
				Name:     f.Name,
				Encoding: f.Value.Encoding.String(),
				Offset:   f.Offset,
				Raw:      f.Raw,
				Value:    f.Value.Any(),
			})
		}
		out = append(out, m)
	}
	return out
}

func ErrorFor(err error) *ErrorOut {
	return &ErrorOut{Kind: protocol.KindOf(err).String(), Message: err.Error()}
}

func (j *JSON) Write(results []batch.Result) error {
	enc := json.NewEncoder(j.w)
	if j.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(struct {
		Messages []MessageOut `json:"messages"`
	}{Messages: Document(results)})
}
