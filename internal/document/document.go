// Package document turns message documents into decoder records.
//
// Ownership boundary:
// - document formats (xml, json, toml, yaml)
// - attribute presence checks
// - format registry
//
// Field lengths and encoding tags are passed through untouched; the message
// decoder owns their validation.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/danmuck/tcontctl/internal/protocol"
	"github.com/danmuck/tcontctl/internal/protocol/message"
)

// Parser reads every message record from one document.
type Parser interface {
	Format() string
	Parse(r io.Reader) ([]message.Record, error)
}

var ErrUnknownFormat = errors.New("document: unknown format")

// SyntaxError wraps a failure of the underlying format parser.
type SyntaxError struct {
	Format string
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("document: %s syntax: %v", e.Format, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// AttrError reports an attribute whose value could not be interpreted.
// Record and Field are 1-based; Field is 0 for record-level attributes.
type AttrError struct {
	Record int
	Field  int
	Attr   string
	Value  string
	Err    error
}

func (e *AttrError) Error() string {
	if e.Field == 0 {
		return fmt.Sprintf("document: record %d: attribute %s=%q: %v", e.Record, e.Attr, e.Value, e.Err)
	}
	return fmt.Sprintf(
		"document: record %d field %d: attribute %s=%q: %v",
		e.Record,
		e.Field,
		e.Attr,
		e.Value,
		e.Err,
	)
}

func (e *AttrError) Unwrap() error {
	return e.Err
}

var (
	mu       sync.RWMutex
	registry = map[string]Parser{}
)

func init() {
	Register(XML{})
	Register(JSON{})
	Register(TOML{})
	Register(YAML{})
}

func Register(p Parser) {
	mu.Lock()
	defer mu.Unlock()
	registry[p.Format()] = p
}

func Get(format string) (Parser, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := registry[strings.ToLower(strings.TrimSpace(format))]
	return p, ok
}

// Formats lists registered format names in sorted order.
func Formats() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FormatForPath infers a format from a file extension.
func FormatForPath(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return "xml", true
	case ".json":
		return "json", true
	case ".toml":
		return "toml", true
	case ".yaml", ".yml":
		return "yaml", true
	default:
		return "", false
	}
}

// Parse decodes r with the named format.
func Parse(format string, r io.Reader) ([]message.Record, error) {
	p, ok := Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return p.Parse(r)
}

// Load reads path ("-" for stdin). An empty format is inferred from the extension.
func Load(path, format string) ([]message.Record, error) {
	if format == "" {
		inferred, ok := FormatForPath(path)
		if !ok {
			return nil, fmt.Errorf("%w: cannot infer from %q", ErrUnknownFormat, path)
		}
		format = inferred
	}
	if path == "-" {
		return Parse(format, os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("document load failed (%s): %w", path, err)
	}
	defer f.Close()
	return Parse(format, f)
}

// attrNames maps the canonical record attributes to a format's key names.
type attrNames struct {
	Data   string
	Name   string
	Type   string
	Length string
}

type rawField struct {
	Name   *string
	Type   *string
	Length *string
}

type rawRecord struct {
	Data   *string
	Fields []rawField
}

// buildRecords checks attribute presence and converts raw records.
func buildRecords(raws []rawRecord, names attrNames) ([]message.Record, error) {
	out := make([]message.Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := buildRecord(i+1, raw, names)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func buildRecord(pos int, raw rawRecord, names attrNames) (message.Record, error) {
	data, err := requireAttr(pos, names.Data, raw.Data)
	if err != nil {
		return message.Record{}, err
	}
	rec := message.Record{
		Data:   data,
		Fields: make([]message.Descriptor, 0, len(raw.Fields)),
	}
	for j, rf := range raw.Fields {
		desc, err := buildDescriptor(pos, j+1, rf, names)
		if err != nil {
			return message.Record{}, err
		}
		rec.Fields = append(rec.Fields, desc)
	}
	return rec, nil
}

func buildDescriptor(pos, idx int, rf rawField, names attrNames) (message.Descriptor, error) {
	name, err := requireAttr(pos, names.Name, rf.Name)
	if err != nil {
		return message.Descriptor{}, fmt.Errorf("field %d: %w", idx, err)
	}
	tag, err := requireAttr(pos, names.Type, rf.Type)
	if err != nil {
		return message.Descriptor{}, fmt.Errorf("field %q: %w", name, err)
	}
	rawLen, err := requireAttr(pos, names.Length, rf.Length)
	if err != nil {
		return message.Descriptor{}, fmt.Errorf("field %q: %w", name, err)
	}
	length, err := strconv.Atoi(rawLen)
	if err != nil {
		return message.Descriptor{}, &AttrError{
			Record: pos,
			Field:  idx,
			Attr:   names.Length,
			Value:  rawLen,
			Err:    err,
		}
	}
	return message.Descriptor{Name: name, Tag: tag, Length: length}, nil
}

func requireAttr(pos int, attr string, v *string) (string, error) {
	if v == nil {
		return "", protocol.MissingFieldError{Record: pos, Attr: attr}
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return "", protocol.EmptyFieldError{Record: pos, Name: attr}
	}
	return s, nil
}
