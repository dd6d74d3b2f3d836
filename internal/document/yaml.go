package document

import (
	"errors"
	"io"

	"github.com/danmuck/tcontctl/internal/protocol/message"
	"gopkg.in/yaml.v3"
)

// YAML parses the same shape as JSON:
//
//	messages:
//	  - data: "3132"
//	    fields:
//	      - {name: F1, type: A, length: 1}
type YAML struct{}

func (YAML) Format() string { return "yaml" }

type yamlDocument struct {
	Messages []yamlMessage `yaml:"messages"`
}

type yamlMessage struct {
	Data   *string     `yaml:"data"`
	Fields []yamlField `yaml:"fields"`
}

type yamlField struct {
	Name   *string `yaml:"name"`
	Type   *string `yaml:"type"`
	Length *string `yaml:"length"`
}

func (YAML) Parse(r io.Reader) ([]message.Record, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &SyntaxError{Format: "yaml", Err: err}
	}
	raws := make([]rawRecord, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		raw := rawRecord{Data: m.Data}
		for _, f := range m.Fields {
			raw.Fields = append(raw.Fields, rawField{Name: f.Name, Type: f.Type, Length: f.Length})
		}
		raws = append(raws, raw)
	}
	return buildRecords(raws, keyNames)
}
