package document

import (
	"encoding/json"
	"io"

	"github.com/danmuck/tcontctl/internal/protocol/message"
)

var keyNames = attrNames{Data: "data", Name: "name", Type: "type", Length: "length"}

// JSON parses {"messages":[{"data":"3132","fields":[{"name":"F1","type":"A","length":1}]}]}.
type JSON struct{}

func (JSON) Format() string { return "json" }

type jsonDocument struct {
	Messages []jsonMessage `json:"messages"`
}

type jsonMessage struct {
	Data   *string     `json:"data"`
	Fields []jsonField `json:"fields"`
}

type jsonField struct {
	Name   *string      `json:"name"`
	Type   *string      `json:"type"`
	Length *json.Number `json:"length"`
}

func (JSON) Parse(r io.Reader) ([]message.Record, error) {
	var doc jsonDocument
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, &SyntaxError{Format: "json", Err: err}
	}
	raws := make([]rawRecord, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		raw := rawRecord{Data: m.Data}
		for _, f := range m.Fields {
			rf := rawField{Name: f.Name, Type: f.Type}
			if f.Length != nil {
				s := f.Length.String()
				rf.Length = &s
			}
			raw.Fields = append(raw.Fields, rf)
		}
		raws = append(raws, raw)
	}
	return buildRecords(raws, keyNames)
}
