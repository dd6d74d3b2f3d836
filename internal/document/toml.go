package document

import (
	"io"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tcontctl/internal/protocol/message"
)

// TOML parses [[message]] tables with [[message.field]] sub-tables:
//
//	[[message]]
//	data = "3132"
//	  [[message.field]]
//	  name = "F1"
//	  type = "A"
//	  length = 1
type TOML struct{}

func (TOML) Format() string { return "toml" }

type tomlDocument struct {
	Messages []tomlMessage `toml:"message"`
}

type tomlMessage struct {
	Data   *string     `toml:"data"`
	Fields []tomlField `toml:"field"`
}

type tomlField struct {
	Name   *string `toml:"name"`
	Type   *string `toml:"type"`
	Length *int64  `toml:"length"`
}

func (TOML) Parse(r io.Reader) ([]message.Record, error) {
	var doc tomlDocument
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, &SyntaxError{Format: "toml", Err: err}
	}
	raws := make([]rawRecord, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		raw := rawRecord{Data: m.Data}
		for _, f := range m.Fields {
			rf := rawField{Name: f.Name, Type: f.Type}
			if f.Length != nil {
				s := strconv.FormatInt(*f.Length, 10)
				rf.Length = &s
			}
			raw.Fields = append(raw.Fields, rf)
		}
		raws = append(raws, raw)
	}
	return buildRecords(raws, keyNames)
}
