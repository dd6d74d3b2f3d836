package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/danmuck/tcontctl/internal/batch"
	"github.com/danmuck/tcontctl/internal/protocol"
	"github.com/danmuck/tcontctl/internal/protocol/field"
	"github.com/danmuck/tcontctl/internal/protocol/message"
	"github.com/danmuck/tcontctl/internal/testutil/testlog"
)

func sampleResults() []batch.Result {
	return []batch.Result{
		{
			Index:     0,
			Direction: batch.Request,
			Message: &message.Decoded{
				Data: "313233344241",
				Fields: []message.DecodedField{
					{Name: "Field1", Value: field.Value{Encoding: field.Ascii, Text: "1234BA"}},
				},
			},
		},
		{
			Index:     1,
			Direction: batch.Response,
			Message: &message.Decoded{
				Data: "FF",
				Fields: []message.DecodedField{
					{Name: "NumField", Value: field.Value{Encoding: field.Number, Number: 255}},
				},
			},
		},
		{
			Index:     2,
			Direction: batch.Request,
			Err:       protocol.InsufficientDataError{Name: "Tail", Offset: 2, Needed: 4, Available: 0},
		},
	}
}

func TestTextFormat(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	if err := NewText(&buf, false).Write(sampleResults()); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := strings.Join([]string{
		"Request:",
		"Command: 313233344241",
		"Field1: 1234BA",
		"",
		"Response:",
		"Command: FF",
		"NumField: 255",
		"",
		"Request error: InsufficientData: " + sampleResults()[2].Err.Error(),
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestTextColorOnNonTerminalIsPlain(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	if err := NewText(&buf, true).Write(sampleResults()[:1]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("unexpected escape codes: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Field1: 1234BA") {
		t.Fatalf("missing field line: %q", buf.String())
	}
}

func TestJSONDocument(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	if err := NewJSON(&buf, false).Write(sampleResults()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var doc struct {
		Messages []struct {
			Index     int    `json:"index"`
			Direction string `json:"direction"`
			Data      string `json:"data"`
			Fields    []struct {
				Name     string `json:"name"`
				Encoding string `json:"encoding"`
				Value    any    `json:"value"`
			} `json:"fields"`
			Error *struct {
				Kind string `json:"kind"`
			} `json:"error"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(doc.Messages))
	}
	if doc.Messages[0].Fields[0].Value != "1234BA" {
		t.Fatalf("unexpected ascii value: %#v", doc.Messages[0].Fields[0].Value)
	}
	if doc.Messages[1].Direction != "Response" || doc.Messages[1].Fields[0].Value != float64(255) {
		t.Fatalf("unexpected number message: %+v", doc.Messages[1])
	}
	if doc.Messages[2].Error == nil || doc.Messages[2].Error.Kind != "InsufficientData" {
		t.Fatalf("unexpected error message: %+v", doc.Messages[2])
	}
}

func TestJSONKeepsRawSliceForHighBytes(t *testing.T) {
	testlog.Start(t)
	results := []batch.Result{{
		Index:     0,
		Direction: batch.Request,
		Message: &message.Decoded{
			Data: "31FF",
			Fields: []message.DecodedField{
				{Name: "Bin", Offset: 0, Raw: "31FF", Value: field.Value{Encoding: field.Ascii, Text: "1\xff"}},
			},
		},
	}}
	var buf bytes.Buffer
	if err := NewJSON(&buf, false).Write(results); err != nil {
		t.Fatalf("write: %v", err)
	}
	var doc struct {
		Messages []struct {
			Fields []struct {
				Raw   string `json:"raw"`
				Value string `json:"value"`
			} `json:"fields"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := doc.Messages[0].Fields[0]
	if got.Raw != "31FF" {
		t.Fatalf("unexpected raw: %q", got.Raw)
	}
	if got.Value != "1\ufffd" {
		t.Fatalf("unexpected value: %q", got.Value)
	}
}
