package document

import (
	"encoding/xml"
	"errors"
	"io"

	"github.com/danmuck/tcontctl/internal/protocol/message"
)

// Element and attribute names of the command markup.
const (
	xmlCommand = "TcontextCMD"
	xmlField   = "Tcont"
)

var xmlNames = attrNames{Data: "Data", Name: "Name", Type: "Type", Length: "StorageLen"}

// XML parses command markup:
//
//	<TcontextCMD Data="3132">
//	    <Tcont Name="F1" Type="A" StorageLen="1"/>
//	</TcontextCMD>
//
// Any number of TcontextCMD elements may appear; a single root is not required.
type XML struct{}

func (XML) Format() string { return "xml" }

type xmlAttrs struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

type xmlCommandElem struct {
	Attrs  []xml.Attr `xml:",any,attr"`
	Fields []xmlAttrs `xml:"Tcont"`
}

func (XML) Parse(r io.Reader) ([]message.Record, error) {
	dec := xml.NewDecoder(r)
	var raws []rawRecord
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &SyntaxError{Format: "xml", Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != xmlCommand {
			continue
		}
		var elem xmlCommandElem
		if err := dec.DecodeElement(&elem, &start); err != nil {
			return nil, &SyntaxError{Format: "xml", Err: err}
		}
		raw := rawRecord{Data: lookupAttr(elem.Attrs, xmlNames.Data)}
		for _, f := range elem.Fields {
			raw.Fields = append(raw.Fields, rawField{
				Name:   lookupAttr(f.Attrs, xmlNames.Name),
				Type:   lookupAttr(f.Attrs, xmlNames.Type),
				Length: lookupAttr(f.Attrs, xmlNames.Length),
			})
		}
		raws = append(raws, raw)
	}
	return buildRecords(raws, xmlNames)
}

func lookupAttr(attrs []xml.Attr, name string) *string {
	for _, a := range attrs {
		if a.Name.Local == name {
			v := a.Value
			return &v
		}
	}
	return nil
}
