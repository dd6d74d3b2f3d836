package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/tcontctl/internal/protocol"
	"github.com/danmuck/tcontctl/internal/protocol/message"
	"github.com/danmuck/tcontctl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

const sampleXML = `
<TcontextCMD Data="3132333442413031323334353637383930313246333234333835343438373033">
    <Tcont Name="MsgHdr" Type="A" StorageLen="4"/>
    <Tcont Name="Cmd" Type="A" StorageLen="2"/>
    <Tcont Name="PIN" Type="A" StorageLen="14"/>
    <Tcont Name="PAN" Type="A" StorageLen="12"/>
</TcontextCMD>
<TcontextCMD Data="31323334424230303038363333313732353331323434">
    <Tcont Name="MsgHdr" Type="A" StorageLen="4"/>
    <Tcont Name="Cmd" Type="A" StorageLen="2"/>
    <Tcont Name="ErrCode" Type="A" StorageLen="2"/>
    <Tcont Name="PIN_ENCR" Type="A" StorageLen="14"/>
</TcontextCMD>
`

var wantTwoRecords = []message.Record{
	{
		Data: "3132",
		Fields: []message.Descriptor{
			{Name: "F1", Tag: "A", Length: 1},
			{Name: "F2", Tag: "N", Length: 1},
		},
	},
	{
		Data:   "ABCD",
		Fields: []message.Descriptor{{Name: "HexField", Tag: "H", Length: 2}},
	},
}

func TestXMLParsesUnrootedCommands(t *testing.T) {
	testlog.Start(t)
	recs, err := XML{}.Parse(strings.NewReader(sampleXML))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "3132333442413031323334353637383930313246333234333835343438373033", recs[0].Data)
	require.Equal(t, []message.Descriptor{
		{Name: "MsgHdr", Tag: "A", Length: 4},
		{Name: "Cmd", Tag: "A", Length: 2},
		{Name: "PIN", Tag: "A", Length: 14},
		{Name: "PAN", Tag: "A", Length: 12},
	}, recs[0].Fields)
	require.Equal(t, "PIN_ENCR", recs[1].Fields[3].Name)
}

func TestXMLInsideRootElement(t *testing.T) {
	testlog.Start(t)
	doc := `<?xml version="1.0"?>
<Messages>
  <TcontextCMD Data="3132"><Tcont Name="F1" Type="A" StorageLen="1"/><Tcont Name="F2" Type="N" StorageLen="1"/></TcontextCMD>
  <Other/>
  <TcontextCMD Data="ABCD"><Tcont Name="HexField" Type="H" StorageLen="2"/></TcontextCMD>
</Messages>`
	recs, err := XML{}.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, wantTwoRecords, recs)
}

func TestXMLMissingClosingTag(t *testing.T) {
	testlog.Start(t)
	doc := `
<TcontextCMD Data="3132">
    <Tcont Name="Field" Type="A" StorageLen="1"/>
`
	_, err := XML{}.Parse(strings.NewReader(doc))
	var syntax *SyntaxError
	require.ErrorAs(t, err, &syntax)
	require.Equal(t, "xml", syntax.Format)
}

func TestXMLMissingAttribute(t *testing.T) {
	testlog.Start(t)
	doc := `<TcontextCMD Data="3132"><Tcont Name="Field" StorageLen="1"/></TcontextCMD>`
	_, err := XML{}.Parse(strings.NewReader(doc))
	var missing protocol.MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "Type", missing.Attr)
	require.Equal(t, 1, missing.Record)
	require.Contains(t, err.Error(), `field "Field"`)
}

func TestXMLMissingData(t *testing.T) {
	testlog.Start(t)
	doc := `<TcontextCMD Data="31"/><TcontextCMD><Tcont Name="F" Type="A" StorageLen="1"/></TcontextCMD>`
	_, err := XML{}.Parse(strings.NewReader(doc))
	var missing protocol.MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "Data", missing.Attr)
	require.Equal(t, 2, missing.Record)
}

func TestXMLEmptyAttribute(t *testing.T) {
	testlog.Start(t)
	doc := `<TcontextCMD Data="3132"><Tcont Name="" Type="A" StorageLen="1"/></TcontextCMD>`
	_, err := XML{}.Parse(strings.NewReader(doc))
	var empty protocol.EmptyFieldError
	require.ErrorAs(t, err, &empty)
	require.Equal(t, "Name", empty.Name)
	require.Equal(t, protocol.KindEmptyField, protocol.KindOf(err))
}

func TestXMLNonIntegerLength(t *testing.T) {
	testlog.Start(t)
	doc := `<TcontextCMD Data="3132"><Tcont Name="F" Type="A" StorageLen="two"/></TcontextCMD>`
	_, err := XML{}.Parse(strings.NewReader(doc))
	var attr *AttrError
	require.ErrorAs(t, err, &attr)
	require.Equal(t, "StorageLen", attr.Attr)
	require.Equal(t, "two", attr.Value)
	require.Equal(t, 1, attr.Field)
}

func TestXMLPassesThroughZeroLengthAndUnknownTag(t *testing.T) {
	testlog.Start(t)
	doc := `<TcontextCMD Data="3132"><Tcont Name="F" Type="X" StorageLen="0"/></TcontextCMD>`
	recs, err := XML{}.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, message.Descriptor{Name: "F", Tag: "X", Length: 0}, recs[0].Fields[0])
}

func TestJSONParse(t *testing.T) {
	testlog.Start(t)
	doc := `{"messages":[
		{"data":"3132","fields":[{"name":"F1","type":"A","length":1},{"name":"F2","type":"N","length":"1"}]},
		{"data":"ABCD","fields":[{"name":"HexField","type":"H","length":2}]}
	]}`
	recs, err := JSON{}.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, wantTwoRecords, recs)
}

func TestJSONMissingLength(t *testing.T) {
	testlog.Start(t)
	doc := `{"messages":[{"data":"3132","fields":[{"name":"F1","type":"A"}]}]}`
	_, err := JSON{}.Parse(strings.NewReader(doc))
	var missing protocol.MissingFieldError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "length", missing.Attr)
}

func TestJSONSyntaxError(t *testing.T) {
	testlog.Start(t)
	_, err := JSON{}.Parse(strings.NewReader(`{"messages":[`))
	var syntax *SyntaxError
	require.ErrorAs(t, err, &syntax)
}

func TestTOMLParse(t *testing.T) {
	testlog.Start(t)
	doc := `
[[message]]
data = "3132"
  [[message.field]]
  name = "F1"
  type = "A"
  length = 1
  [[message.field]]
  name = "F2"
  type = "N"
  length = 1

[[message]]
data = "ABCD"
  [[message.field]]
  name = "HexField"
  type = "H"
  length = 2
`
	recs, err := TOML{}.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, wantTwoRecords, recs)
}

func TestTOMLMissingData(t *testing.T) {
	testlog.Start(t)
	doc := `
[[message]]
  [[message.field]]
  name = "F1"
  type = "A"
  length = 1
`
	_, err := TOML{}.Parse(strings.NewReader(doc))
	require.Equal(t, protocol.KindMissingField, protocol.KindOf(err))
}

func TestYAMLParse(t *testing.T) {
	testlog.Start(t)
	doc := `
messages:
  - data: "3132"
    fields:
      - {name: F1, type: A, length: 1}
      - {name: F2, type: N, length: 1}
  - data: "ABCD"
    fields:
      - name: HexField
        type: H
        length: 2
`
	recs, err := YAML{}.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, wantTwoRecords, recs)
}

func TestYAMLEmptyDocument(t *testing.T) {
	testlog.Start(t)
	recs, err := YAML{}.Parse(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestRegistryAndFormatInference(t *testing.T) {
	testlog.Start(t)
	require.Equal(t, []string{"json", "toml", "xml", "yaml"}, Formats())

	p, ok := Get(" XML ")
	require.True(t, ok)
	require.Equal(t, "xml", p.Format())

	for path, want := range map[string]string{
		"a.xml": "xml", "b.JSON": "json", "c.toml": "toml", "d.yml": "yaml", "e.yaml": "yaml",
	} {
		got, ok := FormatForPath(path)
		require.True(t, ok, path)
		require.Equal(t, want, got, path)
	}
	_, ok = FormatForPath("messages.txt")
	require.False(t, ok)

	_, err := Parse("csv", strings.NewReader(""))
	require.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestLoadInfersFormat(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "messages.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleXML), 0o644))

	recs, err := Load(path, "")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	_, err = Load(filepath.Join(t.TempDir(), "messages.bin"), "")
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.xml"), "")
	require.ErrorIs(t, err, os.ErrNotExist)
}
