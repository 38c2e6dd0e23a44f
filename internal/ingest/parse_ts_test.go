package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/typepaste/pkg/types"
)

func TestParseTypeScript_Interface(t *testing.T) {
	src := `export interface User {
  id: number;
  name: string;
  email?: string;
  active: boolean;
  tags: string[];
}`
	set := ingestSourceSample(t, types.SourceTypeScript, "User", src)
	assert.Equal(t,
		"{id: number, name: string, email?: string, active: boolean, tags: [string]}",
		defString(t, set, "User::User"))
}

func TestParseTypeScript_ReferencesAndAliases(t *testing.T) {
	src := `interface Order {
  items: Array<LineItem>;
  status: Status;
  notes: string | null;
  meta: Record<string, number>;
}

interface LineItem {
  sku: string;
  qty: number;
}

type Status = "open" | "closed";
`
	set := ingestSourceSample(t, types.SourceTypeScript, "Order", src)
	assert.Equal(t,
		"{items: [#Order::LineItem], status: #Order::Status, notes: string | null, meta: map<number>}",
		defString(t, set, "Order::Order"))
	assert.Equal(t, "enum(open,closed)", defString(t, set, "Order::Status"))
	assert.Equal(t, "{sku: string, qty: number}", defString(t, set, "Order::LineItem"))
}

func TestParseTypeScript_InlineObjectAndIndexSignature(t *testing.T) {
	src := `type Config = {
  server: { host: string; port: number };
  env: { [key: string]: string };
};`
	set := ingestSourceSample(t, types.SourceTypeScript, "Config", src)
	assert.Equal(t,
		"{server: {host: string, port: number}, env: map<string>}",
		defString(t, set, "Config::Config"))
}

func TestParseTypeScript_Extends(t *testing.T) {
	src := `interface Base { id: string }
interface Admin extends Base { level: number }`
	set := ingestSourceSample(t, types.SourceTypeScript, "Admin", src)
	assert.Equal(t, "{id: string, level: number}", defString(t, set, "Admin::Admin"))
}

func TestParseTypeScript_StringEnum(t *testing.T) {
	src := `enum Color { Red = "red", Green = "green" }`
	set := ingestSourceSample(t, types.SourceTypeScript, "Color", src)
	assert.Equal(t, "enum(red,green)", defString(t, set, "Color::Color"))
}

func TestParseTypeScript_UnknownTypeIsPlaceholder(t *testing.T) {
	src := `interface Event { at: Moment; data: unknown }`
	set := ingestSourceSample(t, types.SourceTypeScript, "Event", src)
	assert.Equal(t, "{at: any, data: any}", defString(t, set, "Event::Event"))
}

func TestParseTypeScript_SyntaxError(t *testing.T) {
	te := sourceErr(t, types.SourceTypeScript, "interface User {\n  id: number;\n  name: ;\n}")
	require.Equal(t, types.CodeSourceParse, te.Code)
	assert.Greater(t, te.Line, 0)
}

func TestUnquoteTS(t *testing.T) {
	assert.Equal(t, "a", unquoteTS(`"a"`))
	assert.Equal(t, "it's", unquoteTS(`'it\'s'`))
	assert.Equal(t, `say "hi"`, unquoteTS(`'say "hi"'`))
	assert.Equal(t, "x", unquoteTS("`x`"))
	assert.Equal(t, "bare", unquoteTS("bare"))
}
