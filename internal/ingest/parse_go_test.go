package ingest

import (
	"testing"

	"github.com/usestring/typepaste/pkg/types"
)

func TestParseGo_Simple(t *testing.T) {
	input := `type Response struct {
		Status string ` + "`json:\"status\"`" + `
		Code   int    ` + "`json:\"code\"`" + `
	}`

	set := ingestSourceSample(t, types.SourceGo, "Response", input)
	if got := defString(t, set, "Response::Response"); got != "{status: string, code: integer}" {
		t.Errorf("unexpected shape: %s", got)
	}
}

func TestParseGo_Nested(t *testing.T) {
	input := `type Response struct {
		Status string ` + "`json:\"status\"`" + `
		Data   []Item ` + "`json:\"data\"`" + `
	}
	type Item struct {
		ID   int    ` + "`json:\"id\"`" + `
		Name string ` + "`json:\"name\"`" + `
	}`

	set := ingestSourceSample(t, types.SourceGo, "Response", input)
	if got := defString(t, set, "Response::Response"); got != "{status: string, data: [#Response::Item]}" {
		t.Errorf("unexpected root shape: %s", got)
	}
	if got := defString(t, set, "Response::Item"); got != "{id: integer, name: string}" {
		t.Errorf("unexpected item shape: %s", got)
	}
}

func TestParseGo_OptionalFields(t *testing.T) {
	input := `type User struct {
		Name     string  ` + "`json:\"name\"`" + `
		Nickname string  ` + "`json:\"nickname,omitempty\"`" + `
		Email    *string ` + "`json:\"email\"`" + `
		Phone    *string ` + "`json:\"phone,omitempty\"`" + `
	}`

	set := ingestSourceSample(t, types.SourceGo, "User", input)
	want := "{name: string, nickname?: string, email?: string | null, phone?: string}"
	if got := defString(t, set, "User::User"); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestParseGo_SkippedFields(t *testing.T) {
	input := `type User struct {
		ID       int    ` + "`json:\"id\"`" + `
		Password string ` + "`json:\"-\"`" + `
		internal string
		Untagged bool
	}`

	set := ingestSourceSample(t, types.SourceGo, "User", input)
	if got := defString(t, set, "User::User"); got != "{id: integer, Untagged: boolean}" {
		t.Errorf("unexpected shape: %s", got)
	}
}

func TestParseGo_Types(t *testing.T) {
	input := `package api

import "time"

type Event struct {
	Labels  map[string]string ` + "`json:\"labels\"`" + `
	Payload []byte            ` + "`json:\"payload\"`" + `
	At      time.Time         ` + "`json:\"at\"`" + `
	Extra   any               ` + "`json:\"extra\"`" + `
	Meta    interface{}       ` + "`json:\"meta\"`" + `
	Score   float64           ` + "`json:\"score\"`" + `
	Other   Unknown           ` + "`json:\"other\"`" + `
	Grid    [][]int           ` + "`json:\"grid\"`" + `
}`

	set := ingestSourceSample(t, types.SourceGo, "Event", input)
	want := "{labels: map<string>, payload: string, at: string, extra: any, meta: any, score: number, other: any, grid: [[integer]]}"
	if got := defString(t, set, "Event::Event"); got != want {
		t.Errorf("got %s\nwant %s", got, want)
	}
}

func TestParseGo_EmbeddedStruct(t *testing.T) {
	input := `type Base struct {
		ID int ` + "`json:\"id\"`" + `
	}
	type User struct {
		Base
		Name string ` + "`json:\"name\"`" + `
	}`

	set := ingestSourceSample(t, types.SourceGo, "User", input)
	if got := defString(t, set, "User::User"); got != "{id: integer, name: string}" {
		t.Errorf("unexpected shape: %s", got)
	}
}

func TestParseGo_StringEnum(t *testing.T) {
	input := `type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

type Account struct {
	Status Status ` + "`json:\"status\"`" + `
}`

	set := ingestSourceSample(t, types.SourceGo, "Account", input)
	if got := defString(t, set, "Account::Status"); got != "enum(active,disabled)" {
		t.Errorf("unexpected enum: %s", got)
	}
	if got := defString(t, set, "Account::Account"); got != "{status: #Account::Status}" {
		t.Errorf("unexpected shape: %s", got)
	}
}

func TestParseGo_SyntaxError(t *testing.T) {
	input := "type X struct {\n\tA int\n\t}}\n"

	te := sourceErr(t, types.SourceGo, input)
	if te.Code != types.CodeSourceParse {
		t.Fatalf("expected %s, got %s", types.CodeSourceParse, te.Code)
	}
	if te.Line != 3 {
		t.Errorf("expected error on line 3, got %d (%v)", te.Line, te)
	}
}

func TestHasPackageClause(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"package x\n", true},
		{"// comment\npackage x\n", true},
		{"/* block\n comment */\npackage x\n", true},
		{"type X struct{}\n", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := hasPackageClause(tt.src); got != tt.want {
			t.Errorf("hasPackageClause(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
