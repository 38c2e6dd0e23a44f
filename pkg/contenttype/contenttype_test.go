package contenttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniff(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Category
	}{
		{"object", `{"id": 1}`, JSON},
		{"array with whitespace", "\n  [1, 2]", JSON},
		{"bom", "\xEF\xBB\xBF{}", JSON},
		{"scalar", "42", JSON},
		{"literal true", "true", JSON},
		{"schema", `{"$schema": "https://json-schema.org/draft/2020-12/schema", "type": "object"}`, JSONSchema},
		{"yaml schema", "$schema: https://json-schema.org/draft/2020-12/schema\ntype: object\n", YAML},
		{"yaml comment first", "# user\ntype: object\n", YAML},
		{"yaml document", "---\ntype: string\n", YAML},
		{"zod", "import { z } from \"zod\";\nconst User = z.object({ id: z.number() });", Zod},
		{"zod without import", "const User = z.object({})", Zod},
		{"go package", "package model\n\ntype User struct {}", Go},
		{"go struct", "type User struct {\n\tID int `json:\"id\"`\n}", Go},
		{"ts interface", "interface User {\n  id: number;\n}", TypeScript},
		{"ts export", "export interface User { id: number }", TypeScript},
		{"ts alias", "type ID = string;", TypeScript},
		{"prose", "hello world", Text},
		{"empty", "   ", Text},
		{"binary", "\x00\x01\x02", Binary},
		{"invalid utf8", "\xff\xfe", Binary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff([]byte(tt.content)))
		})
	}
}

func TestIsBinary(t *testing.T) {
	assert.False(t, IsBinary([]byte(`{"a": "ü"}`)))
	assert.True(t, IsBinary([]byte{'a', 0, 'b'}))
	assert.True(t, IsBinary([]byte{0xC3}))
}
