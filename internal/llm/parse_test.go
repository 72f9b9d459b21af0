package llm

import "testing"

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"bare array", `[1,2]`, `[1,2]`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", "Aquí está el resultado:\n{\"a\":1}", `{"a":1}`},
		{"trailing prose", "{\"a\":1}\nEspero que sea útil.", `{"a":1}`},
		{"prose both sides", "Claro:\n[{\"a\":1}]\nSaludos", `[{"a":1}]`},
		{"whitespace", "  \n {\"a\":1} \n ", `{"a":1}`},
		{"no json at all", "no hay datos", "no hay datos"},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSON(tt.in); got != tt.want {
				t.Errorf("CleanJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	var v struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}
	text := "```json\n{\"title\":\"Fracciones\",\"count\":3}\n```"
	if err := DecodeObject(text, &v); err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if v.Title != "Fracciones" || v.Count != 3 {
		t.Errorf("decoded %+v", v)
	}
}

func TestDecodeObjectMalformed(t *testing.T) {
	var v map[string]any
	if err := DecodeObject("{\"broken\":", &v); err == nil {
		t.Fatal("want error for truncated output")
	}
	if err := DecodeObject("sin contenido estructurado", &v); err == nil {
		t.Fatal("want error for prose-only output")
	}
}
