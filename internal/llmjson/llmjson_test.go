package llmjson

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestExtractObject(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"prose", `Sure! Here you go: {"a":{"b":2}} hope that helps {"c":3}`, `{"a":{"b":2}}`},
		{"fence", "```json\n{\"reply\":\"ok\"}\n```", `{"reply":"ok"}`},
		{"brace in string", `{"text":"a } inside","n":1}`, `{"text":"a } inside","n":1}`},
		{"escaped quote", `{"text":"say \"}\" loud"} trailing`, `{"text":"say \"}\" loud"}`},
		{"prose braces first", `Sure {see below}: {"picks":[{"id":"C1"}]}`, `{"picks":[{"id":"C1"}]}`},
		{"template then object", `Format {"id": <id>} -> {"id":"C2"}`, `{"id":"C2"}`},
	}
	for _, tc := range cases {
		got, err := ExtractObject(tc.in)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestExtractObjectUnbalanced(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "no json here", `{"a":1`, `["x"]`, `{not json} {also not}`} {
		if _, err := ExtractObject(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestDecodeSkipsProseBraces(t *testing.T) {
	t.Parallel()

	fields, err := Decode(`Sure {see below}: {"picks":[{"id":"C1","reason":"fresh fish"}]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	picks := Objects(fields["picks"])
	if len(picks) != 1 || String(picks[0]["id"]) != "C1" {
		t.Fatalf("picks = %v", picks)
	}
}

func TestSanitizers(t *testing.T) {
	t.Parallel()

	fields, err := Decode(`{"price":2,"frac":2.5,"str":"3","big":9,"rating":4.6,"name":"  Sushi Den ","tags":["a",1,"b",null,"c"]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if v, ok := Int(fields["price"], 1, 4); !ok || v != 2 {
		t.Fatalf("price = %d,%v", v, ok)
	}
	if _, ok := Int(fields["frac"], 1, 4); ok {
		t.Fatal("fractional value must be rejected")
	}
	if _, ok := Int(fields["str"], 1, 4); ok {
		t.Fatal("string value must be rejected")
	}
	if _, ok := Int(fields["big"], 1, 4); ok {
		t.Fatal("out of range value must be rejected")
	}
	if _, ok := Int(fields["missing"], 1, 4); ok {
		t.Fatal("missing value must be rejected")
	}
	if v, ok := Float(fields["rating"], 0, 5); !ok || v != 4.6 {
		t.Fatalf("rating = %v,%v", v, ok)
	}
	if got := String(fields["name"]); got != "Sushi Den" {
		t.Fatalf("name = %q", got)
	}
	if got := String(fields["price"]); got != "" {
		t.Fatalf("number read as string: %q", got)
	}
	if got := Strings(fields["tags"], 2); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("tags = %v", got)
	}
}

func TestObjectsSkipsNonObjects(t *testing.T) {
	t.Parallel()

	got := Objects(json.RawMessage(`[{"id":"C1"}, "junk", 3, {"id":"C2"}]`))
	if len(got) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(got))
	}
	if Objects(json.RawMessage(`"nope"`)) != nil {
		t.Fatal("non-array must yield nil")
	}
}
