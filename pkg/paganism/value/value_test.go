package value

import (
	"testing"

	"github.com/sambeau/paganism/pkg/paganism/ast"
)

func pointDescriptor() *StructureDescriptor {
	return &StructureDescriptor{
		Name: "Point",
		File: "main.pgm",
		Members: []*ast.StructureMember{
			{Name: "x", Type: ast.TypeRef{Kind: ast.KindNumber}, Show: true},
			{Name: "label", Type: ast.TypeRef{Kind: ast.KindString}, Show: true},
			{Name: "tags", Type: ast.AnyType, Show: true},
			{Name: "onMove", Type: ast.TypeRef{Kind: ast.KindNumber}, Callable: true, Show: true},
			{Name: "raw", Type: ast.TypeRef{Kind: ast.KindString}, Castable: true},
		},
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"integer", &Number{Value: 5}, "5"},
		{"fraction", &Number{Value: 0.5}, "0.5"},
		{"negative", &Number{Value: -2.25}, "-2.25"},
		{"large", &Number{Value: 1e21}, "1000000000000000000000"},
		{"boolean", &Boolean{Value: true}, "true"},
		{"char", &Char{Value: 'z'}, "z"},
		{"none", NONE, "None"},
		{"enum", &Enum{Enum: "Color", Name: "green", Value: 1}, "green"},
		{"type", &Type{Ref: ast.TypeRef{Kind: ast.KindNumber}}, "Number"},
		{"array", &Array{Elements: []Value{&Number{Value: 1}, &String{Value: "a"}}}, `[1, "a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToString(tt.in)
			if err != nil {
				t.Fatalf("ToString: %v", err)
			}
			if got != tt.want {
				t.Errorf("ToString() = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := ToString(pointDescriptor().New()); err == nil {
		t.Error("structures have no string form")
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in      Value
		want    float64
		wantErr bool
	}{
		{&Number{Value: 3}, 3, false},
		{&String{Value: " 2.5 "}, 2.5, false},
		{&String{Value: "abc"}, 0, true},
		{&Boolean{Value: true}, 1, false},
		{&Char{Value: '7'}, 7, false},
		{&Enum{Enum: "E", Name: "a", Value: 4}, 4, false},
		{NONE, 0, false},
		{&Array{}, 0, true},
	}
	for _, tt := range tests {
		got, err := ToNumber(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToNumber(%s) error = %v, wantErr %v", tt.in.Inspect(), err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ToNumber(%s) = %v, want %v", tt.in.Inspect(), got, tt.want)
		}
	}
}

func TestToBoolean(t *testing.T) {
	tests := []struct {
		in      Value
		want    bool
		wantErr bool
	}{
		{&Number{Value: 1}, true, false},
		{&Number{Value: 2}, false, false},
		{&Number{Value: 0}, false, false},
		{&String{Value: "yes"}, true, false},
		{&String{Value: "false"}, false, false},
		{&String{Value: "maybe"}, false, true},
		{NONE, false, false},
	}
	for _, tt := range tests {
		got, err := ToBoolean(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToBoolean(%s) error = %v", tt.in.Inspect(), err)
			continue
		}
		if got != tt.want {
			t.Errorf("ToBoolean(%s) = %v, want %v", tt.in.Inspect(), got, tt.want)
		}
	}
}

func TestCopyIsDeep(t *testing.T) {
	inner := &Array{Elements: []Value{&Number{Value: 1}}}
	outer := &Array{Elements: []Value{inner}}

	c := Copy(outer).(*Array)
	c.Elements[0].(*Array).Elements[0].(*Number).Value = 99

	if inner.Elements[0].(*Number).Value != 1 {
		t.Error("mutating the copy changed the original array")
	}

	p := pointDescriptor().New()
	p.Fields["x"] = &Number{Value: 1}
	q := Copy(p).(*Structure)
	q.Fields["x"] = &Number{Value: 2}
	if p.Fields["x"].(*Number).Value != 1 {
		t.Error("mutating the copy changed the original structure")
	}
}

func TestCopyRebindsMethods(t *testing.T) {
	d := pointDescriptor()
	d.Methods = map[string]Method{
		"onMove": func(self *Structure, args []Value) (Value, error) { return self.Fields["x"], nil },
	}
	p := d.New()
	p.Fields["x"] = &Number{Value: 1}
	q := Copy(p).(*Structure)
	q.Fields["x"] = &Number{Value: 2}

	got, err := q.Fields["onMove"].(*Function).Native(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.(*Number).Value != 2 {
		t.Errorf("copied method still bound to the original instance")
	}
}

func TestNewDefaults(t *testing.T) {
	p := pointDescriptor().New()
	if p.Fields["x"].(*Number).Value != 0 {
		t.Error("number members default to 0")
	}
	if p.Fields["label"].(*String).Value != "" {
		t.Error("string members default to empty")
	}
	if p.Fields["tags"] != NONE || p.Fields["onMove"] != NONE {
		t.Error("any and delegate members default to None")
	}
	if got := p.Inspect(); got != `Point {x: 0, label: "", tags: None, raw: ""}` {
		t.Errorf("Inspect() = %q", got)
	}
}

func TestCastableMember(t *testing.T) {
	d := pointDescriptor()
	m, ok := d.CastableMember(ast.TypeRef{Kind: ast.KindString})
	if !ok || m.Name != "raw" {
		t.Errorf("CastableMember(String) = %v, %v", m, ok)
	}
	if _, ok := d.CastableMember(ast.TypeRef{Kind: ast.KindNumber}); ok {
		t.Error("x is not castable")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"numbers", &Number{Value: 1}, &Number{Value: 1}, true},
		{"different kinds", &Number{Value: 1}, &String{Value: "1"}, false},
		{"char and string", &Char{Value: 'a'}, &String{Value: "a"}, true},
		{"none", NONE, &None{}, true},
		{"arrays", &Array{Elements: []Value{&Number{Value: 1}}}, &Array{Elements: []Value{&Number{Value: 1}}}, true},
		{"enums", &Enum{Enum: "C", Name: "a"}, &Enum{Enum: "C", Name: "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccepts(t *testing.T) {
	number := ast.TypeRef{Kind: ast.KindNumber}
	point := ast.TypeRef{Kind: ast.KindStructure, Name: "Point"}
	other := ast.TypeRef{Kind: ast.KindStructure, Name: "Other"}
	instance := pointDescriptor().New()
	ret := ast.TypeRef{Kind: ast.KindNumber}

	tests := []struct {
		name string
		t    ast.TypeRef
		v    Value
		want bool
	}{
		{"any", ast.AnyType, &String{}, true},
		{"none fits all", number, NONE, true},
		{"same kind", number, &Number{}, true},
		{"wrong kind", number, &String{}, false},
		{"structure by name", point, instance, true},
		{"structure wrong name", other, instance, false},
		{"function by return type", number, &Function{Return: &ret}, true},
		{"function without return type", number, &Function{}, true},
		{"function wrong return type", ast.TypeRef{Kind: ast.KindString}, &Function{Return: &ret}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Accepts(tt.t, tt.v); got != tt.want {
				t.Errorf("Accepts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanCast(t *testing.T) {
	tests := []struct {
		from, to ast.Kind
		want     bool
	}{
		{ast.KindNumber, ast.KindString, true},
		{ast.KindString, ast.KindNumber, true},
		{ast.KindString, ast.KindChar, true},
		{ast.KindNumber, ast.KindChar, false},
		{ast.KindArray, ast.KindNumber, false},
		{ast.KindStructure, ast.KindStructure, true},
		{ast.KindArray, ast.KindAny, true},
	}
	for _, tt := range tests {
		if got := CanCast(tt.from, tt.to); got != tt.want {
			t.Errorf("CanCast(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEnumDescriptor(t *testing.T) {
	e := &EnumDescriptor{Name: "Color", Members: []ast.EnumMember{{Name: "red", Value: 0}, {Name: "green", Value: 1}}}
	m, ok := e.Member("green")
	if !ok || m.Value != 1 || m.Inspect() != "Color.green" {
		t.Errorf("Member(green) = %v, %v", m, ok)
	}
	if _, ok := e.Member("blue"); ok {
		t.Error("blue is not a member")
	}
}
