package parse

import (
	"strings"
	"testing"

	"reqls/internal/ast"
	"reqls/internal/diagnostics"
	"reqls/internal/symbols"
)

const authSource = `// authentication
module auth "Authentication" {
    @depends-on storage, billing.invoices
    feature login {
        requirement basic-auth "Users log in with a \"password\"" {
            @depends-on auth.session
            constraint min-length "At least 8 characters"
        }
    }
    # sessions
    feature session
}
`

func mustParse(t *testing.T, src string) *Result {
	t.Helper()
	res := Parse("file:///ws/auth.req", []byte(src))
	if res == nil || res.Document == nil || res.Document.Root == nil {
		t.Fatal("Parse returned no document")
	}
	return res
}

func TestParse_Valid(t *testing.T) {
	res := mustParse(t, authSource)
	if len(res.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", res.Errors)
	}

	syms := symbols.Extract(res.Document.URI, res.Document)
	var got []string
	for _, s := range syms {
		got = append(got, s.Path)
	}
	want := "auth,auth.login,auth.login.basic-auth,auth.login.basic-auth.min-length,auth.session"
	if strings.Join(got, ",") != want {
		t.Fatalf("expected %s, got %s", want, strings.Join(got, ","))
	}

	auth := syms[0]
	if auth.Description != "Authentication" {
		t.Errorf("expected description, got %q", auth.Description)
	}
	refs := auth.References()
	if len(refs) != 2 || refs[1].Path != "billing.invoices" {
		t.Fatalf("expected storage and billing.invoices, got %+v", refs)
	}
	// line 2: `    @depends-on storage, billing.invoices`
	if loc := refs[0].Location; loc.StartLine != 2 || loc.StartColumn != 16 || loc.EndColumn != 23 {
		t.Errorf("unexpected storage location %+v", loc)
	}
	if loc := refs[1].Location; loc.StartColumn != 25 || loc.EndColumn != 41 {
		t.Errorf("unexpected billing.invoices location %+v", loc)
	}

	req := syms[2]
	if req.Description != `Users log in with a "password"` {
		t.Errorf("expected unescaped description, got %q", req.Description)
	}
	if req.NameLocation.StartLine != 4 || req.NameLocation.StartColumn != 20 {
		t.Errorf("unexpected name location %+v", req.NameLocation)
	}
	if req.Location.EndLine != 7 {
		t.Errorf("expected block to end on line 7, got %d", req.Location.EndLine)
	}
}

func TestParse_RecoversAtNextLine(t *testing.T) {
	src := `module a {
    feature ok-1
    feature = broken
    feature ok-2
}
module b {}
`
	res := mustParse(t, src)
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", res.Errors)
	}
	if res.Errors[0].Location.StartLine != 2 {
		t.Errorf("expected error on line 2, got %d", res.Errors[0].Location.StartLine)
	}

	syms := symbols.Extract("u", res.Document)
	var got []string
	for _, s := range syms {
		got = append(got, s.Path)
	}
	if strings.Join(got, ",") != "a,a.ok-1,a.ok-2,b" {
		t.Errorf("expected partial tree a,a.ok-1,a.ok-2,b; got %v", got)
	}
}

func TestParse_NestingViolation(t *testing.T) {
	src := `module a {
    feature f {
        module inner {
            feature g
        }
        requirement r
    }
}
`
	res := mustParse(t, src)
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Message, `module "inner" cannot be declared inside a feature`) {
		t.Errorf("unexpected message %q", res.Errors[0].Message)
	}

	var got []string
	for _, s := range symbols.Extract("u", res.Document) {
		got = append(got, s.Path)
	}
	if strings.Join(got, ",") != "a,a.f,a.f.r" {
		t.Errorf("expected a,a.f,a.f.r; got %v", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unclosed block", "module a {\n feature b\n", "unclosed module"},
		{"missing name", "module {\n}\n", "expected name after module"},
		{"unterminated string", "module a \"oops\n", "unterminated string"},
		{"unknown directive", "module a {\n @requires b\n}\n", "unknown directive"},
		{"top-level depends", "@depends-on a\n", "must appear inside"},
		{"trailing dot", "module a {\n @depends-on b.\n}\n", "identifier after '.'"},
		{"empty depends", "module a {\n @depends-on\n}\n", "expected dependency path"},
		{"constraint body", "module a {\n constraint c {}\n}\n", "cannot have a body"},
		{"stray brace", "}\nmodule a\n", "unexpected '}'"},
		{"stray character", "module a {\n $\n}\n", "unexpected character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustParse(t, tt.src)
			if len(res.Errors) == 0 {
				t.Fatal("expected an error")
			}
			if !strings.Contains(res.Errors[0].Message, tt.want) {
				t.Errorf("expected %q in %q", tt.want, res.Errors[0].Message)
			}
		})
	}
}

func TestParse_EmptyAndComments(t *testing.T) {
	res := mustParse(t, "# nothing here\n// really\n")
	if len(res.Errors) != 0 || len(res.Document.Root.Children) != 0 {
		t.Errorf("expected empty document, got %+v", res)
	}
}

func TestParse_UTF16Columns(t *testing.T) {
	res := mustParse(t, "module a \"é😀\" { @depends-on b }\n")
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors %v", res.Errors)
	}
	var ref *ast.Node
	ast.Walk(res.Document.Root, func(n *ast.Node) bool {
		if n.Type == ast.Reference {
			ref = n
		}
		return true
	})
	if ref == nil {
		t.Fatal("reference not found")
	}
	// 0-based: `module a "` is 10 units, é is 1, 😀 is 2, then `" { @depends-on ` is 16
	if ref.Location.StartColumn != 29 {
		t.Errorf("expected column 29, got %d", ref.Location.StartColumn)
	}
}

func TestCheck(t *testing.T) {
	src := `module a {
    feature f
    feature f
    feature = x
}
`
	diags := Check(mustParse(t, src))
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %+v", diags)
	}
	if diags[0].Code != diagnostics.CodeDuplicateIdentifier || diags[0].Range.Start.Line != 2 {
		t.Errorf("expected duplicate on line 2, got %+v", diags[0])
	}
	if diags[0].Message != "Duplicate feature 'a.f'" {
		t.Errorf("unexpected message %q", diags[0].Message)
	}
	if diags[1].Code != diagnostics.CodeSyntaxError || diags[1].Range.Start.Line != 3 {
		t.Errorf("expected syntax error on line 3, got %+v", diags[1])
	}

	if Check(mustParse(t, authSource)) != nil {
		t.Error("expected no diagnostics for a valid document")
	}
}
