// Package parse is the reference parser for requirement documents.
//
// The grammar is small:
//
//	module auth "Authentication" {
//	    @depends-on storage, billing.invoices
//	    feature login {
//	        requirement basic-auth "Users log in with a password" {
//	            constraint min-length "At least 8 characters"
//	        }
//	    }
//	}
//
// Parsing never fails outright. Syntax errors are collected and the parser
// resynchronises at the next line, so a partial tree is always returned.
package parse

import (
	"fmt"

	"reqls/internal/ast"
)

// SyntaxError is one recoverable parse error.
type SyntaxError struct {
	Location ast.Location `json:"location"`
	Message  string       `json:"message"`
}

// Error formats the error with 1-based positions.
func (e SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Location.StartLine+1, e.Location.StartColumn+1, e.Message)
}

// Result is a parsed document plus the errors met on the way.
type Result struct {
	Document *ast.Document
	Errors   []SyntaxError
}

var blockKeywords = map[string]ast.NodeType{
	"module":      ast.ModuleBlock,
	"feature":     ast.FeatureBlock,
	"requirement": ast.RequirementBlock,
	"constraint":  ast.Constraint,
}

// parents lists where each block may be declared. SourceFile is the root.
var parents = map[ast.NodeType]map[ast.NodeType]bool{
	ast.ModuleBlock:      {ast.SourceFile: true},
	ast.FeatureBlock:     {ast.ModuleBlock: true},
	ast.RequirementBlock: {ast.ModuleBlock: true, ast.FeatureBlock: true},
	ast.Constraint:       {ast.ModuleBlock: true, ast.FeatureBlock: true, ast.RequirementBlock: true},
}

func placeOf(t ast.NodeType) string {
	for kw, nt := range blockKeywords {
		if nt == t {
			return "inside a " + kw
		}
	}
	return "at the top level"
}

// Parse parses src as the document at uri.
func Parse(uri string, src []byte) *Result {
	p := &parser{toks: lex(string(src))}
	root := &ast.Node{Type: ast.SourceFile}
	for p.peek().kind != tokEOF {
		if p.peek().kind == tokRBrace {
			p.errorAt(p.next(), "unexpected '}'")
			continue
		}
		if n := p.parseItem(ast.SourceFile); n != nil {
			root.Children = append(root.Children, n)
		}
	}
	eof := p.peek()
	root.Location = ast.Location{EndLine: eof.line, EndColumn: eof.col}
	return &Result{
		Document: &ast.Document{URI: uri, Root: root},
		Errors:   p.errs,
	}
}

type parser struct {
	toks []token
	pos  int
	errs []SyntaxError
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) prev() token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func tokenLocation(t token) ast.Location {
	return ast.Location{StartLine: t.line, StartColumn: t.col, EndLine: t.endLine, EndColumn: t.endCol}
}

func (p *parser) errorAt(t token, format string, args ...any) {
	p.errs = append(p.errs, SyntaxError{Location: tokenLocation(t), Message: fmt.Sprintf(format, args...)})
}

// unexpected reports t, preferring the lexer's own message for illegal
// input.
func (p *parser) unexpected(t token, want string) {
	if t.kind == tokIllegal && t.err != "" {
		p.errorAt(t, "%s", t.err)
		return
	}
	p.errorAt(t, "expected %s, found %s", want, t.describe())
}

// syncLine skips the remaining tokens on line. Braced groups met on the way
// are skipped whole so nesting stays balanced; a closing brace is left for
// the enclosing block.
func (p *parser) syncLine(line int) {
	for {
		t := p.peek()
		if t.kind == tokEOF || t.kind == tokRBrace || t.line != line {
			return
		}
		if t.kind == tokLBrace {
			p.skipGroup()
			return
		}
		p.next()
	}
}

// skipGroup consumes a balanced {...} group starting at the current token.
func (p *parser) skipGroup() {
	depth := 0
	for {
		t := p.next()
		switch t.kind {
		case tokEOF:
			return
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *parser) parseItem(parent ast.NodeType) *ast.Node {
	t := p.peek()
	switch {
	case t.kind == tokIdent && blockKeywords[t.text] != "":
		return p.parseBlock(parent)
	case t.kind == tokDependsOn:
		return p.parseDependsOn(parent)
	}
	p.unexpected(t, "declaration")
	if t.kind == tokLBrace {
		p.skipGroup()
		return nil
	}
	p.next()
	p.syncLine(t.line)
	return nil
}

func (p *parser) parseBlock(parent ast.NodeType) *ast.Node {
	kw := p.next()
	typ := blockKeywords[kw.text]
	node := &ast.Node{Type: typ, Location: tokenLocation(kw)}

	name := p.peek()
	if name.kind != tokIdent {
		p.unexpected(name, "name after "+kw.text)
		p.syncLine(kw.line)
		if p.peek().kind == tokLBrace {
			p.skipGroup()
		}
		return nil
	}
	p.next()
	node.Name = name.text
	node.NameLocation = tokenLocation(name)

	if p.peek().kind == tokString {
		node.Description = p.next().text
	} else if t := p.peek(); t.kind == tokIllegal && t.line == name.line && t.err == "unterminated string" {
		p.unexpected(p.next(), "description")
	}

	if p.peek().kind == tokLBrace {
		if typ == ast.Constraint {
			p.errorAt(p.peek(), "constraint %q cannot have a body", node.Name)
			p.skipGroup()
		} else {
			p.parseBody(node, kw)
		}
	}

	end := p.prev()
	node.Location.EndLine = end.endLine
	node.Location.EndColumn = end.endCol

	if !parents[typ][parent] {
		p.errs = append(p.errs, SyntaxError{
			Location: node.NameLocation,
			Message:  fmt.Sprintf("%s %q cannot be declared %s", kw.text, node.Name, placeOf(parent)),
		})
		return nil
	}
	return node
}

func (p *parser) parseBody(node *ast.Node, kw token) {
	p.next()
	for {
		t := p.peek()
		switch t.kind {
		case tokRBrace:
			p.next()
			return
		case tokEOF:
			p.errorAt(kw, "unclosed %s %q, expected '}'", kw.text, node.Name)
			return
		}
		if child := p.parseItem(node.Type); child != nil {
			node.Children = append(node.Children, child)
		}
	}
}

func (p *parser) parseDependsOn(parent ast.NodeType) *ast.Node {
	at := p.next()
	node := &ast.Node{Type: ast.DependsOn, Location: tokenLocation(at)}

	for first := true; ; first = false {
		if first && p.peek().line != at.line {
			p.errorAt(at, "expected dependency path after @depends-on")
			break
		}
		ref, ok := p.parseReference()
		if !ok {
			p.syncLine(p.prev().line)
			break
		}
		node.Children = append(node.Children, ref)
		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}

	end := p.prev()
	node.Location.EndLine = end.endLine
	node.Location.EndColumn = end.endCol

	if parent == ast.SourceFile {
		p.errorAt(at, "@depends-on must appear inside a module, feature or requirement")
		return nil
	}
	return node
}

func (p *parser) parseReference() (*ast.Node, bool) {
	first := p.peek()
	if first.kind != tokIdent {
		p.unexpected(first, "dependency path")
		return nil, false
	}
	p.next()
	path := first.text
	last := first
	for p.peek().kind == tokDot {
		dot := p.next()
		seg := p.peek()
		if seg.kind != tokIdent || seg.line != dot.line || seg.col != dot.endCol {
			p.unexpected(seg, "identifier after '.'")
			return nil, false
		}
		p.next()
		path += "." + seg.text
		last = seg
	}
	return &ast.Node{
		Type: ast.Reference,
		Name: path,
		Location: ast.Location{
			StartLine: first.line, StartColumn: first.col,
			EndLine: last.endLine, EndColumn: last.endCol,
		},
	}, true
}
