package autopoiesis

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/traefik/yaegi/interp"
)

// =============================================================================
// FRAGMENT ASSEMBLY
// =============================================================================
// A fragment is Go code without a package clause: imports, declarations and
// statements in any order. It is rewritten into a main package:
//
//	package main
//	<imports>
//	<func and type declarations, plus var/const declared before any statement>
//	func main() { <statements, in order> }
//
// Every piece is prefixed with a line directive so positions in errors refer
// to the caller's own lines and columns.

type chunk struct {
	text string
	line int
	col  int
}

type fragment struct {
	imports []chunk
	decls   []chunk
	stmts   []chunk
	hasMain bool
}

type scanned struct {
	off int
	tok token.Token
	lit string
}

// splitFragment cuts code into top-level items at depth-zero semicolons,
// explicit or inserted at line ends.
func splitFragment(code string) *fragment {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(code))

	var s scanner.Scanner
	s.Init(file, []byte(code), nil, 0)

	var toks []scanned
	for {
		pos, tok, lit := s.Scan()
		toks = append(toks, scanned{off: file.Offset(pos), tok: tok, lit: lit})
		if tok == token.EOF {
			break
		}
	}

	frag := &fragment{}
	seenStmt := false
	for i := 0; i < len(toks) && toks[i].tok != token.EOF; {
		if toks[i].tok == token.SEMICOLON {
			i++
			continue
		}

		start := toks[i].off
		kind := toks[i].tok
		isDecl := kind == token.TYPE || kind == token.VAR || kind == token.CONST
		if kind == token.FUNC {
			isDecl = isFuncDecl(toks, i)
			if isDecl && toks[i+1].tok == token.IDENT && toks[i+1].lit == "main" {
				frag.hasMain = true
			}
		}

		j := endOfItem(toks, i)
		end := len(code)
		if j < len(toks) {
			end = toks[j].off
		}
		line, col := lineCol(code, start)
		c := chunk{text: strings.TrimRight(code[start:end], " \t\r\n"), line: line, col: col}

		switch {
		case kind == token.IMPORT:
			frag.imports = append(frag.imports, c)
		case kind == token.FUNC && isDecl, kind == token.TYPE:
			frag.decls = append(frag.decls, c)
		case isDecl && !seenStmt:
			frag.decls = append(frag.decls, c)
		default:
			seenStmt = true
			frag.stmts = append(frag.stmts, c)
		}
		i = j
	}
	return frag
}

// endOfItem returns the index of the semicolon (or EOF) closing the item
// that starts at toks[i].
func endOfItem(toks []scanned, i int) int {
	depth := 0
	for ; i < len(toks); i++ {
		switch toks[i].tok {
		case token.LPAREN, token.LBRACK, token.LBRACE:
			depth++
		case token.RPAREN, token.RBRACK, token.RBRACE:
			depth--
		case token.SEMICOLON:
			if depth <= 0 {
				return i
			}
		case token.EOF:
			return i
		}
	}
	return len(toks)
}

// isFuncDecl tells a function or method declaration from a function literal
// used as a statement, e.g. func() { ... }().
func isFuncDecl(toks []scanned, i int) bool {
	if i+1 >= len(toks) {
		return false
	}
	switch toks[i+1].tok {
	case token.IDENT:
		return true
	case token.LPAREN:
		// func (r T) Name(  is a method; anything else is a literal.
		depth := 0
		for k := i + 1; k < len(toks); k++ {
			switch toks[k].tok {
			case token.LPAREN:
				depth++
			case token.RPAREN:
				depth--
				if depth == 0 {
					return k+2 < len(toks) && toks[k+1].tok == token.IDENT &&
						(toks[k+2].tok == token.LPAREN || toks[k+2].tok == token.LBRACK)
				}
			case token.EOF:
				return false
			}
		}
	}
	return false
}

func lineCol(code string, off int) (int, int) {
	line := 1 + strings.Count(code[:off], "\n")
	col := off + 1
	if nl := strings.LastIndexByte(code[:off], '\n'); nl >= 0 {
		col = off - nl
	}
	return line, col
}

// program renders the fragment as a main package.
func (f *fragment) program() string {
	var b strings.Builder
	b.WriteString("package main\n")
	for _, c := range f.imports {
		writeChunk(&b, c)
	}
	for _, c := range f.decls {
		writeChunk(&b, c)
	}
	if f.hasMain && len(f.stmts) == 0 {
		return b.String() + "\n"
	}
	b.WriteString("\nfunc main() {")
	for _, c := range f.stmts {
		writeChunk(&b, c)
	}
	b.WriteString("\n}\n")
	return b.String()
}

func writeChunk(b *strings.Builder, c chunk) {
	fmt.Fprintf(b, "\n/*line %s:%d:%d*/%s", interp.DefaultSourceName, c.line, c.col, c.text)
}

// =============================================================================
// GO STATEMENT GUARD
// =============================================================================
// A panic on a goroutine started by interpreted code cannot be recovered by
// the caller and terminates the process, so restricted code may not start
// goroutines at all.

// checkGoStatements reports the first go statement in src. Source that does
// not parse is left for the interpreter to reject.
func checkGoStatements(filename, src string) error {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil
	}

	var found *ast.GoStmt
	ast.Inspect(f, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		if g, ok := n.(*ast.GoStmt); ok {
			found = g
			return false
		}
		return true
	})
	if found == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fset.Position(found.Go), ErrGoStatement)
}
