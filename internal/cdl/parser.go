// Package cdl parses the classic subset of netCDF CDL text into a netcdf.Schema.
package cdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/seaice-etl/internal/netcdf"
)

// File is a parsed CDL descriptor.
type File struct {
	Name   string
	Schema netcdf.Schema
}

var typeNames = map[string]netcdf.Type{
	"byte":    netcdf.Byte,
	"char":    netcdf.Char,
	"short":   netcdf.Short,
	"int":     netcdf.Int,
	"integer": netcdf.Int,
	"long":    netcdf.Int,
	"float":   netcdf.Float,
	"real":    netcdf.Float,
	"double":  netcdf.Double,
}

var extendedTypes = map[string]bool{
	"ubyte": true, "ushort": true, "uint": true, "int64": true, "uint64": true, "string": true,
}

type parser struct {
	toks []token
	pos  int
	file File
}

// Parse reads a classic-model CDL descriptor. The result is syntactically
// complete; netcdf.Create performs the remaining structural checks.
func Parse(src string) (File, error) {
	toks, err := newLexer(src).tokens()
	if err != nil {
		return File{}, err
	}
	p := &parser{toks: toks}
	if err := p.parse(); err != nil {
		return File{}, err
	}
	return p.file, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &SyntaxError{Line: tok.line, Col: tok.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) isPunct(s string) bool {
	tok := p.peek()
	return tok.kind == tokPunct && tok.text == s
}

func (p *parser) expectPunct(s string) error {
	tok := p.next()
	if tok.kind != tokPunct || tok.text != s {
		return p.errorf(tok, "expected %q, found %s", s, tok)
	}
	return nil
}

func (p *parser) expectIdent() (token, error) {
	tok := p.next()
	if tok.kind != tokIdent {
		return tok, p.errorf(tok, "expected identifier, found %s", tok)
	}
	return tok, nil
}

func (p *parser) parse() error {
	tok := p.next()
	if tok.kind != tokIdent || (tok.text != "netcdf" && tok.text != "netCDF") {
		return p.errorf(tok, "expected \"netcdf\", found %s", tok)
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	p.file.Name = name.text
	if err := p.expectPunct("{"); err != nil {
		return err
	}

	seen := map[string]bool{}
	for !p.isPunct("}") {
		tok := p.next()
		if tok.kind != tokSection {
			return p.errorf(tok, "expected section or \"}\", found %s", tok)
		}
		if seen[tok.text] {
			return p.errorf(tok, "duplicate %s section", tok.text)
		}
		seen[tok.text] = true

		switch tok.text {
		case "dimensions":
			err = p.parseDimensions()
		case "variables":
			err = p.parseVariables()
		case "data":
			err = p.parseData()
		}
		if err != nil {
			return err
		}
	}
	p.next()

	if tok := p.next(); tok.kind != tokEOF {
		return p.errorf(tok, "unexpected %s after closing brace", tok)
	}
	return nil
}

func (p *parser) atSectionEnd() bool {
	tok := p.peek()
	return tok.kind == tokSection || tok.kind == tokEOF || (tok.kind == tokPunct && tok.text == "}")
}

func (p *parser) parseDimensions() error {
	for !p.atSectionEnd() {
		for {
			name, err := p.expectIdent()
			if err != nil {
				return err
			}
			if err := p.expectPunct("="); err != nil {
				return err
			}
			tok := p.next()
			switch {
			case tok.kind == tokIdent && strings.EqualFold(tok.text, "unlimited"):
				return p.errorf(tok, "dimension %q: unlimited dimensions are not supported", name.text)
			case tok.kind != tokNumber:
				return p.errorf(tok, "dimension %q: expected length, found %s", name.text, tok)
			}
			length, err := strconv.Atoi(strings.TrimRight(tok.text, "lLuU"))
			if err != nil || length <= 0 {
				return p.errorf(tok, "dimension %q: invalid length %q", name.text, tok.text)
			}
			p.file.Schema.Dimensions = append(p.file.Schema.Dimensions, netcdf.Dimension{Name: name.text, Length: length})

			if !p.isPunct(",") {
				break
			}
			p.next()
		}
		if err := p.expectPunct(";"); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseVariables() error {
	for !p.atSectionEnd() {
		tok := p.peek()
		switch {
		case tok.kind == tokPunct && tok.text == ":":
			if err := p.parseAttribute(""); err != nil {
				return err
			}
		case tok.kind == tokIdent && p.toks[p.pos+1].kind == tokPunct && p.toks[p.pos+1].text == ":":
			target := p.next().text
			if target == "NC_GLOBAL" {
				target = ""
			}
			if err := p.parseAttribute(target); err != nil {
				return err
			}
		case tok.kind == tokIdent:
			if err := p.parseDeclaration(); err != nil {
				return err
			}
		default:
			return p.errorf(tok, "expected declaration or attribute, found %s", tok)
		}
	}
	return nil
}

func (p *parser) parseDeclaration() error {
	typeTok := p.next()
	t, ok := typeNames[typeTok.text]
	if !ok {
		if extendedTypes[typeTok.text] {
			return p.errorf(typeTok, "type %q requires the netCDF-4 format", typeTok.text)
		}
		return p.errorf(typeTok, "unknown type %q", typeTok.text)
	}

	for {
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		v := netcdf.Variable{Name: name.text, Type: t}
		if p.isPunct("(") {
			p.next()
			for !p.isPunct(")") {
				dim, err := p.expectIdent()
				if err != nil {
					return err
				}
				if _, ok := p.file.Schema.Dimension(dim.text); !ok {
					return p.errorf(dim, "variable %q: undefined dimension %q", name.text, dim.text)
				}
				v.Dimensions = append(v.Dimensions, dim.text)
				if !p.isPunct(",") {
					break
				}
				p.next()
			}
			if err := p.expectPunct(")"); err != nil {
				return err
			}
		}
		if _, dup := p.file.Schema.Variable(v.Name); dup {
			return p.errorf(name, "duplicate variable %q", v.Name)
		}
		p.file.Schema.Variables = append(p.file.Schema.Variables, v)

		if !p.isPunct(",") {
			break
		}
		p.next()
	}
	return p.expectPunct(";")
}

func (p *parser) parseAttribute(target string) error {
	if err := p.expectPunct(":"); err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}

	var lits []literal
	for {
		lit, err := p.parseLiteral()
		if err != nil {
			return err
		}
		lits = append(lits, lit)
		if !p.isPunct(",") {
			break
		}
		p.next()
	}
	if err := p.expectPunct(";"); err != nil {
		return err
	}

	attrs := &p.file.Schema.Attributes
	var varType netcdf.Type
	if target != "" {
		idx := p.variableIndex(target)
		if idx < 0 {
			return p.errorf(name, "attribute %q on undeclared variable %q", name.text, target)
		}
		attrs = &p.file.Schema.Variables[idx].Attributes
		varType = p.file.Schema.Variables[idx].Type
	}

	value, err := attributeValue(lits, name.text, varType)
	if err != nil {
		return p.errorf(name, "attribute %q: %v", name.text, err)
	}
	for _, a := range *attrs {
		if a.Name == name.text {
			return p.errorf(name, "duplicate attribute %q", name.text)
		}
	}
	*attrs = append(*attrs, netcdf.Attribute{Name: name.text, Value: value})
	return nil
}

func (p *parser) variableIndex(name string) int {
	for i, v := range p.file.Schema.Variables {
		if v.Name == name {
			return i
		}
	}
	return -1
}

func (p *parser) parseData() error {
	for !p.atSectionEnd() {
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		v, ok := p.file.Schema.Variable(name.text)
		if !ok {
			return p.errorf(name, "data for undeclared variable %q", name.text)
		}
		if err := p.expectPunct("="); err != nil {
			return err
		}

		fill := netcdf.DefaultFill(v.Type)
		if fv, ok := findFill(v); ok {
			fill = fv
		}
		var values []float64
		for {
			tok := p.peek()
			if tok.kind == tokIdent && tok.text == "_" {
				p.next()
				values = append(values, fill)
			} else {
				lit, err := p.parseLiteral()
				if err != nil {
					return err
				}
				if lit.kind == netcdf.Char {
					return p.errorf(tok, "variable %q: string data is not supported", name.text)
				}
				values = append(values, lit.number)
			}
			if !p.isPunct(",") {
				break
			}
			p.next()
		}
		if err := p.expectPunct(";"); err != nil {
			return err
		}

		if want := p.file.Schema.Size(v); len(values) != want {
			return p.errorf(name, "variable %q: %d values for %d elements", name.text, len(values), want)
		}
		if p.file.Schema.Data == nil {
			p.file.Schema.Data = map[string][]float64{}
		}
		p.file.Schema.Data[name.text] = values
	}
	return nil
}

func findFill(v netcdf.Variable) (float64, bool) {
	for _, a := range v.Attributes {
		if a.Name != "_FillValue" {
			continue
		}
		switch fv := a.Value.(type) {
		case []uint8:
			return float64(int8(fv[0])), true
		case []int16:
			return float64(fv[0]), true
		case []int32:
			return float64(fv[0]), true
		case []float32:
			return float64(fv[0]), true
		case []float64:
			return fv[0], true
		}
	}
	return 0, false
}

func (p *parser) parseLiteral() (literal, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		return literal{kind: netcdf.Char, text: tok.text}, nil
	case tokNumber, tokIdent:
		lit, err := parseNumber(tok.text)
		if err != nil {
			return literal{}, p.errorf(tok, "%v", err)
		}
		return lit, nil
	}
	return literal{}, p.errorf(tok, "expected value, found %s", tok)
}
