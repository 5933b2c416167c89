package gen

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/wippyai/hostbind/identity"
)

const directivePrefix = "//hostbind:"

// directive is one parsed //hostbind: comment line.
type directive struct {
	args map[string]string
	name string
	pos  token.Pos
}

// directives collects the //hostbind: lines of a comment group. Malformed
// lines are reported through report and skipped.
func directives(doc *ast.CommentGroup, report func(token.Pos, string)) []directive {
	if doc == nil {
		return nil
	}
	var out []directive
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, directivePrefix) {
			continue
		}
		d, err := parseDirective(c.Text)
		if err != nil {
			report(c.Pos(), err.Error())
			continue
		}
		d.pos = c.Pos()
		out = append(out, d)
	}
	return out
}

// parseDirective parses "//hostbind:name key=value ...".
func parseDirective(text string) (directive, error) {
	fields := strings.Fields(strings.TrimPrefix(text, directivePrefix))
	if len(fields) == 0 {
		return directive{}, fmt.Errorf("empty hostbind directive")
	}

	d := directive{name: fields[0], args: map[string]string{}}
	switch d.name {
	case "export", "identity":
	default:
		return directive{}, fmt.Errorf("unknown directive hostbind:%s", d.name)
	}

	for _, f := range fields[1:] {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return directive{}, fmt.Errorf("hostbind:%s: malformed argument %q, want key=value", d.name, f)
		}
		if _, dup := d.args[k]; dup {
			return directive{}, fmt.Errorf("hostbind:%s: argument %q repeated", d.name, k)
		}
		d.args[k] = v
	}

	switch d.name {
	case "identity":
		if len(d.args) > 0 {
			return directive{}, fmt.Errorf("hostbind:identity takes no arguments")
		}
	case "export":
		for k, v := range d.args {
			if k != "name" {
				return directive{}, fmt.Errorf("hostbind:export: unknown argument %q", k)
			}
			if !identity.ValidTag(v) {
				return directive{}, fmt.Errorf("hostbind:export: name %q is not a valid identifier", v)
			}
		}
	}
	return d, nil
}
