package gen

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/wippyai/hostbind/errors"
)

// Type is a type declaration carrying hostbind directives.
type Type struct {
	Name     string
	Alias    string // name= argument of hostbind:export
	Tag      string // resolved identity tag
	Pos      token.Position
	Export   bool
	Identity bool
}

// Package groups the annotated types of one Go package.
type Package struct {
	Path  string
	Name  string
	Dir   string
	Types []*Type
}

// Identities returns the types that get a generated tag reporter.
func (p *Package) Identities() []*Type {
	var out []*Type
	for _, t := range p.Types {
		if t.Identity {
			out = append(out, t)
		}
	}
	return out
}

// Load loads the packages named by cfg and scans them. Diagnostics from
// every package are collected before returning.
func Load(cfg *Config, log *zap.Logger) ([]*Package, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fset := token.NewFileSet()
	pcfg := &packages.Config{
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo,
		Dir:  cfg.Dir,
		Fset: fset,
	}

	loaded, err := packages.Load(pcfg, cfg.Packages...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	// Type errors are tolerated: a stale generated file must not block
	// regeneration. Anything else means the sources cannot be scanned.
	var errs []string
	for _, p := range loaded {
		for _, e := range p.Errors {
			if e.Kind == packages.TypeError {
				log.Warn("type error", zap.String("package", p.PkgPath), zap.String("error", e.Error()))
				continue
			}
			errs = append(errs, e.Error())
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	s := newScanner(cfg, fset)
	var out []*Package
	for _, p := range loaded {
		if len(p.GoFiles) == 0 {
			continue
		}
		pkg := s.scan(p.PkgPath, p.Name, filepath.Dir(p.GoFiles[0]), p.Syntax, p.TypesInfo)
		log.Debug("scanned package",
			zap.String("package", pkg.Path),
			zap.Int("types", len(pkg.Types)))
		out = append(out, pkg)
	}

	if err := s.finish(out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// ScanFiles scans already parsed files of one package. info may be nil, in
// which case struct detection falls back to the syntax tree.
func ScanFiles(cfg *Config, fset *token.FileSet, pkgPath, dir string, files []*ast.File, info *types.Info) (*Package, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("package %s has no files", pkgPath)
	}
	s := newScanner(cfg, fset)
	pkg := s.scan(pkgPath, files[0].Name.Name, dir, files, info)
	if err := s.finish([]*Package{pkg}); err != nil {
		return nil, err
	}
	return pkg, nil
}

type scanner struct {
	cfg   *Config
	fset  *token.FileSet
	diags Diagnostics
}

func newScanner(cfg *Config, fset *token.FileSet) *scanner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &scanner{cfg: cfg, fset: fset}
}

func (s *scanner) report(pos token.Pos, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{
		Pos: s.fset.Position(pos),
		Msg: fmt.Sprintf(format, args...),
	})
}

func (s *scanner) reportf(pos token.Pos, msg string) {
	s.report(pos, "%s", msg)
}

// finish checks tags across packages and returns the collected diagnostics.
func (s *scanner) finish(pkgs []*Package) error {
	s.diags = append(s.diags, CheckTags(pkgs)...)
	if len(s.diags) == 0 {
		return nil
	}
	s.diags.sort()
	return errors.Wrap(errors.PhaseGenerate, errors.KindInvalidInput, s.diags,
		fmt.Sprintf("%d problem(s) in annotated types", len(s.diags)))
}

// CheckTags reports identity tags used by more than one type. All tags share
// one process-wide registry, so the check spans packages.
func CheckTags(pkgs []*Package) Diagnostics {
	var diags Diagnostics
	owners := map[string]string{}
	for _, p := range pkgs {
		for _, t := range p.Identities() {
			if prev, ok := owners[t.Tag]; ok {
				diags = append(diags, Diagnostic{
					Pos: t.Pos,
					Msg: fmt.Sprintf("duplicate identity tag %q: already used by %s", t.Tag, prev),
				})
				continue
			}
			owners[t.Tag] = p.Path + "." + t.Name
		}
	}
	return diags
}

func (s *scanner) generated(f *ast.File) bool {
	return filepath.Base(s.fset.Position(f.Package).Filename) == s.cfg.Output
}

func (s *scanner) scan(pkgPath, name, dir string, files []*ast.File, info *types.Info) *Package {
	pkg := &Package{Path: pkgPath, Name: name, Dir: dir}
	handwritten := map[string]bool{}

	for _, f := range files {
		if s.generated(f) {
			continue
		}
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				s.misplaced(d.Doc)
				if d.Recv != nil && d.Name.Name == "HostbindTag" {
					if recv := receiverName(d.Recv); recv != "" {
						handwritten[recv] = true
					}
				}
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					s.misplaced(d.Doc)
					continue
				}
				if d.Lparen.IsValid() {
					for _, ds := range directives(d.Doc, s.reportf) {
						s.report(ds.pos, "hostbind:%s on a grouped type declaration must be placed on a single type", ds.name)
					}
				}
				for _, spec := range d.Specs {
					ts := spec.(*ast.TypeSpec)
					doc := ts.Doc
					if !d.Lparen.IsValid() {
						doc = d.Doc
					}
					if t := s.typeSpec(pkgPath, ts, doc, info); t != nil {
						pkg.Types = append(pkg.Types, t)
					}
				}
			}
		}
	}

	for _, t := range pkg.Types {
		if t.Identity && handwritten[t.Name] {
			s.diags = append(s.diags, Diagnostic{
				Pos: t.Pos,
				Msg: fmt.Sprintf("type %s already declares HostbindTag; remove it or drop hostbind:identity", t.Name),
			})
		}
	}
	sort.Slice(pkg.Types, func(i, j int) bool { return pkg.Types[i].Name < pkg.Types[j].Name })
	return pkg
}

func (s *scanner) misplaced(doc *ast.CommentGroup) {
	for _, d := range directives(doc, s.reportf) {
		s.report(d.pos, "hostbind:%s may only be applied to type declarations", d.name)
	}
}

func (s *scanner) typeSpec(pkgPath string, ts *ast.TypeSpec, doc *ast.CommentGroup, info *types.Info) *Type {
	ds := directives(doc, s.reportf)
	if len(ds) == 0 {
		return nil
	}

	t := &Type{Name: ts.Name.Name, Pos: s.fset.Position(ts.Name.Pos())}
	var identityPos token.Pos
	seen := map[string]bool{}
	for _, d := range ds {
		if seen[d.name] {
			s.report(d.pos, "duplicate hostbind:%s directive", d.name)
			continue
		}
		seen[d.name] = true
		switch d.name {
		case "export":
			t.Export = true
			t.Alias = d.args["name"]
		case "identity":
			t.Identity = true
			identityPos = d.pos
		}
	}
	if !t.Export && !t.Identity {
		return nil
	}

	switch {
	case ts.Assign.IsValid():
		s.report(ds[0].pos, "hostbind directives cannot be applied to type alias %s", t.Name)
		return nil
	case ts.TypeParams != nil && ts.TypeParams.NumFields() > 0:
		s.report(ds[0].pos, "hostbind directives cannot be applied to generic type %s: it has no stable tag", t.Name)
		return nil
	}

	if t.Identity {
		if !isStruct(ts, info) {
			s.reportf(identityPos, "hostbind:identity may only be applied to struct types")
			return nil
		}
		if !t.Export {
			s.reportf(identityPos, "hostbind:identity requires //hostbind:export on the same type")
			return nil
		}
	}

	t.Tag = t.Name
	if t.Alias != "" {
		t.Tag = t.Alias
	}
	if tag, ok := s.cfg.TagFor(pkgPath, t.Name); ok {
		t.Tag = tag
	}
	return t
}

func isStruct(ts *ast.TypeSpec, info *types.Info) bool {
	if info != nil {
		if obj, ok := info.Defs[ts.Name].(*types.TypeName); ok && obj.Type() != nil {
			_, ok := obj.Type().Underlying().(*types.Struct)
			return ok
		}
	}
	_, ok := ts.Type.(*ast.StructType)
	return ok
}

func receiverName(recv *ast.FieldList) string {
	if len(recv.List) == 0 {
		return ""
	}
	expr := recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.IndexExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			return id.Name
		}
	case *ast.IndexListExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			return id.Name
		}
	}
	return ""
}
