package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"
)

// Banner marks files written by the generator. Existing files without it
// are never overwritten.
const Banner = "// Code generated by hostbind-gen. DO NOT EDIT."

const fileTemplate = `{{.Banner}}
{{- range .Header}}
// {{.}}
{{- end}}

package {{.Package}}

import "github.com/wippyai/hostbind/identity"
{{range .Types}}
// HostbindTag reports the identity tag of {{.Name}}.
func ({{.Name}}) HostbindTag() string { return {{printf "%q" .Tag}} }
{{end}}
func init() {
{{- range .Types}}
	identity.MustRegister[{{.Name}}]({{printf "%q" .Tag}})
{{- end}}
}
`

var fileTmpl = template.Must(template.New("hostbind").Parse(fileTemplate))

// File is one generated source file.
type File struct {
	Path    string
	Package string
	Source  []byte
}

// Emit renders the generated file of pkg. It returns nil for a package
// without identity types.
func Emit(cfg *Config, pkg *Package) (*File, error) {
	types := pkg.Identities()
	if len(types) == 0 {
		return nil, nil
	}
	src, err := Render(cfg, pkg.Name, types)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pkg.Path, err)
	}
	return &File{
		Path:    filepath.Join(pkg.Dir, cfg.Output),
		Package: pkg.Path,
		Source:  src,
	}, nil
}

// Render produces gofmt-ed source declaring tag reporters for types.
func Render(cfg *Config, pkgName string, types []*Type) ([]byte, error) {
	var header []string
	if h := strings.TrimSpace(cfg.Header); h != "" {
		header = strings.Split(h, "\n")
		for i := range header {
			header[i] = strings.TrimRight(header[i], " \t")
		}
	}

	data := struct {
		Banner  string
		Package string
		Header  []string
		Types   []*Type
	}{
		Banner:  Banner,
		Package: pkgName,
		Header:  header,
		Types:   types,
	}

	var buf bytes.Buffer
	if err := fileTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w", err)
	}
	return src, nil
}

// Generate renders every package. Nothing is written.
func Generate(cfg *Config, pkgs []*Package) ([]*File, error) {
	var files []*File
	for _, p := range pkgs {
		f, err := Emit(cfg, p)
		if err != nil {
			return nil, err
		}
		if f != nil {
			files = append(files, f)
		}
	}
	return files, nil
}

// Write stores files, skipping those whose content is unchanged. A file at
// the target path that was not produced by the generator is left alone and
// reported as an error before anything is written.
func Write(files []*File, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	pending := make([]*File, 0, len(files))
	for _, f := range files {
		old, err := os.ReadFile(f.Path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return fmt.Errorf("reading %s: %w", f.Path, err)
		case !bytes.HasPrefix(old, []byte(Banner)):
			return fmt.Errorf("%s exists and was not generated by hostbind-gen", f.Path)
		case bytes.Equal(old, f.Source):
			log.Debug("unchanged", zap.String("file", f.Path))
			continue
		}
		pending = append(pending, f)
	}

	for _, f := range pending {
		if err := os.WriteFile(f.Path, f.Source, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Path, err)
		}
		log.Info("wrote", zap.String("file", f.Path), zap.String("package", f.Package))
	}
	return nil
}
