package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/hostbind"
	"github.com/wippyai/hostbind/identity"
)

// ConfigFile is the name searched for by FindConfig.
const ConfigFile = "hostbind.yaml"

// Config is the content of hostbind.yaml.
//
//	packages: [./...]
//	output: hostbind_gen.go
//	tags:
//	  Counter: Tally
//	  example.com/app/model.User: Person
//	header: |
//	  Regenerate with `go generate ./...`.
type Config struct {
	// Tags overrides identity tags by type. Keys are either a bare type name
	// or a package-qualified one ("import/path.Name"); the qualified key wins.
	Tags map[string]string `yaml:"tags,omitempty"`

	// Output is the generated file name written into each package directory.
	Output string `yaml:"output,omitempty"`

	// Header is an extra comment placed under the generated-code banner.
	Header string `yaml:"header,omitempty"`

	// Packages are go/packages patterns relative to the config directory.
	Packages []string `yaml:"packages,omitempty"`

	// Dir is the directory patterns are resolved against. Not read from YAML.
	Dir string `yaml:"-"`
}

// DefaultConfig scans the working directory tree.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a hostbind.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := ParseConfig(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// ParseConfig parses hostbind.yaml content. The path is used only in error
// messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.setDefaults()
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfig searches for hostbind.yaml starting from dir and walking up to
// the filesystem root. It returns "" and a nil error when there is none.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{ConfigFile, "hostbind.yml"} {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) setDefaults() {
	if c.Output == "" {
		c.Output = hostbind.GeneratedFile
	}
	if len(c.Packages) == 0 {
		c.Packages = []string{"./..."}
	}
}

func (c *Config) validate(path string) error {
	if filepath.Base(c.Output) != c.Output {
		return fmt.Errorf("%s: output %q must be a file name, not a path", path, c.Output)
	}
	if !strings.HasSuffix(c.Output, ".go") || strings.HasSuffix(c.Output, "_test.go") {
		return fmt.Errorf("%s: output %q must be a non-test .go file", path, c.Output)
	}

	for i, p := range c.Packages {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%s: packages[%d]: empty pattern", path, i)
		}
	}

	keys := make([]string, 0, len(c.Tags))
	for k := range c.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if i := strings.LastIndex(k, "."); i >= 0 {
			name = k[i+1:]
		}
		if name == "" || !identity.ValidTag(name) {
			return fmt.Errorf("%s: tags: %q is not a type name", path, k)
		}
		if !identity.ValidTag(c.Tags[k]) {
			return fmt.Errorf("%s: tags[%s]: %q is not a valid identity tag", path, k, c.Tags[k])
		}
	}
	return nil
}

// Validate checks a configuration assembled in code or from flags.
func (c *Config) Validate() error {
	c.setDefaults()
	return c.validate("config")
}

// TagFor returns the configured override for a type, if any.
func (c *Config) TagFor(pkgPath, name string) (string, bool) {
	if tag, ok := c.Tags[pkgPath+"."+name]; ok {
		return tag, true
	}
	tag, ok := c.Tags[name]
	return tag, ok
}
