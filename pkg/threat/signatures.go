package threat

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Signature is a named attack pattern. Signatures are matched in order;
// the first match wins, so list order is priority.
type Signature struct {
	Name    string
	pattern *regexp.Regexp
}

// NewSignature compiles a signature from a regular expression
func NewSignature(name, pattern string) (Signature, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Signature{}, fmt.Errorf("invalid signature %q: %w", name, err)
	}
	return Signature{Name: name, pattern: re}, nil
}

// Matches reports whether the signature matches the input
func (s Signature) Matches(input string) bool {
	return s.pattern.MatchString(input)
}

// DefaultSignatures returns the built-in signature list, ordered by
// priority: traversal first, injection shapes last.
func DefaultSignatures() []Signature {
	sigs := []struct{ name, pattern string }{
		{"path-traversal", `\.\.[/\\]`},
		{"script-injection", `(?i)<\s*script`},
		{"javascript-uri", `(?i)javascript\s*:`},
		{"data-uri", `(?i)data\s*:\s*[^,]*;\s*base64`},
		{"eval-injection", `(?i)\beval\s*\(`},
		{"sql-injection", `(?i)\bunion\b[\s\S]{0,40}?\bselect\b`},
	}

	out := make([]Signature, 0, len(sigs))
	for _, s := range sigs {
		// Built-in patterns are constants; a compile failure is a programmer error.
		out = append(out, Signature{Name: s.name, pattern: regexp.MustCompile(s.pattern)})
	}
	return out
}

// signatureFile is the on-disk YAML shape for custom signature lists
type signatureFile struct {
	Signatures []struct {
		Name    string `yaml:"name"`
		Pattern string `yaml:"pattern"`
	} `yaml:"signatures"`
}

// LoadSignatureFile reads an ordered signature list from a YAML file.
// File format:
//
//	signatures:
//	  - name: path-traversal
//	    pattern: '\.\.[/\\]'
func LoadSignatureFile(path string) ([]Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature file: %w", err)
	}

	var file signatureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse signature file: %w", err)
	}

	if len(file.Signatures) == 0 {
		return nil, fmt.Errorf("signature file %s contains no signatures", path)
	}

	sigs := make([]Signature, 0, len(file.Signatures))
	for _, entry := range file.Signatures {
		sig, err := NewSignature(entry.Name, entry.Pattern)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}
