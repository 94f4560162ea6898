package threat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_CleanURL(t *testing.T) {
	scanner := NewScanner()

	verdict := scanner.Scan("/api/v1/students/s1/analytics?term=fall", false)
	assert.True(t, verdict.Clean)
	assert.Empty(t, verdict.Signature)
}

func TestScanner_PathTraversal(t *testing.T) {
	scanner := NewScanner()

	verdict := scanner.Scan("/files/../../../etc/passwd", false)
	assert.False(t, verdict.Clean)
	assert.Equal(t, "path-traversal", verdict.Signature)
}

func TestScanner_EncodedPathTraversal(t *testing.T) {
	scanner := NewScanner()

	verdict := scanner.Scan("/files/%2e%2e%2f%2e%2e%2fetc%2fpasswd", false)
	assert.False(t, verdict.Clean)
	assert.Equal(t, "path-traversal", verdict.Signature)
}

func TestScanner_Signatures(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name      string
		url       string
		signature string
	}{
		{"script tag", "/search?q=<script>alert(1)</script>", "script-injection"},
		{"script tag with spaces", "/search?q=< script>x", "script-injection"},
		{"javascript uri", "/redirect?to=javascript:alert(1)", "javascript-uri"},
		{"data uri", "/upload?src=data:text/html;base64,PHNjcmlwdD4=", "data-uri"},
		{"eval payload", "/api?cb=eval(document.cookie)", "eval-injection"},
		{"sql union select", "/students?id=1+UNION+SELECT+password+FROM+users", "sql-injection"},
		{"sql union mixed case", "/students?id=1 uNiOn all SeLeCt *", "sql-injection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := scanner.Scan(tt.url, false)
			assert.False(t, verdict.Clean)
			assert.Equal(t, tt.signature, verdict.Signature)
		})
	}
}

func TestScanner_FirstMatchWins(t *testing.T) {
	scanner := NewScanner()

	// Contains both a traversal and a script tag; traversal has priority.
	verdict := scanner.Scan("/files/../x?q=<script>", false)
	assert.Equal(t, "path-traversal", verdict.Signature)
}

func TestScanner_Replace(t *testing.T) {
	scanner := NewScanner()

	custom, err := NewSignature("admin-probe", `(?i)/wp-admin`)
	require.NoError(t, err)
	scanner.Replace([]Signature{custom})

	assert.True(t, scanner.Scan("/files/../etc/passwd", false).Clean)
	assert.Equal(t, "admin-probe", scanner.Scan("/wp-admin/login.php", false).Signature)
	assert.Equal(t, []string{"admin-probe"}, scanner.Signatures())
}

func TestNewSignature_InvalidPattern(t *testing.T) {
	_, err := NewSignature("broken", `([`)
	assert.Error(t, err)
}

func TestLoadSignatureFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signatures.yaml")

	content := `signatures:
  - name: path-traversal
    pattern: '\.\.[/\\]'
  - name: probe
    pattern: '(?i)/phpmyadmin'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	sigs, err := LoadSignatureFile(path)
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, "path-traversal", sigs[0].Name)
	assert.True(t, sigs[1].Matches("/phpMyAdmin/index.php"))
}

func TestLoadSignatureFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSignatureFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("signatures: []"), 0644))
	_, err = LoadSignatureFile(empty)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("signatures:\n  - name: bad\n    pattern: '(['\n"), 0644))
	_, err = LoadSignatureFile(invalid)
	assert.Error(t, err)
}
