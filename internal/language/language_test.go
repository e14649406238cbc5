package language_test

import (
	"testing"

	"github.com/garagon/tatu/internal/language"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want language.Language
	}{
		{"app.js", language.JavaScript},
		{"lib/index.MJS", language.JavaScript},
		{"component.jsx", language.JavaScript},
		{"server.ts", language.TypeScript},
		{"view.tsx", language.TypeScript},
		{"main.py", language.Python},
		{"src/lib.rs", language.Rust},
		{"cmd/main.go", language.Go},
		{"App.java", language.Java},
		{"app.rb", language.Ruby},
		{"index.php", language.PHP},
		{"Program.cs", language.CSharp},
		{"deploy.sh", language.Shell},
		{"config.yml", language.Yaml},
		{"values.YAML", language.Yaml},
		{"package.json", language.Json},
		{"Cargo.toml", language.Toml},
		{"prod.env", language.Env},
		{".env", language.Env},
		{".env.local", language.Env},
		{".env.production", language.Env},
		{"Dockerfile", language.Dockerfile},
		{"build/containerfile", language.Dockerfile},
		{"README.md", language.Unknown},
		{"Makefile", language.Unknown},
		{"noext", language.Unknown},
		{"trailingdot.", language.Unknown},
		{"", language.Unknown},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, language.Classify(tt.path), "Classify(%q)", tt.path)
	}
}

func TestParse(t *testing.T) {
	got, err := language.Parse("Python")
	require.NoError(t, err)
	require.Equal(t, language.Python, got)

	got, err = language.Parse("ts")
	require.NoError(t, err)
	require.Equal(t, language.TypeScript, got)

	_, err = language.Parse("unknown")
	require.Error(t, err)
	_, err = language.Parse("cobol")
	require.Error(t, err)
}

func TestStringRoundTrip(t *testing.T) {
	for l := language.JavaScript; l <= language.Env; l++ {
		got, err := language.Parse(l.String())
		require.NoError(t, err)
		require.Equal(t, l, got)
	}
}
