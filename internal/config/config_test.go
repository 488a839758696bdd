package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `{
  "problems": [
    {"id": 0, "name": "aplusb", "type": "standard", "cases": [
      {"score": 50, "input_file": "data/1.in", "answer_file": "data/1.ans", "time_limit": 1000000, "memory_limit": 1048576},
      {"score": 50, "input_file": "data/2.in", "answer_file": "data/2.ans", "time_limit": 1000000, "memory_limit": 1048576}
    ]},
    {"id": 7, "name": "echo", "cases": []}
  ],
  "languages": [
    {"name": "C++", "file_name": "main.cpp", "command": ["g++", "-O2", "-o", "%OUTPUT%", "%INPUT%"]}
  ]
}`

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)

	p, ok := catalog.Problem(7)
	require.True(t, ok)
	assert.Equal(t, "echo", p.Name)
	assert.Equal(t, ProblemTypeStandard, p.Type, "missing type defaults to standard")

	_, ok = catalog.Problem(1)
	assert.False(t, ok)

	lang, ok := catalog.Language("C++")
	require.True(t, ok)
	assert.Equal(t, "main.cpp", lang.FileName)

	_, ok = catalog.Language("c++")
	assert.False(t, ok, "language lookup is case sensitive")

	assert.Equal(t, []uint32{0, 7}, catalog.ProblemIDs())
}

func TestParseCatalogRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"duplicate problem", `{"problems":[{"id":1},{"id":1}],"languages":[]}`},
		{"duplicate language", `{"problems":[],"languages":[{"name":"Go","command":["go"]},{"name":"Go","command":["go"]}]}`},
		{"empty command", `{"problems":[],"languages":[{"name":"Go","command":[]}]}`},
		{"unknown type", `{"problems":[{"id":1,"type":"spj"}],"languages":[]}`},
		{"malformed", `{"problems":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("EXECUTION_MODE", "REDIS")
	t.Setenv("MAX_WORKERS", "not-a-number")
	t.Setenv("FLUSH_DATA", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "12345", cfg.Server.HTTPPort)
	assert.Equal(t, ExecutionModeRedis, cfg.Judge.ExecutionMode)
	assert.Equal(t, 3, cfg.Worker.MaxWorkers)
	assert.True(t, cfg.Judge.FlushData)
}
