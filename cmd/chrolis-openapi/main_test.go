package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGenerateJSON(t *testing.T) {
	data, err := generate("http://localhost:9124", false)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/api/v1/devices/{device}/properties/{property}")
	assert.Contains(t, paths, "/api/v1/status")
}

func TestGenerateYAML(t *testing.T) {
	data, err := generate("", true)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc, "openapi")
	assert.Contains(t, doc, "paths")
}
