package source

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/couchcryptid/pandemic-scrollmap/internal/domain"
)

// DecodeScenes decodes a scene script. Sources ending in .yaml or .yml are
// read as YAML; anything else is JSON unless the body does not start with
// '[', in which case YAML is tried.
func DecodeScenes(src string, data []byte) ([]domain.Scene, error) {
	if !isYAML(src, data) {
		return domain.DecodeScenesJSON(data)
	}

	var scenes []domain.Scene
	if err := yaml.Unmarshal(data, &scenes); err != nil {
		return nil, fmt.Errorf("decode scenes: %w", err)
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("decode scenes: script is empty")
	}
	return scenes, nil
}

func isYAML(src string, data []byte) bool {
	if i := strings.IndexAny(src, "?#"); i >= 0 && IsURL(src) {
		src = src[:i]
	}
	switch strings.ToLower(path.Ext(src)) {
	case ".yaml", ".yml":
		return true
	case ".json":
		return false
	}
	return !bytes.HasPrefix(bytes.TrimSpace(data), []byte("["))
}
