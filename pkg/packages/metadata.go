package packages

import (
	"fmt"
	"os"

	v1 "github.com/Felis-Linux/fpkg/pkg/api/v1"
	"k8s.io/apimachinery/pkg/util/yaml"
)

// ReadMetadata decodes a package.json document.
func ReadMetadata(path string) (*v1.PackageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var meta v1.PackageMetadata
	if err := yaml.NewYAMLOrJSONDecoder(f, 4).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &meta, nil
}
