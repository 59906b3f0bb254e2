package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads every department YAML file under rootDir and builds the
// catalog. Files that fail to parse or carry no department id are logged
// and skipped so one bad file never takes the whole catalog down.
func Load(rootDir string) (*Catalog, error) {
	var departments []Department

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var dept Department
		if err := yaml.Unmarshal(data, &dept); err != nil {
			slog.Warn("skipping invalid department YAML", "path", path, "error", err)
			return nil
		}
		if dept.ID == "" {
			return nil // Not a department file
		}

		departments = append(departments, dept)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	slog.Info("catalog loaded", "departments", len(departments))
	return New(departments), nil
}
