package server

import (
	"fmt"
	"os"
	"path/filepath"
)

// findConfigPath walks upward from the working directory looking for a
// repo-relative config file, so binaries and package tests resolve the same
// files regardless of where they run from.
func findConfigPath(rel string) (string, error) {
	path := rel
	for range 8 {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = filepath.Join("..", path)
	}
	return "", fmt.Errorf("server: config %s not found", rel)
}
