// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const licenseHeader = "// Copyright 2026 The h3xrecon Authors\n// SPDX-License-Identifier: Apache-2.0\n"

func TestSourceFilesCarryLicenseHeader(t *testing.T) {
	root := filepath.Join("..", "..")
	checked := 0
	for _, directory := range []string{"cmd", "lib"} {
		err := filepath.WalkDir(filepath.Join(root, directory), func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			checked++
			if !strings.HasPrefix(string(data), licenseHeader) {
				t.Errorf("%s: missing license header", path)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("walking %s: %v", directory, err)
		}
	}
	if checked == 0 {
		t.Fatal("no source files found")
	}
}
