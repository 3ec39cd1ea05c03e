package catalog

import (
	"path"
	"strings"
)

// Extensions of primary-language class/module files.
var classExtensions = map[string]bool{
	".java":    true,
	".kt":      true,
	".cs":      true,
	".scala":   true,
	".go":      true,
	".py":      true,
	".rb":      true,
	".ts":      true,
	".js":      true,
	".cls":     true,
	".trigger": true,
}

// Extensions of UI component files.
var componentExtensions = map[string]bool{
	".tsx":    true,
	".jsx":    true,
	".vue":    true,
	".svelte": true,
	".cmp":    true,
}

// Classify maps a file path to its source kind by filename convention.
// Test conventions are checked first so FooControllerTest.java lands in
// KindTest, not KindPrimaryClass.
func Classify(filePath string) Kind {
	base := path.Base(filePath)
	ext := strings.ToLower(path.Ext(base))

	if isTestPath(filePath, base) {
		return KindTest
	}
	if componentExtensions[ext] {
		return KindComponent
	}
	if classExtensions[ext] {
		return KindPrimaryClass
	}
	return KindOther
}

func isTestPath(filePath, base string) bool {
	lowerPath := strings.ToLower(filePath)
	for _, dir := range []string{"__tests__/", "test/", "tests/", "spec/"} {
		if strings.HasPrefix(lowerPath, dir) || strings.Contains(lowerPath, "/"+dir) {
			return true
		}
	}

	stem := strings.TrimSuffix(base, path.Ext(base))
	if strings.HasSuffix(stem, "_test") {
		return true
	}
	// FooController.test.js / FooController.spec.ts
	lowerStem := strings.ToLower(stem)
	if strings.HasSuffix(lowerStem, ".test") || strings.HasSuffix(lowerStem, ".spec") {
		return true
	}
	// Java-style FooTest / FooControllerTest and Test-prefixed classes
	if strings.HasSuffix(stem, "Test") || strings.HasSuffix(stem, "Tests") || strings.HasPrefix(stem, "Test") {
		return true
	}
	return false
}

// SymbolName derives the symbol a file defines under the naming convention:
// the base name without extensions (FooController.java -> FooController,
// FooController.test.js -> FooController).
func SymbolName(filePath string) string {
	stem := path.Base(filePath)
	for {
		ext := path.Ext(stem)
		if ext == "" {
			return stem
		}
		stem = strings.TrimSuffix(stem, ext)
	}
}
