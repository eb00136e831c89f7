// Package projectctx detects a caller's technology stack by probing marker
// files in a project directory. The detected context is used only to re-rank
// search results, never to filter them.
package projectctx

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"protodex/internal/logging"
)

// Context describes a caller's detected technology stack. The zero value
// (Detected=false) means no stack could be identified.
type Context struct {
	Language        string
	Framework       string
	ProjectType     string // frontend, backend, fullstack, devops, unknown
	TestFramework   string
	PackageManager  string
	HasDocker       bool
	HasCI           bool
	HasGit          bool
	Dependencies    []string
	DevDependencies []string
	Detected        bool
}

// Default returns the undetected context.
func Default() Context {
	return Context{
		Language:       "unknown",
		Framework:      "unknown",
		ProjectType:    "unknown",
		TestFramework:  "unknown",
		PackageManager: "unknown",
	}
}

// packageJSON is the subset of package.json used for detection.
type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// Detect probes rootPath for common stack marker files. Errors never
// propagate: anything unreadable degrades to the undetected default.
func Detect(rootPath string) Context {
	ctx := Default()

	if pkg, ok := readPackageJSON(filepath.Join(rootPath, "package.json")); ok {
		ctx.PackageManager = "npm"

		if _, ok := pkg.DevDependencies["typescript"]; ok {
			ctx.Language = "typescript"
		} else {
			ctx.Language = "javascript"
		}

		switch {
		case hasDep(pkg, "react"):
			ctx.Framework = "react"
			ctx.ProjectType = "frontend"
		case hasDep(pkg, "vue"):
			ctx.Framework = "vue"
			ctx.ProjectType = "frontend"
		case hasDep(pkg, "svelte"):
			ctx.Framework = "svelte"
			ctx.ProjectType = "frontend"
		case pkg.Dependencies["express"] != "":
			ctx.Framework = "express"
			ctx.ProjectType = "backend"
		case len(pkg.Dependencies) > 0 || len(pkg.DevDependencies) > 0:
			ctx.ProjectType = "backend"
		default:
			ctx.ProjectType = "fullstack"
		}

		if _, ok := pkg.DevDependencies["jest"]; ok {
			ctx.TestFramework = "jest"
		} else if _, ok := pkg.DevDependencies["vitest"]; ok {
			ctx.TestFramework = "vitest"
		}

		if fileExists(filepath.Join(rootPath, "yarn.lock")) {
			ctx.PackageManager = "yarn"
		} else if fileExists(filepath.Join(rootPath, "pnpm-lock.yaml")) {
			ctx.PackageManager = "pnpm"
		}

		ctx.Dependencies = mapKeys(pkg.Dependencies)
		ctx.DevDependencies = mapKeys(pkg.DevDependencies)
		ctx.Detected = true
	}

	if !ctx.Detected {
		if data, err := os.ReadFile(filepath.Join(rootPath, "pyproject.toml")); err == nil {
			ctx.Language = "python"
			ctx.PackageManager = "pip"
			ctx.ProjectType = "backend"

			content := string(data)
			if strings.Contains(content, "django") {
				ctx.Framework = "django"
			} else if strings.Contains(content, "fastapi") {
				ctx.Framework = "fastapi"
			}
			if strings.Contains(content, "pytest") {
				ctx.TestFramework = "pytest"
			}
			ctx.Detected = true
		}
	}

	if !ctx.Detected && fileExists(filepath.Join(rootPath, "requirements.txt")) {
		ctx.Language = "python"
		ctx.PackageManager = "pip"
		ctx.ProjectType = "backend"
		ctx.Detected = true
	}

	if !ctx.Detected && fileExists(filepath.Join(rootPath, "go.mod")) {
		ctx.Language = "go"
		ctx.TestFramework = "go-test"
		ctx.ProjectType = "backend"
		ctx.Detected = true
	}

	if !ctx.Detected && fileExists(filepath.Join(rootPath, "Cargo.toml")) {
		ctx.Language = "rust"
		ctx.PackageManager = "cargo"
		ctx.ProjectType = "backend"
		ctx.Detected = true
	}

	if !ctx.Detected && fileExists(filepath.Join(rootPath, "pom.xml")) {
		ctx.Language = "java"
		ctx.PackageManager = "maven"
		// Don't assume Spring - could be other frameworks
		ctx.Framework = "none"
		ctx.ProjectType = "backend"
		ctx.Detected = true
	}

	if fileExists(filepath.Join(rootPath, "Dockerfile")) {
		ctx.HasDocker = true
		if ctx.ProjectType == "unknown" {
			ctx.ProjectType = "devops"
		}
	}

	if fileExists(filepath.Join(rootPath, ".github", "workflows")) ||
		fileExists(filepath.Join(rootPath, ".gitlab-ci.yml")) ||
		fileExists(filepath.Join(rootPath, ".circleci")) ||
		fileExists(filepath.Join(rootPath, "Jenkinsfile")) {
		ctx.HasCI = true
	}

	if fileExists(filepath.Join(rootPath, ".git")) {
		ctx.HasGit = true
	}

	return ctx
}

// Describe returns a human-readable summary of the context.
func Describe(ctx Context) string {
	if !ctx.Detected {
		return "No project context detected"
	}

	var parts []string
	if ctx.Language != "unknown" {
		parts = append(parts, "Language: "+ctx.Language)
	}
	if ctx.Framework != "unknown" && ctx.Framework != "none" {
		parts = append(parts, "Framework: "+ctx.Framework)
	}
	if ctx.ProjectType != "unknown" {
		parts = append(parts, "Type: "+ctx.ProjectType)
	}
	if ctx.TestFramework != "unknown" {
		parts = append(parts, "Tests: "+ctx.TestFramework)
	}
	if ctx.HasDocker {
		parts = append(parts, "Has Docker")
	}
	if ctx.HasCI {
		parts = append(parts, "Has CI/CD")
	}

	return strings.Join(parts, ", ")
}

func readPackageJSON(path string) (*packageJSON, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		logging.Debug("Ignoring unparseable package.json", "path", path, "error", err)
		return nil, false
	}
	return &pkg, true
}

func hasDep(pkg *packageJSON, name string) bool {
	_, inDeps := pkg.Dependencies[name]
	_, inDev := pkg.DevDependencies[name]
	return inDeps || inDev
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
