// Package classify decides whether a changed file is a candidate for
// auto-reveal based purely on the shape of its path.
//
// The verdict is computed from three checks, in order: ignored
// directory names anywhere in the path, disallowed base-name patterns,
// and an extension allow-list. Classification is pure: the same path
// always yields the same verdict.
package classify

import (
	"path/filepath"
	"strings"
)

// Reason tags why a path was allowed or denied.
type Reason string

// Verdict reasons.
const (
	ReasonAllowed        Reason = "allowed"
	ReasonIgnoredDir     Reason = "ignored_directory"
	ReasonDisallowedName Reason = "disallowed_name"
	ReasonExtension      Reason = "extension_not_allowed"
)

// Verdict is the result of classifying a path.
type Verdict struct {
	// Allowed reports whether the path may proceed to the decision
	// engine.
	Allowed bool

	// Reason tags why the verdict was reached.
	Reason Reason

	// Match is the rule that produced a deny (directory name, name
	// pattern, or extension). Empty for allowed paths.
	Match string
}

// Rules holds the three rule sets driving classification.
type Rules struct {
	// IgnoredDirs are directory names denied anywhere in the path,
	// case-insensitively, covering their whole subtree.
	IgnoredDirs []string

	// DisallowedNames are glob patterns matched against the base name.
	// A match denies the file even if its extension is allowed.
	DisallowedNames []string

	// AllowedExtensions is the extension allow-list (with leading
	// dots). Files outside it are denied.
	AllowedExtensions []string
}

// DefaultRules returns the built-in rule sets: VCS metadata, editor
// configuration, dependency and build-output directories, framework
// caches, a bulk-generated assets root (whole subtree), known lock and
// environment files, and the common source/markup/config/script
// extensions.
func DefaultRules() Rules {
	return Rules{
		IgnoredDirs: []string{
			".git", ".svn", ".hg",
			".vscode", ".idea",
			"node_modules", "vendor", "bower_components",
			"dist", "build", "out", "target",
			".next", ".nuxt", ".cache", ".turbo",
			"__pycache__", ".pytest_cache",
			"coverage", ".nyc_output",
			// Bulk-generated assets root (e.g. Laravel storage/),
			// including the compiled-template cache nested inside it.
			"storage",
		},
		DisallowedNames: []string{
			"package-lock.json", "yarn.lock", "pnpm-lock.yaml",
			"composer.lock", "Gemfile.lock", "Cargo.lock",
			"poetry.lock", "Pipfile.lock", "go.sum",
			".env", ".env.*",
			"*.log", "*.sql", "*.txt",
		},
		AllowedExtensions: []string{
			// Source code.
			".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".cts", ".mts",
			".php", ".py", ".rb", ".go", ".java", ".cs", ".kt", ".kts",
			".rs", ".cpp", ".cxx", ".cc", ".c", ".h", ".hpp", ".hh",
			// Markup and style.
			".html", ".htm", ".css", ".scss", ".sass", ".less",
			".vue", ".svelte", ".astro", ".mdx",
			// Data and docs.
			".json", ".yml", ".yaml", ".xml", ".md", ".sql",
			// Scripts.
			".sh", ".ps1", ".bat",
		},
	}
}

// Check classifies a path against the rule sets.
//
// The checks run cheapest-first and stop at the first deny. Check is
// side-effect-free and safe for concurrent use.
func (r Rules) Check(path string) Verdict {
	segments := strings.Split(filepath.ToSlash(path), "/")

	// Directory segments: everything but the base name.
	for _, seg := range segments[:len(segments)-1] {
		for _, dir := range r.IgnoredDirs {
			if strings.EqualFold(seg, dir) {
				return Verdict{Reason: ReasonIgnoredDir, Match: dir}
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range r.DisallowedNames {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return Verdict{Reason: ReasonDisallowedName, Match: pattern}
		}
		// Bare extension patterns like ".log" also match as a suffix.
		if strings.HasPrefix(pattern, ".") && !strings.Contains(pattern, "*") {
			if strings.EqualFold(base, pattern) || strings.HasSuffix(strings.ToLower(base), strings.ToLower(pattern)) {
				return Verdict{Reason: ReasonDisallowedName, Match: pattern}
			}
		}
	}

	ext := strings.ToLower(filepath.Ext(base))
	for _, allowed := range r.AllowedExtensions {
		if ext == allowed {
			return Verdict{Allowed: true, Reason: ReasonAllowed}
		}
	}

	return Verdict{Reason: ReasonExtension, Match: ext}
}

// Path classifies a path using the default rules.
func Path(path string) Verdict {
	return DefaultRules().Check(path)
}
