package output

import (
	"path"
	"strings"
)

const dockerfileName = "dockerfile"

var languageHints = map[string]string{
	".py":         "python",
	".js":         "javascript",
	".jsx":        "javascript",
	".ts":         "typescript",
	".tsx":        "typescript",
	".java":       "java",
	".c":          "c",
	".cpp":        "cpp",
	".cs":         "csharp",
	".go":         "go",
	".rs":         "rust",
	".php":        "php",
	".rb":         "ruby",
	".swift":      "swift",
	".kt":         "kotlin",
	".scala":      "scala",
	".html":       "html",
	".css":        "css",
	".scss":       "scss",
	".json":       "json",
	".yaml":       "yaml",
	".yml":        "yaml",
	".md":         "markdown",
	".sh":         "bash",
	".xml":        "xml",
	".sql":        "sql",
	".dockerfile": dockerfileName,
	".toml":       "toml",
}

// LanguageHint returns the fenced-code language for a slash-separated path,
// or an empty string when the extension is unknown.
func LanguageHint(relativePath string) string {
	baseName := strings.ToLower(path.Base(relativePath))
	if baseName == dockerfileName {
		return dockerfileName
	}
	return languageHints[strings.ToLower(path.Ext(baseName))]
}
