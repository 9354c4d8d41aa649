package metrics

import "strings"

// extensionLanguages maps file extensions to language tags used for
// building colors in the renderer.
var extensionLanguages = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".go":    "go",
	".rs":    "rust",
	".rb":    "ruby",
	".php":   "php",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cc":    "cpp",
	".cs":    "csharp",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".html":  "html",
	".css":   "css",
	".scss":  "scss",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".md":    "markdown",
	".sh":    "shell",
	".bash":  "shell",
	".sql":   "sql",
	".toml":  "toml",
}

// LanguageForExtension returns the language tag for a file extension
// (with or without the leading dot), or "unknown".
func LanguageForExtension(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if lang, ok := extensionLanguages[strings.ToLower(ext)]; ok {
		return lang
	}
	return "unknown"
}
