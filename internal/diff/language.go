package diff

import (
	"path/filepath"
	"strings"

	"github.com/sprite-ai/reviewdesk/internal/model"
)

var extLanguages = map[string]model.Language{
	".py":   model.LangPython,
	".pyi":  model.LangPython,
	".js":   model.LangJavaScript,
	".jsx":  model.LangJavaScript,
	".mjs":  model.LangJavaScript,
	".cjs":  model.LangJavaScript,
	".ts":   model.LangTypeScript,
	".tsx":  model.LangTypeScript,
	".java": model.LangJava,
	".cc":   model.LangCPP,
	".cpp":  model.LangCPP,
	".cxx":  model.LangCPP,
	".hpp":  model.LangCPP,
	".hh":   model.LangCPP,
	".h":    model.LangCPP,
	".cs":   model.LangCSharp,
	".go":   model.LangGo,
	".rs":   model.LangRust,
}

// LanguageForFile maps a path onto a supported review language by extension.
func LanguageForFile(path string) (model.Language, bool) {
	lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// chroma lexer names for each language
var lexerNames = map[model.Language]string{
	model.LangPython:     "python",
	model.LangJavaScript: "javascript",
	model.LangTypeScript: "typescript",
	model.LangJava:       "java",
	model.LangCPP:        "cpp",
	model.LangCSharp:     "csharp",
	model.LangGo:         "go",
	model.LangRust:       "rust",
}
