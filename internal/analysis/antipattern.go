package analysis

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/reviewdesk/internal/model"
)

// Anti-pattern regexes.
var (
	// Broad exception handling
	broadExceptPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)except\s*:`),                            // Python: bare except
		regexp.MustCompile(`(?i)except\s+Exception\s*:`),                // Python: catch-all
		regexp.MustCompile(`(?i)catch\s*\(\s*(Exception|Error|e)\s*\)`), // Java/C#
		regexp.MustCompile(`(?i)catch\s*\(\s*\.\.\.\s*\)`),              // C++: catch (...)
		regexp.MustCompile(`(?i)catch\s*\{`),                            // C# bare catch
		regexp.MustCompile(`\.catch\(\s*(?:_|err|\(\s*\))\s*=>`),        // JS: .catch((_) => or .catch(() =>
	}

	// Ignored errors and panics
	ignoredErrorPatterns = map[model.Language][]*regexp.Regexp{
		model.LangGo: {
			regexp.MustCompile(`^\s*_\s*(,\s*_\s*)?=\s*\w+.*\(`),
			regexp.MustCompile(`\bpanic\(`),
		},
		model.LangRust: {
			regexp.MustCompile(`\.unwrap\(\)`),
			regexp.MustCompile(`\.expect\(`),
		},
	}

	// Commented-out code patterns (lines that look like disabled code, not natural comments)
	commentedCodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(?://|#)\s*(?:func |def |class |if |for |while |return |import |from |const |let |var |pub fn )`),
		regexp.MustCompile(`^\s*(?://|#)\s*\w+\s*[({=]`),
		regexp.MustCompile(`^\s*{?/\*.*\b(?:func|def|class|return)\b.*\*/}?`),
	}

	// Debug output left behind
	debugPatterns = map[model.Language]*regexp.Regexp{
		model.LangPython:     regexp.MustCompile(`^\s*print\(`),
		model.LangJavaScript: regexp.MustCompile(`console\.(log|debug)\(`),
		model.LangTypeScript: regexp.MustCompile(`console\.(log|debug)\(`),
		model.LangJava:       regexp.MustCompile(`System\.(out|err)\.print`),
		model.LangCSharp:     regexp.MustCompile(`Console\.Write`),
		model.LangGo:         regexp.MustCompile(`fmt\.Print`),
		model.LangRust:       regexp.MustCompile(`(println|dbg)!\(`),
		model.LangCPP:        regexp.MustCompile(`std::cout\s*<<`),
	}

	todoPattern = regexp.MustCompile(`(?i)\b(TODO|FIXME|HACK|XXX)\b`)
)

// AntiPatternPass detects common code-quality problems.
func AntiPatternPass(src Source) []Finding {
	lines := src.Lines()

	var findings []Finding
	findings = append(findings, checkBroadExceptions(src, lines)...)
	findings = append(findings, checkIgnoredErrors(src, lines)...)
	findings = append(findings, checkCommentedCode(src, lines)...)
	findings = append(findings, checkDebugOutput(src, lines)...)
	findings = append(findings, checkTodos(src, lines)...)
	return findings
}

func antiPattern(src Source, line Line, category, msg string, sev model.Severity) Finding {
	return Finding{
		Pass:     "anti_patterns",
		File:     src.Name,
		Line:     line.Num,
		Category: category,
		Message:  fmt.Sprintf("%s: %s", msg, strings.TrimSpace(line.Text)),
		Severity: sev,
	}
}

func checkBroadExceptions(src Source, lines []Line) []Finding {
	var findings []Finding
	for _, line := range lines {
		for _, pat := range broadExceptPatterns {
			if pat.MatchString(line.Text) {
				findings = append(findings, antiPattern(src, line, "failure handling",
					"Broad exception handling hides the error", model.SeverityMedium))
				break
			}
		}
	}
	return findings
}

func checkIgnoredErrors(src Source, lines []Line) []Finding {
	pats := ignoredErrorPatterns[src.Language]
	var findings []Finding
	for _, line := range lines {
		if isComment(src.Language, strings.TrimSpace(line.Text)) {
			continue
		}
		for _, pat := range pats {
			if pat.MatchString(line.Text) {
				findings = append(findings, antiPattern(src, line, "failure handling",
					"Error is discarded or escalated to a crash", model.SeverityMedium))
				break
			}
		}
	}
	return findings
}

func checkCommentedCode(src Source, lines []Line) []Finding {
	var findings []Finding
	for _, line := range lines {
		for _, pat := range commentedCodePatterns {
			if pat.MatchString(line.Text) {
				findings = append(findings, antiPattern(src, line, "maintainability",
					"Commented-out code", model.SeverityLow))
				break
			}
		}
	}
	return findings
}

func checkDebugOutput(src Source, lines []Line) []Finding {
	pat, ok := debugPatterns[src.Language]
	if !ok {
		return nil
	}
	var findings []Finding
	for _, line := range lines {
		if isComment(src.Language, strings.TrimSpace(line.Text)) {
			continue
		}
		if pat.MatchString(line.Text) {
			findings = append(findings, antiPattern(src, line, "maintainability",
				"Debug output; consider using a logger", model.SeverityLow))
		}
	}
	return findings
}

func checkTodos(src Source, lines []Line) []Finding {
	var findings []Finding
	for _, line := range lines {
		if marker := todoPattern.FindString(line.Text); marker != "" {
			findings = append(findings, antiPattern(src, line, "maintainability",
				fmt.Sprintf("Unresolved %s marker", marker), model.SeverityLow))
		}
	}
	return findings
}

// DuplicationPass looks for repeated blocks within a snippet. It uses a
// sliding window of N significant lines and looks for repeated hashes.
func DuplicationPass(src Source) []Finding {
	const windowSize = 4

	var significant []Line
	for _, line := range src.Lines() {
		trimmed := strings.TrimSpace(line.Text)
		// Skip trivial lines
		if trimmed != "" && trimmed != "{" && trimmed != "}" && trimmed != ")" && trimmed != "(" {
			significant = append(significant, Line{Num: line.Num, Text: trimmed})
		}
	}

	first := make(map[string]int) // hash -> line of first occurrence
	var findings []Finding
	lastReported := 0

	for i := 0; i+windowSize <= len(significant); i++ {
		window := make([]string, windowSize)
		for j := range window {
			window[j] = significant[i+j].Text
		}
		h := hashBlock(window)
		start := significant[i].Num

		firstLine, seen := first[h]
		if !seen {
			first[h] = start
			continue
		}
		// one finding per duplicated run
		if lastReported > 0 && start <= lastReported+windowSize {
			lastReported = start
			continue
		}
		lastReported = start
		findings = append(findings, Finding{
			Pass:     "duplication",
			File:     src.Name,
			Line:     start,
			Category: "duplication",
			Message:  fmt.Sprintf("Near-duplicate code block (also at line %d)", firstLine),
			Severity: model.SeverityMedium,
		})
	}

	return findings
}

func hashBlock(lines []string) string {
	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
