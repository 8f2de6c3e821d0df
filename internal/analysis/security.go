package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/reviewdesk/internal/model"
)

// Security-sensitive patterns grouped by category.
var securityPatterns = []struct {
	category string
	patterns []*regexp.Regexp
	severity model.Severity
}{
	{
		category: "hardcoded secret",
		patterns: compilePatterns(
			`(?i)(api.?key|secret|password|passwd|token)\w*\s*[:=]\s*["'][^"']{4,}["']`,
			`-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`,
		),
		severity: model.SeverityCritical,
	},
	{
		category: "TLS verification",
		patterns: compilePatterns(
			`(?i)(InsecureSkipVerify\s*:\s*true|verify\s*=\s*False|rejectUnauthorized\s*:\s*false|danger_accept_invalid_certs)`,
		),
		severity: model.SeverityCritical,
	},
	{
		category: "SQL injection",
		patterns: compilePatterns(
			`(?i)(SELECT|INSERT|UPDATE|DELETE)\b.*["']\s*(\+|%|\.format\()`,
			`(?i)(execute|query|exec)\w*\(\s*f["']`,
			`(?i)(execute|query|exec)\w*\(\s*["'].*\$\{`,
		),
		severity: model.SeverityCritical,
	},
	{
		category: "dynamic code execution",
		patterns: compilePatterns(
			`(?i)(^|[^\w.])(eval|exec)\s*\(`,
			`new\s+Function\s*\(`,
			`pickle\.loads?\(`,
		),
		severity: model.SeverityHigh,
	},
	{
		category: "subprocess",
		patterns: compilePatterns(
			`(?i)(exec\.Command|os\.system|subprocess\.|child_process|shell_exec|Runtime\.getRuntime\(\)\.exec|Process\.Start|std::process::Command|system\()`,
		),
		severity: model.SeverityHigh,
	},
	{
		category: "weak cryptography",
		patterns: compilePatterns(
			`(?i)\b(md5|sha1|des|rc4)\b\s*[.(]`,
			`(?i)math/rand|Math\.random\(\)|random\.random\(\)`,
		),
		severity: model.SeverityMedium,
	},
	{
		category: "unsafe memory",
		patterns: compilePatterns(
			`\b(strcpy|strcat|sprintf|gets)\s*\(`,
			`\bunsafe\s*\{`,
			`unsafe\.Pointer`,
		),
		severity: model.SeverityHigh,
	},
	{
		category: "path traversal",
		patterns: compilePatterns(
			`(?i)(path\.join|filepath\.join|os\.path\.join|Path\.Combine)\(.*(req|request|input|param)`,
			`\.\./`,
		),
		severity: model.SeverityMedium,
	},
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	var compiled []*regexp.Regexp
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// SecurityPass flags lines that touch security-sensitive APIs or embed
// secrets.
func SecurityPass(src Source) []Finding {
	var findings []Finding

	for _, line := range src.Lines() {
		trimmed := strings.TrimSpace(line.Text)
		if trimmed == "" || isComment(src.Language, trimmed) {
			continue
		}

		for _, sp := range securityPatterns {
			for _, re := range sp.patterns {
				if re.MatchString(line.Text) {
					findings = append(findings, Finding{
						Pass:     "security",
						File:     src.Name,
						Line:     line.Num,
						Category: sp.category,
						Message:  fmt.Sprintf("Security issue (%s): %s", sp.category, trimmed),
						Severity: sp.severity,
					})
					break // one finding per pattern group per line
				}
			}
		}
	}

	return deduplicateFindings(findings)
}

// deduplicateFindings removes findings with the same file+line+message.
func deduplicateFindings(findings []Finding) []Finding {
	seen := make(map[string]bool)
	var result []Finding
	for _, f := range findings {
		key := fmt.Sprintf("%s:%d:%s", f.File, f.Line, f.Message)
		if !seen[key] {
			seen[key] = true
			result = append(result, f)
		}
	}
	return result
}
