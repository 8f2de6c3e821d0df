package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/reviewdesk/internal/config"
	"github.com/sprite-ai/reviewdesk/internal/model"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"review", "check", "ping", "serve", "version"} {
		assert.True(t, names[want], "root command missing subcommand %q", want)
	}
}

func TestVersionOutput(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "reviewdesk dev")
}

// resetFlags restores every flag to its default between executions of the
// shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvAPIURL, "")
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))

	dir := t.TempDir()
	rootCmd.SetArgs(append(args,
		"--config", filepath.Join(dir, "missing.yaml"),
		"--log-file", filepath.Join(dir, "reviewdesk.log"),
	))

	err := rootCmd.ExecuteContext(context.Background())
	closeLogs()
	return out.String(), err
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return -1
}

// reviewService fakes the review endpoints; review decides each response.
func reviewService(t *testing.T, hits *atomic.Int32, review func(model.ReviewRequest) (int, any)) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /review", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var req model.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status, body := review(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("POST /batch-review", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var reqs []model.ReviewRequest
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := model.BatchResponse{}
		for _, req := range reqs {
			_, body := review(req)
			res, _ := body.(model.ReviewResult)
			resp.Reviews = append(resp.Reviews, model.BatchItem{ReviewResult: res})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(model.HealthStatus{Status: "healthy", Service: "Code Review Agent"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCheck_SingleSnippet(t *testing.T) {
	var hits atomic.Int32
	seen := make(chan model.ReviewRequest, 1)
	srv := reviewService(t, &hits, func(req model.ReviewRequest) (int, any) {
		seen <- req
		return http.StatusOK, model.ReviewResult{
			Review:        "Consider naming the loop variable.",
			SeverityLevel: "medium",
			Suggestions:   []string{"Consider naming the loop variable."},
		}
	})

	out, err := execute(t, "for i in range(3): print(i)\n", "check", "-", "--language", "rust", "--api-url", srv.URL)

	assert.Equal(t, 1, exitCodeOf(err), "medium severity exits 1")
	require.Len(t, seen, 1)
	assert.Equal(t, model.LangRust, (<-seen).Language)
	assert.Contains(t, out, "Severity: MEDIUM")
	assert.Contains(t, out, "  - Consider naming the loop variable.")
}

func TestCheck_BlankInputFailsWithoutRequest(t *testing.T) {
	var hits atomic.Int32
	srv := reviewService(t, &hits, func(model.ReviewRequest) (int, any) {
		return http.StatusOK, model.ReviewResult{Review: "unused"}
	})

	out, err := execute(t, "  \n\t", "check", "--api-url", srv.URL)

	assert.Equal(t, 1, exitCodeOf(err))
	assert.Contains(t, out, "Error: Please enter some code to review")
	assert.Zero(t, hits.Load())
}

func TestCheck_RemoteDetailIsShown(t *testing.T) {
	var hits atomic.Int32
	srv := reviewService(t, &hits, func(model.ReviewRequest) (int, any) {
		return http.StatusBadRequest, model.ErrorPayload{Detail: "Code exceeds 10000 characters"}
	})

	out, err := execute(t, "x = 1", "check", "--api-url", srv.URL)

	assert.Equal(t, 1, exitCodeOf(err))
	assert.Contains(t, out, "Error: Code exceeds 10000 characters")
}

func TestCheck_JSONHighSeverity(t *testing.T) {
	var hits atomic.Int32
	srv := reviewService(t, &hits, func(model.ReviewRequest) (int, any) {
		return http.StatusOK, model.ReviewResult{Review: "SQL injection", SeverityLevel: "critical"}
	})

	out, err := execute(t, "query = 'SELECT ' + name", "check", "--format", "json", "--api-url", srv.URL)
	assert.Equal(t, 2, exitCodeOf(err))

	var report checkReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Reviews, 1)
	assert.Equal(t, model.LangPython, report.Reviews[0].Language, "config default language")
	require.NotNil(t, report.Reviews[0].Result)
	assert.Equal(t, "CRITICAL", report.Reviews[0].Result.SeverityLabel())
}

func TestCheck_MarkdownToBuffer(t *testing.T) {
	var hits atomic.Int32
	srv := reviewService(t, &hits, func(model.ReviewRequest) (int, any) {
		return http.StatusOK, model.ReviewResult{Review: "Fine.", SeverityLevel: "low"}
	})

	out, err := execute(t, "fn main() {}", "check", "-l", "rust", "-f", "markdown", "--api-url", srv.URL)

	require.NoError(t, err)
	assert.Contains(t, out, "# Code Review")
	assert.Contains(t, out, "**Severity:** LOW")
}

const checkPatch = `diff --git a/main.go b/main.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/main.go
@@ -0,0 +1,3 @@
+package main
+
+func main() {}
diff --git a/README.md b/README.md
index 1111111..2222222 100644
--- a/README.md
+++ b/README.md
@@ -1 +1,2 @@
 # demo
+More text.
`

func TestCheck_PatchUsesBatchReview(t *testing.T) {
	var hits atomic.Int32
	seen := make(chan model.Language, 4)
	srv := reviewService(t, &hits, func(req model.ReviewRequest) (int, any) {
		seen <- req.Language
		return http.StatusOK, model.ReviewResult{Review: "Looks fine.", SeverityLevel: "low"}
	})

	out, err := execute(t, checkPatch, "check", "--patch", "--api-url", srv.URL)

	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "one batch request")
	require.Len(t, seen, 1)
	assert.Equal(t, model.LangGo, <-seen)
	assert.Contains(t, out, "== main.go (Go) ==")
	assert.Contains(t, out, "Skipped: README.md")
}

func TestCheck_UnknownFormat(t *testing.T) {
	_, err := execute(t, "x", "check", "--format", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestPing(t *testing.T) {
	var hits atomic.Int32
	srv := reviewService(t, &hits, func(model.ReviewRequest) (int, any) { return http.StatusOK, nil })

	out, err := execute(t, "", "ping", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "Code Review Agent at "+srv.URL+" is healthy")
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out, err := execute(t, "", "ping", "--api-url", url)
	assert.Equal(t, 1, exitCodeOf(err))
	assert.Contains(t, out, "is unreachable")
}

func TestInvalidAPIURL(t *testing.T) {
	_, err := execute(t, "", "version", "--api-url", "not a url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_url")
}

func TestReportExitCode(t *testing.T) {
	result := func(level string) *model.ReviewResult {
		return &model.ReviewResult{Review: "r", SeverityLevel: level}
	}

	tests := []struct {
		name    string
		entries []checkEntry
		want    int
	}{
		{"nothing reviewed", nil, 0},
		{"low", []checkEntry{{Result: result("low")}}, 0},
		{"missing level counts as low", []checkEntry{{Result: result("")}}, 0},
		{"medium", []checkEntry{{Result: result("medium")}}, 1},
		{"failure", []checkEntry{{Error: "boom"}}, 1},
		{"high", []checkEntry{{Result: result("high")}}, 2},
		{"critical beats failure", []checkEntry{{Error: "boom"}, {Result: result("critical")}}, 2},
		{"failure after high", []checkEntry{{Result: result("high")}, {Error: "boom"}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &checkReport{Reviews: tt.entries}
			assert.Equal(t, tt.want, r.exitCode())
		})
	}
}
