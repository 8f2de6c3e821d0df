package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sprite-ai/reviewdesk/internal/client"
	"github.com/sprite-ai/reviewdesk/internal/diff"
	"github.com/sprite-ai/reviewdesk/internal/model"
	"github.com/sprite-ai/reviewdesk/internal/reviewstate"
)

var checkCmd = &cobra.Command{
	Use:   "check [file|-]",
	Short: "Review code and print the result (non-interactive)",
	Long: `Submit a file, or stdin, for review and print the severity, review and
suggestions. Useful for CI, pre-commit hooks, and piping into other tools.

With --patch the input is a unified diff: the added lines of each file are
reviewed in one batch, with the language taken from the file name. --git reads
the diff from git instead of the input.

Exit codes:
  0  low severity, or nothing to review
  1  medium severity, or the review failed
  2  high or critical severity`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("language", "l", "", "language of the code (default: from the file name, then config)")
	checkCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
	checkCmd.Flags().Bool("patch", false, "treat the input as a unified diff")
	checkCmd.Flags().String("git", "", "review the added lines of git diff against `range` (HEAD when given without a value)")
	checkCmd.Flags().Lookup("git").NoOptDefVal = "HEAD"
}

// checkEntry is the outcome for one reviewed snippet. Exactly one of Result
// and Error is set.
type checkEntry struct {
	File     string              `json:"file,omitempty"`
	Language model.Language      `json:"language"`
	Result   *model.ReviewResult `json:"result,omitempty"`
	Error    string              `json:"error,omitempty"`
}

type checkReport struct {
	Reviews []checkEntry `json:"reviews"`
	Skipped []string     `json:"skipped,omitempty"`
}

// exitCode maps the report onto the documented process status.
func (r *checkReport) exitCode() int {
	code := 0
	for _, e := range r.Reviews {
		switch {
		case e.Error != "":
			code = max(code, 1)
		case e.Result.Rank() >= model.SeverityHigh:
			code = 2
		case e.Result.Rank() == model.SeverityMedium:
			code = max(code, 1)
		}
	}
	return code
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q (want text, json or markdown)", format)
	}

	langFlag, _ := cmd.Flags().GetString("language")
	patch, _ := cmd.Flags().GetBool("patch")
	c := newClient()

	var (
		report *checkReport
		err    error
	)
	switch {
	case cmd.Flags().Changed("git"):
		gitRange, _ := cmd.Flags().GetString("git")
		report, err = checkGit(cmd.Context(), c, gitRange)
	case patch:
		raw, rerr := readInput(cmd, args)
		if rerr != nil {
			return rerr
		}
		report, err = checkDiff(cmd.Context(), c, raw)
	default:
		path := ""
		if len(args) == 1 && args[0] != "-" {
			path = args[0]
		}
		lang, lerr := resolveLanguage(langFlag, path)
		if lerr != nil {
			return lerr
		}
		code, rerr := readInput(cmd, args)
		if rerr != nil {
			return rerr
		}
		report = checkSnippet(cmd.Context(), c, path, lang, code)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		err = outputJSON(out, report)
	case "markdown":
		err = outputMarkdown(out, report)
	default:
		err = outputText(out, report)
	}
	if err != nil {
		return err
	}

	if code := report.exitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// checkSnippet runs a single submission through the same lifecycle as the
// interactive client, so blank input fails locally without a request.
func checkSnippet(ctx context.Context, c *client.Client, name string, lang model.Language, code string) *checkReport {
	session := reviewstate.NewSession(lang)
	session.SetCode(code)

	if ticket, ok := session.Submit(); ok {
		res, err := c.Review(ctx, ticket.Request)
		if err != nil {
			log.Error().Err(err).Str("kind", client.Kind(err)).Str("file", name).Msg("review failed")
		}
		session.Resolve(ticket, res, err)
	}

	entry := checkEntry{File: name, Language: session.Language()}
	state := session.State()
	if res, ok := state.Result(); ok {
		entry.Result = &res
	} else if msg, ok := state.Message(); ok {
		entry.Error = msg
	}
	return &checkReport{Reviews: []checkEntry{entry}}
}

// checkDiff reviews the added lines of every reviewable file in a unified
// diff with one batch request.
func checkDiff(ctx context.Context, c *client.Client, raw string) (*checkReport, error) {
	if strings.TrimSpace(raw) == "" {
		return &checkReport{}, nil
	}

	ds, err := diff.Parse(raw)
	if err != nil {
		return nil, err
	}

	snippets, skipped := ds.Snippets()
	report := &checkReport{Skipped: skipped}
	if len(snippets) == 0 {
		return report, nil
	}

	reqs := make([]model.ReviewRequest, len(snippets))
	for i, s := range snippets {
		reqs[i] = s.Request()
	}

	files, added, deleted := ds.Stats()
	log.Info().Int("files", files).Int("added", added).Int("deleted", deleted).
		Int("snippets", len(snippets)).Msg("submitting batch review")

	resp, err := c.BatchReview(ctx, reqs)
	if err != nil {
		log.Error().Err(err).Str("kind", client.Kind(err)).Msg("batch review failed")
	}

	for i, s := range snippets {
		entry := checkEntry{File: s.File, Language: s.Language}
		switch {
		case err != nil:
			entry.Error = client.Message(err)
		case i >= len(resp.Reviews):
			entry.Error = client.GenericFailure
		case resp.Reviews[i].Failed():
			entry.Error = resp.Reviews[i].Error
		default:
			res := resp.Reviews[i].ReviewResult
			entry.Result = &res
		}
		report.Reviews = append(report.Reviews, entry)
	}
	return report, nil
}

func checkGit(ctx context.Context, c *client.Client, gitRange string) (*checkReport, error) {
	repoDir, err := gitRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}

	var args []string
	if gitRange != "" {
		args = append(args, gitRange)
	}
	raw, err := diff.GitDiff(repoDir, args...)
	if err != nil {
		return nil, err
	}
	return checkDiff(ctx, c, raw)
}

// readInput returns the named file, or stdin when the argument is "-" or
// absent.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}

func outputText(w io.Writer, report *checkReport) error {
	if len(report.Reviews) == 0 {
		fmt.Fprintln(w, "No reviewable changes.")
	}

	for i, e := range report.Reviews {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if e.File != "" {
			fmt.Fprintf(w, "== %s (%s) ==\n", e.File, e.Language.Label())
		}
		if e.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", e.Error)
			continue
		}

		fmt.Fprintf(w, "Severity: %s\n\n", e.Result.SeverityLabel())
		fmt.Fprintln(w, strings.TrimSpace(e.Result.Review))
		if e.Result.HasSuggestions() {
			fmt.Fprintln(w, "\nSuggestions:")
			for _, s := range e.Result.Suggestions {
				fmt.Fprintf(w, "  - %s\n", s)
			}
		}
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped: %s\n", strings.Join(report.Skipped, ", "))
	}
	return nil
}

func outputJSON(w io.Writer, report *checkReport) error {
	if report.Reviews == nil {
		report.Reviews = []checkEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func outputMarkdown(w io.Writer, report *checkReport) error {
	var b strings.Builder
	b.WriteString("# Code Review\n\n")

	if len(report.Reviews) == 0 {
		b.WriteString("No reviewable changes.\n")
	}

	for _, e := range report.Reviews {
		if e.File != "" {
			fmt.Fprintf(&b, "## `%s` (%s)\n\n", e.File, e.Language.Label())
		}
		if e.Error != "" {
			fmt.Fprintf(&b, "**Error:** %s\n\n", e.Error)
			continue
		}

		fmt.Fprintf(&b, "**Severity:** %s\n\n", e.Result.SeverityLabel())
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(e.Result.Review))
		if e.Result.HasSuggestions() {
			b.WriteString("### Suggestions\n\n")
			for _, s := range e.Result.Suggestions {
				fmt.Fprintf(&b, "- %s\n", s)
			}
			b.WriteString("\n")
		}
	}

	if len(report.Skipped) > 0 {
		b.WriteString("**Skipped:** ")
		for i, s := range report.Skipped {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "`%s`", s)
		}
		b.WriteString("\n")
	}

	return writeMarkdown(w, b.String())
}

// writeMarkdown renders md for the terminal when w is one, and writes the raw
// markdown otherwise.
func writeMarkdown(w io.Writer, md string) error {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		_, err := io.WriteString(w, md)
		return err
	}

	width := 100
	if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
		width = tw
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("creating markdown renderer: %w", err)
	}

	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func gitRepoRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
