package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/advocai-go/internal/metrics"
	"github.com/raphaelgruber/advocai-go/internal/ui"
)

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status    lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
	User      lipgloss.Color
	Assistant lipgloss.Color
	Border    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:    lipgloss.Color("#5FAFD7"), // light blue
	Success:   lipgloss.Color("#00D787"), // green
	Error:     lipgloss.Color("#FF005F"), // red
	Hint:      lipgloss.Color("#6C6C6C"), // dim gray
	User:      lipgloss.Color("#D7AF5F"), // amber
	Assistant: lipgloss.Color("#5FAFD7"), // light blue
	Border:    lipgloss.Color("#3A3A3A"), // dark gray
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) senderStyle(fromUser bool) lipgloss.Style {
	if fromUser {
		return lipgloss.NewStyle().Foreground(t.User).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(t.Assistant).Bold(true)
}

func (t Theme) documentStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)
}

// noticeLine renders a notice with a level marker.
func (t Theme) noticeLine(n ui.Notice) string {
	switch n.Level {
	case ui.LevelSuccess:
		return t.successStyle().Render("✓ " + n.Text)
	case ui.LevelError:
		return t.errorStyle().Render("✗ " + n.Text)
	default:
		return t.statusStyle().Render("• " + n.Text)
	}
}

// ===== NOTICES AND NAVIGATION =====

// termNotifier prints notices to the terminal.
type termNotifier struct {
	mu    sync.Mutex
	w     io.Writer
	theme Theme
}

func (n *termNotifier) Notify(notice ui.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, n.theme.noticeLine(notice))
}

// relayNotifier forwards notices to a target that can be switched, so a
// view keeps its notifier when the chat screen takes over the terminal.
type relayNotifier struct {
	mu     sync.Mutex
	target ui.Notifier
}

func (n *relayNotifier) Notify(notice ui.Notice) {
	n.mu.Lock()
	target := n.target
	n.mu.Unlock()
	target.Notify(notice)
}

// Switch sends all further notices to target.
func (n *relayNotifier) Switch(target ui.Notifier) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = target
}

// hintNavigator turns navigations into a hint naming the next command.
type hintNavigator struct {
	mu    sync.Mutex
	w     io.Writer
	theme Theme
}

func (n *hintNavigator) Navigate(r ui.Route) {
	cmd := CommandFor(r)
	if cmd == "" {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, n.theme.hintStyle().Render("→ next: "+cmd))
}

// CommandFor returns the command that opens the screen r points to.
func CommandFor(r ui.Route) string {
	switch r.Page {
	case ui.PageHome:
		return "advocai --help"
	case ui.PageLogin:
		return "advocai login"
	case ui.PageSignup:
		return "advocai signup"
	case ui.PageVerifyOTP:
		if r.Email != "" {
			return "advocai verify-otp --email " + r.Email
		}
		return "advocai verify-otp"
	case ui.PageProfile:
		return "advocai profile"
	case ui.PageGenerate:
		return "advocai generate"
	case ui.PageEditor:
		s := "advocai generate --conversation " + r.ID
		if r.Version > 0 {
			s += " --version " + strconv.Itoa(r.Version)
		}
		return s
	case ui.PageAnalyzer:
		if r.ID != "" {
			return "advocai analyze open " + r.ID
		}
		return "advocai analyze <file>"
	case ui.PageDocuments:
		return "advocai docs"
	case ui.PageVersions:
		return "advocai docs versions " + r.ID
	case ui.PageLawyers:
		if r.ID != "" {
			return "advocai lawyers show " + r.ID
		}
		return "advocai lawyers"
	default:
		return ""
	}
}

// ===== PROMPTS =====

// confirm asks a y/N question on stdin.
func confirm(w io.Writer, r io.Reader, question string) func() bool {
	return func() bool {
		fmt.Fprintf(w, "%s [y/N]: ", question)

		reader := bufio.NewReader(r)
		response, err := reader.ReadString('\n')
		if err != nil && response == "" {
			return false
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(w, "Cancelled.")
			return false
		}
		return true
	}
}

// promptLine reads one line after printing label.
func promptLine(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

var stdinReader = bufio.NewReader(os.Stdin)

// ===== STATISTICS =====

// printStats displays per-endpoint request statistics.
func printStats(w io.Writer, s metrics.Snapshot) {
	requests, failures := s.Totals()
	fmt.Fprintf(w, "\nRequest Statistics (this run)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds, requests: %d, failures: %d\n", s.UptimeSeconds, requests, failures)

	for _, e := range s.Endpoints {
		fmt.Fprintf(w, "\n%s:\n", e.Endpoint)
		printEndpointStats(w, e)
	}
}

// printEndpointStats displays timing statistics for an endpoint.
func printEndpointStats(w io.Writer, e metrics.EndpointSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Failures: %d, Total: %dms\n", e.Count, e.Failures, e.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n", e.AvgTimeMs, e.MinTimeMs, e.MaxTimeMs)
	if len(e.Statuses) == 0 {
		return
	}
	codes := make([]int, 0, len(e.Statuses))
	for code := range e.Statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		label := strconv.Itoa(code)
		if code == 0 {
			label = "transport error"
		}
		parts = append(parts, fmt.Sprintf("%s×%d", label, e.Statuses[code]))
	}
	fmt.Fprintf(w, "  Statuses: %s\n", strings.Join(parts, ", "))
}
