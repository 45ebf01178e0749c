package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-forecast/internal/features"
	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/report"
	"github.com/pable/go-cs-forecast/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session with history loaded once. Type 'help' for available
commands. Team names containing spaces can be quoted: window "The MongolZ"`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

type shellSession struct {
	db   *storage.DB
	live *features.Live
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	live, err := loadLive(db)
	if err != nil {
		return err
	}
	s := &shellSession{db: db, live: live}

	cGreeting.Println("csforecast shell")
	cMuted.Printf("%s; type 'help' or 'exit'\n", live)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("csforecast")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		tokens := splitArgs(scanner.Text())
		if len(tokens) == 0 {
			continue
		}
		cmd, args := tokens[0], tokens[1:]

		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "teams":
			s.teams()
		case "matches":
			s.matches(args)
		case "window":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: window <team> [date]")
				continue
			}
			s.window(args)
		case "h2h":
			if len(args) < 2 {
				cError.Fprintln(os.Stderr, "usage: h2h <team> <opponent> [date]")
				continue
			}
			s.h2h(args)
		case "live":
			if len(args) < 2 {
				cError.Fprintln(os.Stderr, "usage: live <team-a> <team-b> [date] [best-of]")
				continue
			}
			s.featurize(args)
		case "reload":
			s.reload()
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"teams", "list every team in history"},
		{"matches [team] [n]", "show the last n matches (default 10)"},
		{"window <team> [date]", "rolling window and ranking before date"},
		{"h2h <team> <opponent> [date]", "head-to-head record before date"},
		{"live <team-a> <team-b> [date] [bo]", "feature row for an upcoming match"},
		{"reload", "reload history from the database"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

// dateArg parses args[i] as a date, or returns now when absent.
func dateArg(args []string, i int) (time.Time, bool) {
	if i >= len(args) {
		return time.Now().UTC(), true
	}
	t, err := parseDay(args[i])
	if err != nil {
		cError.Fprintln(os.Stderr, err)
		return time.Time{}, false
	}
	return t, true
}

func (s *shellSession) teams() {
	teams := s.live.Teams()
	if len(teams) == 0 {
		cMuted.Println("No matches stored yet.")
		return
	}
	for _, t := range teams {
		fmt.Println("  " + t)
	}
	cMuted.Printf("(%d teams)\n", len(teams))
}

func (s *shellSession) matches(args []string) {
	n := 10
	var team string
	for _, a := range args {
		if v, err := strconv.Atoi(a); err == nil {
			n = v
			continue
		}
		team = a
	}
	all, err := s.db.ListMatches()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	var out []model.Match
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		if team == "" || all[i].Involves(team) {
			out = append(out, all[i])
		}
	}
	if len(out) == 0 {
		cMuted.Println("No matches.")
		return
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	report.PrintMatchTable(os.Stdout, out)
}

func (s *shellSession) window(args []string) {
	at, ok := dateArg(args, 1)
	if !ok {
		return
	}
	report.PrintTeamWindow(os.Stdout, s.live.Window(args[0], at))
}

func (s *shellSession) h2h(args []string) {
	at, ok := dateArg(args, 2)
	if !ok {
		return
	}
	a, b := s.live.HeadToHead(args[0], args[1], at)
	fmt.Fprintf(os.Stdout, "%s %d - %d %s", args[0], a, b, args[1])
	cMuted.Fprintf(os.Stdout, "  (before %s)\n", at.Format(time.DateOnly))
}

func (s *shellSession) featurize(args []string) {
	at, ok := dateArg(args, 2)
	if !ok {
		return
	}
	bo := 3
	if len(args) > 3 {
		v, err := strconv.Atoi(args[3])
		if err != nil {
			cError.Fprintf(os.Stderr, "invalid best-of %q\n", args[3])
			return
		}
		bo = v
	}
	pm := model.PendingMatch{Date: at, TournamentType: 1, BestOf: bo, TeamA: args[0], TeamB: args[1]}
	row, skip, err := s.live.Featurize(pm, time.Now().UTC())
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if skip != nil {
		cWarn.Fprintf(os.Stdout, "no row: %s (%s)\n", skip.Reason, skip.Detail)
		return
	}
	report.PrintLiveTable(os.Stdout, []features.LiveRow{{Match: pm, Row: row}})
}

func (s *shellSession) reload() {
	live, err := loadLive(s.db)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	s.live = live
	cMuted.Println(live.String())
}

// splitArgs splits a line on whitespace, keeping double-quoted runs together.
func splitArgs(line string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote bool
		inArg bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quote = !quote
			inArg = true
		case !quote && (r == ' ' || r == '\t'):
			if inArg {
				out = append(out, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		out = append(out, cur.String())
	}
	return out
}
