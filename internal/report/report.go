package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-cs-forecast/internal/features"
	"github.com/pable/go-cs-forecast/internal/model"
	"github.com/pable/go-cs-forecast/internal/storage"
)

const dateFmt = "2006-01-02"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintMatchTable prints stored matches with both sides' per-match stats.
func PrintMatchTable(w io.Writer, matches []model.Match) {
	table := newTable(w)
	table.Header("ID", "DATE", "TT", "BO", "TEAM_A", "TEAM_B", "WINNER",
		"RTG_A", "RTG_B", "KDA_A", "KDA_B", "KAST_A", "KAST_B", "ADR_A", "ADR_B")
	for _, m := range matches {
		winner, _ := m.Winner()
		table.Append(
			strconv.FormatInt(m.MatchID, 10),
			m.Date.Format(dateFmt),
			strconv.Itoa(m.TournamentType),
			strconv.Itoa(m.BestOf),
			m.TeamA,
			m.TeamB,
			winner,
			fmt.Sprintf("%.2f", m.StatsA.Rating),
			fmt.Sprintf("%.2f", m.StatsB.Rating),
			fmt.Sprintf("%.2f", m.StatsA.KDA),
			fmt.Sprintf("%.2f", m.StatsB.KDA),
			fmt.Sprintf("%.1f%%", m.StatsA.KAST),
			fmt.Sprintf("%.1f%%", m.StatsB.KAST),
			fmt.Sprintf("%.1f", m.StatsA.ADR),
			fmt.Sprintf("%.1f", m.StatsB.ADR),
		)
	}
	table.Render()
}

// PrintFeatureTable prints feature rows. A "*" marks rows with imputed inputs.
func PrintFeatureTable(w io.Writer, rows []model.FeatureVector) {
	table := newTable(w)
	table.Header(" ", "MATCH", "TT", "BO", "RANK_DIFF", "HTH", "RTG_DIFF", "KDA_DIFF", "KAST_DIFF", "ADR_DIFF", "LABEL")
	for _, r := range rows {
		marker := " "
		if r.Imputed {
			marker = "*"
		}
		label := strconv.Itoa(r.Label)
		if r.Label == model.LabelPending {
			label = "?"
		}
		table.Append(
			marker,
			strconv.FormatInt(r.MatchID, 10),
			strconv.Itoa(r.TournamentType),
			strconv.Itoa(r.BestOf),
			fmt.Sprintf("%+.3f", r.RankingDiff),
			fmt.Sprintf("%+d", r.HTHDiff),
			fmt.Sprintf("%+.3f", r.RatingDiff),
			fmt.Sprintf("%+.3f", r.KDADiff),
			fmt.Sprintf("%+.2f", r.KASTDiff),
			fmt.Sprintf("%+.2f", r.ADRDiff),
			label,
		)
	}
	table.Render()
}

// PrintLiveTable prints live rows next to the pending matches they came from.
func PrintLiveTable(w io.Writer, rows []features.LiveRow) {
	table := newTable(w)
	table.Header("DATE", "TEAM_A", "TEAM_B", "BO", "RANK_DIFF", "HTH", "RTG_DIFF", "KDA_DIFF", "KAST_DIFF", "ADR_DIFF")
	for _, lr := range rows {
		p, r := lr.Match, lr.Row
		table.Append(
			p.Date.Format(dateFmt),
			p.TeamA,
			p.TeamB,
			strconv.Itoa(r.BestOf),
			fmt.Sprintf("%+.3f", r.RankingDiff),
			fmt.Sprintf("%+d", r.HTHDiff),
			fmt.Sprintf("%+.3f", r.RatingDiff),
			fmt.Sprintf("%+.3f", r.KDADiff),
			fmt.Sprintf("%+.2f", r.KASTDiff),
			fmt.Sprintf("%+.2f", r.ADRDiff),
		)
	}
	table.Render()
}

// PrintSkipTable lists skipped matches and why.
func PrintSkipTable(w io.Writer, skips []model.Skip) {
	table := newTable(w)
	table.Header("MATCH", "REASON", "DETAIL")
	for _, s := range skips {
		table.Append(strconv.FormatInt(s.MatchID, 10), string(s.Reason), s.Detail)
	}
	table.Render()
}

// PrintSkipSummary prints skip totals by reason, largest first.
func PrintSkipSummary(w io.Writer, skips []model.Skip) {
	counts := make(map[model.Reason]int)
	for _, s := range skips {
		counts[s.Reason]++
	}
	reasons := make([]model.Reason, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool {
		if counts[reasons[i]] != counts[reasons[j]] {
			return counts[reasons[i]] > counts[reasons[j]]
		}
		return reasons[i] < reasons[j]
	})

	table := newTable(w)
	table.Header("REASON", "MATCHES")
	for _, r := range reasons {
		table.Append(string(r), strconv.Itoa(counts[r]))
	}
	table.Render()
}

// PrintTeamWindow prints the matches in a team's rolling window and their average.
func PrintTeamWindow(w io.Writer, win features.TeamWindow) {
	rank := "n/a"
	if win.Ranking != nil {
		rank = fmt.Sprintf("#%d (%s)", win.Ranking.Rank, win.Ranking.Date.Format(dateFmt))
	}
	fmt.Fprintf(w, "\nTeam: %s  |  Before: %s  |  Ranking: %s  |  Window: %d matches\n\n",
		win.Team, win.At.Format(dateFmt), rank, len(win.Recent))

	table := newTable(w)
	table.Header("DATE", "MATCH", "OPPONENT", "RATING", "KDA", "KAST%", "ADR")
	for _, e := range win.Recent {
		table.Append(
			e.Key.Date.Format(dateFmt),
			strconv.FormatInt(e.Key.MatchID, 10),
			e.Opponent,
			fmt.Sprintf("%.2f", e.Stats.Rating),
			fmt.Sprintf("%.2f", e.Stats.KDA),
			fmt.Sprintf("%.1f", e.Stats.KAST),
			fmt.Sprintf("%.1f", e.Stats.ADR),
		)
	}
	if win.Stats != nil {
		table.Footer(
			"AVG", "", strconv.Itoa(win.Stats.Matches),
			fmt.Sprintf("%.2f", win.Stats.Rating),
			fmt.Sprintf("%.2f", win.Stats.KDA),
			fmt.Sprintf("%.1f", win.Stats.KAST),
			fmt.Sprintf("%.1f", win.Stats.ADR),
		)
	}
	table.Render()
}

// PrintRunTable lists stored feature runs.
func PrintRunTable(w io.Writer, runs []storage.Run) {
	table := newTable(w)
	table.Header("RUN", "CREATED", "KIND", "POLICY", "WINDOW", "RANKING", "SEQUENCED", "ROWS", "SKIPPED")
	for _, r := range runs {
		table.Append(
			r.ID[:8],
			r.CreatedAt.Local().Format(time.DateTime),
			r.Kind,
			r.Policy,
			strconv.Itoa(r.Window),
			r.RankingMode,
			strconv.Itoa(r.Sequenced),
			strconv.Itoa(r.RowCount),
			strconv.Itoa(r.SkipCount),
		)
	}
	table.Render()
}

// PrintOverview prints the one-line database summary.
func PrintOverview(w io.Writer, o storage.Overview) {
	span := "n/a"
	if o.Matches > 0 {
		span = o.First.Format(dateFmt) + " → " + o.Last.Format(dateFmt)
	}
	fmt.Fprintf(w, "Matches: %d  |  Teams: %d  |  Span: %s  |  Pending: %d  |  Rankings: %d  |  Demos: %d  |  Runs: %d\n",
		o.Matches, o.Teams, span, o.Pending, o.Rankings, o.Demos, o.Runs)
}

// WriteCSV writes rows with a header line in column order.
func WriteCSV(w io.Writer, rows []model.FeatureVector) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes rows and skips as one indented document.
func WriteJSON(w io.Writer, rows []model.FeatureVector, skips []model.Skip) error {
	if rows == nil {
		rows = []model.FeatureVector{}
	}
	if skips == nil {
		skips = []model.Skip{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Columns []string              `json:"columns"`
		Rows    []model.FeatureVector `json:"rows"`
		Skipped []model.Skip          `json:"skipped"`
	}{model.Columns, rows, skips})
}
