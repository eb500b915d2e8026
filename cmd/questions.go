package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tawjihi/mathbot/internal/rotation"
	"github.com/tawjihi/mathbot/internal/store"
	"github.com/tawjihi/mathbot/internal/ui/theme"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Inspect and maintain the question store",
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions in posting order",
	RunE: func(cmd *cobra.Command, args []string) error {
		unusedOnly, _ := cmd.Flags().GetBool("unused")

		set, err := loadQuestionSet(cmd)
		if err != nil {
			return err
		}

		printQuestions(cmd.OutOrStdout(), set, unusedOnly)
		return nil
	},
}

var questionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a question to the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, _ := cmd.Flags().GetString("text")
		qtype, _ := cmd.Flags().GetString("type")
		chapter, _ := cmd.Flags().GetString("chapter")
		source, _ := cmd.Flags().GetString("source")

		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("--text must not be empty")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		set, err := store.LoadQuestions(cfg.Store.Path)
		if err != nil {
			return err
		}

		q := set.Append(store.Question{
			Question: strings.TrimSpace(text),
			Type:     qtype,
			Chapter:  chapter,
			Source:   source,
		})
		if err := store.SaveQuestions(cfg.Store.Path, set); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added question %d (%d unused)\n", q.ID, set.Unused())
		return nil
	},
}

var questionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the question store",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadQuestionSet(cmd)
		if err != nil {
			return err
		}

		printQuestionStats(cmd.OutOrStdout(), summarize(set))
		return nil
	},
}

func init() {
	questionsListCmd.Flags().Bool("unused", false, "Show only questions not yet posted")

	questionsAddCmd.Flags().String("text", "", "Question text")
	questionsAddCmd.Flags().String("type", "", "Question type (default \"general\")")
	questionsAddCmd.Flags().String("chapter", "", "Chapter (default \"unspecified\")")
	questionsAddCmd.Flags().String("source", "", "Where the question comes from")
	_ = questionsAddCmd.MarkFlagRequired("text")

	questionsCmd.AddCommand(questionsListCmd)
	questionsCmd.AddCommand(questionsAddCmd)
	questionsCmd.AddCommand(questionsStatsCmd)
}

func loadQuestionSet(cmd *cobra.Command) (*store.QuestionSet, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return store.LoadQuestions(cfg.Store.Path)
}

func printQuestions(w io.Writer, set *store.QuestionSet, unusedOnly bool) {
	shown := 0
	fmt.Fprintf(w, "%-5s  %-4s  %-14s  %-18s  %s\n", "ID", "Used", "Type", "Chapter", "Question")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, q := range set.Questions {
		if unusedOnly && q.Used {
			continue
		}
		fmt.Fprintf(w, "%-5d  %-4s  %-14s  %-18s  %s\n",
			q.ID, theme.Mark(q.Used), truncateRunes(q.Type, 14), truncateRunes(q.Chapter, 18), truncateRunes(oneLine(q.Question), 40))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(w, theme.Dim.Render("No questions to show."))
	}
}

// questionStats summarizes a question set.
type questionStats struct {
	Total     int
	Used      int
	Unused    int
	Variants  int
	ByType    map[string]int
	ByChapter map[string]int
}

func summarize(set *store.QuestionSet) questionStats {
	st := questionStats{
		Total:     len(set.Questions),
		ByType:    map[string]int{},
		ByChapter: map[string]int{},
	}
	for _, q := range set.Questions {
		if q.Used {
			st.Used++
		} else {
			st.Unused++
		}
		if strings.HasSuffix(q.Source, rotation.VariantSuffix) {
			st.Variants++
		}
		st.ByType[q.Type]++
		st.ByChapter[q.Chapter]++
	}
	return st
}

func printQuestionStats(w io.Writer, st questionStats) {
	fmt.Fprintln(w, theme.Title.Render("Question store"))
	fmt.Fprintln(w, theme.Field("Total:", fmt.Sprint(st.Total)))
	fmt.Fprintln(w, theme.Field("Used:", fmt.Sprint(st.Used)))
	fmt.Fprintln(w, theme.Field("Unused:", fmt.Sprint(st.Unused)))
	fmt.Fprintln(w, theme.Field("Variants:", fmt.Sprint(st.Variants)))
	if st.Total > 0 && st.Unused == 0 {
		fmt.Fprintln(w, theme.Warning.Render("Pool exhausted: the next run will generate a variant."))
	}

	printCounts(w, "By type", st.ByType)
	printCounts(w, "By chapter", st.ByChapter)
}

func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	fmt.Fprintln(w, theme.Heading.Render(title))
	for _, k := range keys {
		fmt.Fprintf(w, "  %-24s %d\n", k, counts[k])
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes shortens s to max runes so multi-byte text is not split.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
