package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prmpt-academy/prmpt-api/internal/judge"
	"github.com/prmpt-academy/prmpt-api/internal/lesson"
)

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Judge one submission against a lesson file, without a server",
	Long: `Loads a YAML lesson file into memory and judges a single submission
against one of its lessons. Lesson ids follow file order, starting at 1.`,
	Example: `  prmptd judge --file lessons/seed.yaml --level 1 --prompt "Hello, World!"
  prmptd judge --file lessons/seed.yaml --level 8 --order 0,1,2,3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		level, _ := cmd.Flags().GetInt64("level")

		drafts, err := lesson.LoadSeedFile(path)
		if err != nil {
			return err
		}
		// every lesson is judgeable here, drafts included
		for i := range drafts {
			drafts[i].IsPublished = true
		}
		svc := lesson.NewService(lesson.NewInMemoryStore())
		if _, err := lesson.Seed(cmd.Context(), svc, drafts); err != nil {
			return err
		}

		req := judge.Request{LevelID: level}
		if cmd.Flags().Changed("prompt") {
			p, _ := cmd.Flags().GetString("prompt")
			req.UserPrompt = &p
		}
		req.Answers, _ = cmd.Flags().GetStringSlice("answers")
		req.Selected, _ = cmd.Flags().GetIntSlice("selected")
		req.UserOrder, _ = cmd.Flags().GetIntSlice("order")

		resp, err := judge.NewService(svc).Judge(cmd.Context(), "cli", req)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	judgeCmd.Flags().String("file", "lessons/seed.yaml", "YAML lesson file")
	judgeCmd.Flags().Int64("level", 1, "Lesson id (1-based position in the file)")
	judgeCmd.Flags().String("prompt", "", "Text answer (exact_match)")
	judgeCmd.Flags().StringSlice("answers", nil, "Blank answers in order (fill_blank)")
	judgeCmd.Flags().IntSlice("selected", nil, "Selected option indices (multiple_choice)")
	judgeCmd.Flags().IntSlice("order", nil, "Item indices in submitted order (reorder)")
}
