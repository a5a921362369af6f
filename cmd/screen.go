package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spigell/hireflow/internal/audit"
	"github.com/spigell/hireflow/internal/domain"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	PromptApprove = "Approve"
	PromptReject  = "Reject"
	PromptSkip    = "Skip"
)

var reviewPrompt = promptui.Select{
	Label: "Low confidence result. Reviewer decision?",
	Items: []string{PromptApprove, PromptReject, PromptSkip},
}

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen a resume file against a job description file",
	Run: func(cmd *cobra.Command, _ []string) {
		screen(cmd)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringP("resume", "r", "", "plain text resume file")
	screenCmd.Flags().String("job", "", "job description JSON file with required_skills and required_years")
	screenCmd.Flags().BoolP("interactive", "i", false, "ask a reviewer to decide when human review is required")

	screenCmd.MarkFlagRequired("resume")
	screenCmd.MarkFlagRequired("job")
}

func screen(cmd *cobra.Command) {
	ctx := context.Background()

	rt := bootstrap(ctx)
	defer rt.close()

	resumePath, _ := cmd.Flags().GetString("resume")
	jobPath, _ := cmd.Flags().GetString("job")
	interactive, _ := cmd.Flags().GetBool("interactive")

	sub, err := readSubmission(resumePath, jobPath)
	if err != nil {
		rt.logger.Fatal("reading the submission", zap.Error(err))
	}

	record, err := rt.screening().Screen(ctx, sub)
	if err != nil {
		rt.logger.Fatal("screening the resume", zap.Error(err))
	}

	pretty, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		rt.logger.Fatal("encoding the result", zap.Error(err))
	}
	fmt.Println(string(pretty))

	if !interactive || !record.HumanReviewRequired {
		return
	}

	_, decision, err := reviewPrompt.Run()
	if err != nil {
		rt.logger.Fatal("exiting", zap.Error(err))
	}

	if decision == PromptSkip {
		rt.logger.Info("review skipped", zap.String("candidate_id", record.CandidateID))
		return
	}

	if err := recordReview(ctx, rt.recorder, record, rt.config.PromptVersion, decision); err != nil {
		rt.logger.Fatal("recording the review", zap.Error(err))
	}

	rt.logger.Info("review recorded",
		zap.String("candidate_id", record.CandidateID),
		zap.String("decision", decision),
	)
}

func readSubmission(resumePath, jobPath string) (domain.Submission, error) {
	resume, err := os.ReadFile(resumePath)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("read resume: %w", err)
	}

	raw, err := os.ReadFile(jobPath)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("read job description: %w", err)
	}

	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return domain.Submission{}, fmt.Errorf("parse job description %s: %w", jobPath, err)
	}

	return domain.Submission{ResumeText: string(resume), Job: &job}, nil
}

func recordReview(ctx context.Context, rec *audit.Recorder, record *domain.Record, version, decision string) error {
	return rec.Record(ctx, audit.Event{
		Type:           audit.TypeHumanReview,
		CandidateID:    record.CandidateID,
		PromptVersion:  version,
		RequiresReview: audit.Bool(record.HumanReviewRequired),
		Output:         map[string]any{"decision": decision},
		Details: map[string]any{
			"role_fit":   record.Screening.Scores.RoleFit,
			"confidence": record.Screening.Scores.Confidence,
		},
	})
}
