package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"scholarship-engine/internal/engine/features"
	"scholarship-engine/internal/engine/modelstore"
	"scholarship-engine/internal/engine/trainer"
	"scholarship-engine/internal/models"
	"scholarship-engine/internal/training"
)

// corpusFile is the on-disk training corpus.
type corpusFile struct {
	FeatureNames []string                 `json:"featureNames,omitempty"`
	Examples     []models.TrainingExample `json:"examples"`
}

type trainFlags struct {
	corpus    string
	out       string
	prior     string
	opts      trainer.Options
	coldStart bool
}

func newTrainCmd() *cobra.Command {
	f := trainFlags{opts: trainer.DefaultOptions()}

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a model from a JSON corpus",
		Long: `Fit a logistic success model from a corpus file of the form
{"featureNames": [...], "examples": [{"features": [...], "outcome": 0|1}]}.

featureNames defaults to the standard feature set. With --prior the new model
takes the next version and, unless --cold-start is set, starts from the prior
weights when the feature names match.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runTrain(ctx, cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.corpus, "corpus", "", "path to the corpus JSON file")
	cmd.Flags().StringVar(&f.out, "out", "model.json", "where to write the trained model")
	cmd.Flags().StringVar(&f.prior, "prior", "", "optional model file to continue from")
	cmd.Flags().Float64Var(&f.opts.LearningRate, "learning-rate", f.opts.LearningRate, "gradient step size")
	cmd.Flags().Float64Var(&f.opts.L2Penalty, "l2", f.opts.L2Penalty, "L2 penalty on the weights")
	cmd.Flags().IntVar(&f.opts.MaxIterations, "max-iterations", f.opts.MaxIterations, "iteration cap")
	cmd.Flags().Float64Var(&f.opts.Tolerance, "tolerance", f.opts.Tolerance, "stop when the loss changes by less than this")
	cmd.Flags().Int64Var(&f.opts.Seed, "seed", f.opts.Seed, "seed for the initial weights")
	cmd.Flags().BoolVar(&f.coldStart, "cold-start", false, "ignore the prior model's weights")
	_ = cmd.MarkFlagRequired("corpus")

	return cmd
}

func runTrain(ctx context.Context, cmd *cobra.Command, f trainFlags) error {
	log := cliLogger()

	raw, err := os.ReadFile(f.corpus)
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}
	var corpus corpusFile
	if err := json.Unmarshal(raw, &corpus); err != nil {
		return fmt.Errorf("decode corpus: %w", err)
	}
	names := corpus.FeatureNames
	if len(names) == 0 {
		names = features.DefaultFeatureNames()
	}
	if err := training.ValidateCorpus(names, corpus.Examples); err != nil {
		return err
	}

	var prior *models.Model
	if f.prior != "" {
		if prior, err = modelstore.LoadFile(f.prior); err != nil {
			return err
		}
	}
	opts := f.opts
	opts.WarmStart = !f.coldStart

	log.Info("training", map[string]interface{}{
		"examples": len(corpus.Examples),
		"features": len(names),
		"warm":     prior != nil && opts.WarmStart,
	})
	model, err := trainer.Train(ctx, corpus.Examples, names, prior, opts)
	if err != nil {
		return err
	}
	if err := modelstore.SaveFile(f.out, model); err != nil {
		return err
	}

	m := model.Metrics
	fmt.Fprintf(cmd.OutOrStdout(), "model v%d written to %s\n", model.Version, f.out)
	fmt.Fprintf(cmd.OutOrStdout(), "examples=%d (+%d/-%d) iterations=%d converged=%t loss=%.6f accuracy=%.4f\n",
		model.TrainingExamples, m.PositiveExamples, m.NegativeExamples, m.Iterations, m.Converged, m.BestLoss, m.Accuracy)
	return nil
}
