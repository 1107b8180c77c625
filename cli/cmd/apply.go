package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crystian/declincus/metrics"
	"github.com/crystian/declincus/reconciler"
	"github.com/crystian/declincus/resource"
)

func newApplyCommand(opts *rootOptions) *cobra.Command {
	source := &sourceOptions{}
	var (
		check         bool
		assumeYes     bool
		parallel      int
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:     "apply [file|dir ...]",
		GroupID: groupUserFacing,
		Short:   "Converge declarations against their remotes",
		Long: `Apply fetches the current state of every declared resource, decides the
minimal transition and executes it. Declarations that already hold are
reported unchanged. A failing resource does not stop the rest; failures
are summarized at the end.`,
		Example: `  declincus apply specs/
  declincus apply profiles.yaml volumes.yaml --parallel 4
  declincus apply specs/ --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			specs, err := opts.loadSpecs(ctx, *source, args)
			if err != nil {
				return err
			}

			recorder := metrics.NewRecorder()
			if metricsListen != "" {
				log := opts.logger(cmd)
				go func() {
					if err := http.ListenAndServe(metricsListen, recorder.Handler()); err != nil {
						log.Error(err, "metrics listener stopped")
					}
				}()
			}

			recon := opts.buildReconciler(cmd, recorder)

			if check {
				return runCheck(cmd, recon, specs)
			}

			var deletions []string
			for _, spec := range specs {
				if spec.EffectiveState() == resource.StateAbsent && spec.Snapshot == "" {
					deletions = append(deletions, fmt.Sprintf("%s %s", spec.Kind, spec.Identity))
				}
			}
			if len(deletions) > 0 {
				confirmed, err := confirmDestructive(assumeYes, deletions)
				if err != nil {
					return err
				}
				if !confirmed {
					return fmt.Errorf("apply aborted")
				}
			}

			return runApply(cmd, recon, specs, parallel)
		},
	}

	source.register(cmd.Flags())
	cmd.Flags().BoolVar(&check, "check", false, "Plan only; report what would change without touching anything")
	cmd.Flags().BoolVar(&assumeYes, "yes", false, "Do not prompt before deleting resources")
	cmd.Flags().IntVar(&parallel, "parallel", 1, "Reconcile up to this many declarations concurrently")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "Serve Prometheus metrics on this address while applying")

	return cmd
}

func runCheck(cmd *cobra.Command, recon reconciler.Reconciler, specs []resource.Spec) error {
	var failures int
	for _, spec := range specs {
		decision, _, err := recon.Plan(cmd.Context(), spec)
		if err != nil {
			failures++
			fmt.Fprintf(cmd.OutOrStdout(), "error     %s %s: %v\n", spec.Kind, spec.Identity, err)
			continue
		}

		status := "unchanged"
		if decision.Changed() {
			status = "would " + describeOp(decision)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s %s\n", status, spec.Kind, spec.Identity)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d declarations failed to plan", failures, len(specs))
	}
	return nil
}

type applyResult struct {
	outcome reconciler.Outcome
	err     error
}

func runApply(cmd *cobra.Command, recon reconciler.Reconciler, specs []resource.Spec, parallel int) error {
	if parallel < 1 {
		parallel = 1
	}

	results := make([]applyResult, len(specs))

	var group errgroup.Group
	group.SetLimit(parallel)
	for i, spec := range specs {
		group.Go(func() error {
			outcome, err := recon.Reconcile(cmd.Context(), spec)
			results[i] = applyResult{outcome: outcome, err: err}
			return nil
		})
	}
	_ = group.Wait()

	var failures int
	for i, spec := range specs {
		result := results[i]
		if result.err != nil {
			failures++
			fmt.Fprintf(cmd.OutOrStdout(), "error     %s %s: %v\n", spec.Kind, spec.Identity, result.err)
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), describeOutcome(spec, result.outcome))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d declarations failed", failures, len(specs))
	}
	return nil
}
