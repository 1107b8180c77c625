package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crystian/declincus/reconciler"
	"github.com/crystian/declincus/resource"
	"github.com/crystian/declincus/yamlutil"
)

func newDiffCommand(opts *rootOptions) *cobra.Command {
	source := &sourceOptions{}
	var jqExpression string

	cmd := &cobra.Command{
		Use:     "diff [file|dir ...]",
		GroupID: groupUserFacing,
		Short:   "Show the transitions apply would perform",
		Example: `  declincus diff specs/
  declincus diff specs/ --jq '.[] | select(.changed)'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			specs, err := opts.loadSpecs(ctx, *source, args)
			if err != nil {
				return err
			}

			recon := opts.buildReconciler(cmd, nil)

			reports := make([]any, 0, len(specs))
			for _, spec := range specs {
				decision, _, err := recon.Plan(ctx, spec)
				if err != nil {
					return fmt.Errorf("plan %s %s: %w", spec.Kind, spec.Identity, err)
				}
				reports = append(reports, planReport(spec, decision))
			}

			var output any = reports
			if jqExpression != "" {
				filtered, err := resource.FilterJQ(output, jqExpression)
				if err != nil {
					return err
				}
				output = filtered
			}

			encoded, err := yamlutil.MarshalWithIndent(output, 2)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		},
	}

	source.register(cmd.Flags())
	cmd.Flags().StringVar(&jqExpression, "jq", "", "Filter the plan report with a jq expression")

	return cmd
}

// planReport flattens one decision into plain maps so both the YAML
// encoder and jq can walk it.
func planReport(spec resource.Spec, decision reconciler.Decision) map[string]any {
	report := map[string]any{
		"kind":     string(spec.Kind),
		"identity": spec.Identity.String(),
		"op":       describeOp(decision),
		"changed":  decision.Changed(),
	}

	if decision.Op == reconciler.OpRename {
		report["rename-from"] = decision.RenameFrom
		report["rename-to"] = decision.RenameTo
	}

	if !decision.Patch.Empty() {
		report["patch"] = patchReport(decision.Patch)
	}
	return report
}

func patchReport(patch resource.Patch) map[string]any {
	report := map[string]any{}

	if len(patch.Set) > 0 {
		set := make(map[string]any, len(patch.Set))
		for key, value := range patch.Set {
			set[key] = value
		}
		report["set"] = set
	}
	if len(patch.Remove) > 0 {
		remove := make([]any, 0, len(patch.Remove))
		for _, key := range patch.Remove {
			remove = append(remove, key)
		}
		report["remove"] = remove
	}
	if patch.Description != nil {
		report["description"] = *patch.Description
	}
	if patch.URL != nil {
		report["url"] = *patch.URL
	}
	if patch.Protocol != nil {
		report["protocol"] = *patch.Protocol
	}

	if !patch.Devices.Empty() {
		devices := map[string]any{}
		if len(patch.Devices.Set) > 0 {
			set := make(map[string]any, len(patch.Devices.Set))
			for name, attrs := range patch.Devices.Set {
				attrMap := make(map[string]any, len(attrs))
				for key, value := range attrs {
					attrMap[key] = value
				}
				set[name] = attrMap
			}
			devices["set"] = set
		}
		if len(patch.Devices.Remove) > 0 {
			remove := make([]any, 0, len(patch.Devices.Remove))
			for _, name := range patch.Devices.Remove {
				remove = append(remove, name)
			}
			devices["remove"] = remove
		}
		report["devices"] = devices
	}

	return report
}
