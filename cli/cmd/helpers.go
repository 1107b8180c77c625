package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/crystian/declincus/config"
	"github.com/crystian/declincus/incus"
	"github.com/crystian/declincus/internal/providers/config/file"
	"github.com/crystian/declincus/internal/providers/incus/catalog"
	"github.com/crystian/declincus/internal/providers/incus/dialer"
	"github.com/crystian/declincus/internal/providers/repository/fsstore"
	gitrepo "github.com/crystian/declincus/internal/providers/repository/git"
	"github.com/crystian/declincus/metrics"
	"github.com/crystian/declincus/reconciler"
	"github.com/crystian/declincus/repository"
	"github.com/crystian/declincus/resource"
)

type sourceOptions struct {
	gitURL    string
	gitBranch string
	gitDir    string
}

func (s *sourceOptions) register(flags *pflag.FlagSet) {
	flags.StringVar(&s.gitURL, "git-url", "", "Read declarations from this git repository instead of local paths")
	flags.StringVar(&s.gitBranch, "git-branch", "", "Branch to track when --git-url is set")
	flags.StringVar(&s.gitDir, "git-dir", "", "Local clone directory for --git-url")
}

func (o *rootOptions) remoteService() *file.FileRemoteService {
	return file.NewFileRemoteService(o.remotesFile)
}

func (o *rootOptions) buildReconciler(cmd *cobra.Command, recorder *metrics.Recorder) *reconciler.DefaultReconciler {
	log := o.logger(cmd)
	remotes := o.remoteService()

	router := &incus.Router{
		Server:  dialer.NewServerDialer(remotes, log.WithName("incus")),
		Catalog: catalog.NewClient(remotes),
	}
	return &reconciler.DefaultReconciler{
		Client:  router,
		Log:     log.WithName("reconcile"),
		Metrics: recorder,
	}
}

// loadSpecs gathers declarations from a git source, spec directories or
// plain files, then stamps the invocation-wide remote and project defaults
// onto every spec that has none of its own.
func (o *rootOptions) loadSpecs(ctx context.Context, source sourceOptions, args []string) ([]resource.Spec, error) {
	specs, err := o.collectSpecs(ctx, source, args)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no declarations found")
	}

	for i := range specs {
		specs[i] = specs[i].ApplyScopeDefaults(o.remote, o.project)
	}
	return specs, nil
}

func (o *rootOptions) collectSpecs(ctx context.Context, source sourceOptions, args []string) ([]resource.Spec, error) {
	if source.gitURL != "" {
		repo, err := gitrepo.NewGitSpecRepository(config.GitSource{
			URL:     source.gitURL,
			Branch:  source.gitBranch,
			BaseDir: source.gitDir,
		})
		if err != nil {
			return nil, err
		}
		if err := repo.Sync(ctx); err != nil {
			return nil, err
		}
		return repository.LoadAll(ctx, repo)
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("no spec files given (pass files or directories, or use --git-url)")
	}

	var specs []resource.Spec
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", arg, err)
		}

		if info.IsDir() {
			loaded, err := repository.LoadAll(ctx, fsstore.NewLocalSpecRepository(arg))
			if err != nil {
				return nil, err
			}
			specs = append(specs, loaded...)
			continue
		}

		loaded, err := resource.ParseFile(arg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, loaded...)
	}
	return specs, nil
}

func describeOutcome(spec resource.Spec, outcome reconciler.Outcome) string {
	var b strings.Builder

	status := "unchanged"
	if outcome.Changed {
		status = describeOp(outcome.Decision)
	}
	fmt.Fprintf(&b, "%-9s %s %s", status, spec.Kind, spec.Identity)

	for _, diag := range outcome.Diagnostics {
		fmt.Fprintf(&b, "\n  %s", diag)
	}
	return b.String()
}

func describeOp(decision reconciler.Decision) string {
	if decision.Op == reconciler.OpSpecial {
		return string(decision.Action)
	}
	return string(decision.Op)
}
