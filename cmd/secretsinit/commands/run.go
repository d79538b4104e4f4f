package commands

import (
	"context"

	"github.com/awnumar/memguard"

	"github.com/systmms/secretsinit/internal/clientpool"
	"github.com/systmms/secretsinit/internal/config"
	"github.com/systmms/secretsinit/internal/envmerge"
	"github.com/systmms/secretsinit/internal/envscan"
	dserrors "github.com/systmms/secretsinit/internal/errors"
	"github.com/systmms/secretsinit/internal/execenv"
	"github.com/systmms/secretsinit/internal/resolve"
	"github.com/systmms/secretsinit/internal/ssmparams"
)

// Run is the root command body: scan, resolve, merge, exec. It only returns
// on failure; on success the process image is replaced.
func Run(ctx context.Context, cfg *config.Config, argv []string) error {
	if len(argv) == 0 {
		return dserrors.UserError{
			Message:    "No command specified",
			Suggestion: "Use: secretsinit [flags] -- <command> [args...]",
		}
	}

	entries := envscan.System()
	scan, err := envscan.Scan(entries, cfg.Prefix)
	if err != nil {
		return err
	}

	refs := scan.References
	expanded, err := ssmparams.ExpandAll(ctx, cfg.Logger, scan, cfg.Prefix)
	if err != nil {
		return err
	}
	refs = append(refs, expanded...)

	cfg.Logger.Debug("Discovered %d secret references", len(refs))

	pool := clientpool.New(cfg.Logger)
	resolver := resolve.New(pool, cfg.Logger)
	resolved, err := resolver.Resolve(ctx, refs)
	if err != nil {
		memguard.Purge()
		return err
	}

	env, err := envmerge.Merge(entries, resolved, cfg.Prefix, cfg.KeepReferences)
	resolve.DestroyAll(resolved)
	if err != nil {
		memguard.Purge()
		return err
	}

	launcher := execenv.New(cfg.Logger)
	if err := launcher.Launch(argv, env); err != nil {
		memguard.Purge()
		return err
	}
	return nil
}
