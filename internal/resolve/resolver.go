// Package resolve fetches every declared secret reference concurrently and
// either yields the complete set of plaintext values or the first fatal
// error. Partial success is never returned: a child process started with a
// subset of its declared secrets is worse than a failed start the platform
// can retry.
package resolve

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"golang.org/x/sync/errgroup"

	"github.com/systmms/secretsinit/internal/clientpool"
	dserrors "github.com/systmms/secretsinit/internal/errors"
	"github.com/systmms/secretsinit/internal/logging"
	"github.com/systmms/secretsinit/internal/reference"
	"github.com/systmms/secretsinit/internal/secure"
)

// ResolvedSecret is one fetched value, sealed in protected memory until the
// final environment is assembled.
type ResolvedSecret struct {
	TargetName string
	Value      *secure.Buffer

	// Variable is the declaring environment variable or manifest key.
	Variable string
}

// Resolver fans out lookups through a region-keyed client pool.
type Resolver struct {
	pool   *clientpool.Pool
	logger *logging.Logger
}

// New creates a resolver backed by the given pool.
func New(pool *clientpool.Pool, logger *logging.Logger) *Resolver {
	return &Resolver{
		pool:   pool,
		logger: logger,
	}
}

// Resolve fetches all references in parallel, one goroutine per reference.
// The group context is cancelled on the first failure; in-flight siblings
// finish or abort on their own, and every already-fetched value is destroyed
// before the error is returned. The result is an unordered map keyed by
// target name; when two references bind the same target, exactly one value
// survives (last write wins) and a warning names the variables.
func (r *Resolver) Resolve(ctx context.Context, refs []reference.Reference) (map[string]ResolvedSecret, error) {
	result := make(map[string]ResolvedSecret, len(refs))
	if len(refs) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			resolved, err := r.resolveOne(ctx, ref)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if prev, exists := result[ref.TargetName]; exists {
				r.logger.Warn("Variables '%s' and '%s' both define %s; keeping the later value",
					prev.Variable, ref.Variable, ref.TargetName)
				prev.Value.Destroy()
			}
			result[ref.TargetName] = resolved
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		DestroyAll(result)
		return nil, err
	}
	return result, nil
}

// resolveOne performs a single get-secret-value request against the client
// for the reference's region.
func (r *Resolver) resolveOne(ctx context.Context, ref reference.Reference) (ResolvedSecret, error) {
	client, err := r.pool.ForRegion(ctx, ref.Region)
	if err != nil {
		return ResolvedSecret{}, err
	}

	r.logger.Debug("Fetching secret for %s from region %s", ref.Variable, ref.Region)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref.ARN()),
	})
	if err != nil {
		return ResolvedSecret{}, dserrors.FetchError{
			Variable: ref.Variable,
			Region:   ref.Region,
			ID:       ref.ARN(),
			Err:      err,
		}
	}

	var value *secure.Buffer
	switch {
	case out.SecretString != nil:
		value = secure.NewBufferFromString(*out.SecretString)
	case out.SecretBinary != nil:
		value = secure.NewBuffer(out.SecretBinary)
	default:
		return ResolvedSecret{}, dserrors.FetchError{
			Variable: ref.Variable,
			Region:   ref.Region,
			ID:       ref.ARN(),
			Err:      errNoValue,
		}
	}

	return ResolvedSecret{
		TargetName: ref.TargetName,
		Value:      value,
		Variable:   ref.Variable,
	}, nil
}

// DestroyAll wipes every sealed value in the map. Call it once the final
// environment has been assembled (or on any abort path).
func DestroyAll(resolved map[string]ResolvedSecret) {
	for _, rs := range resolved {
		rs.Value.Destroy()
	}
}
