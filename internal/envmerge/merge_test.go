package envmerge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretsinit/internal/clientpool"
	"github.com/systmms/secretsinit/internal/envmerge"
	"github.com/systmms/secretsinit/internal/envscan"
	"github.com/systmms/secretsinit/internal/logging"
	"github.com/systmms/secretsinit/internal/reference"
	"github.com/systmms/secretsinit/internal/resolve"
)

const prefix = reference.DefaultPrefix

// resolvedFixture builds real ResolvedSecret values through the resolver so
// the sealed-buffer path is the one under test.
func resolvedFixture(t *testing.T, values map[string]string) map[string]resolve.ResolvedSecret {
	t.Helper()

	const region = "us-east-1"
	arnFor := func(target string) string {
		return "arn:aws:secretsmanager:" + region + ":123456789012:secret:" + target
	}

	byARN := make(map[string]string, len(values))
	refs := make([]reference.Reference, 0, len(values))
	for target, value := range values {
		arn := arnFor(target)
		byARN[arn] = value
		ref, err := reference.Parse(prefix+target, target, arn)
		require.NoError(t, err)
		refs = append(refs, ref)
	}

	logger := logging.New(false, true)
	pool := clientpool.New(logger, clientpool.WithFactory(
		func(ctx context.Context, r string) (clientpool.SecretsManagerAPI, error) {
			if r != region {
				return nil, errors.New("unexpected region " + r)
			}
			return fetchFunc(func(id string) (string, bool) {
				v, ok := byARN[id]
				return v, ok
			}), nil
		},
	))

	resolved, err := resolve.New(pool, logger).Resolve(context.Background(), refs)
	require.NoError(t, err)
	t.Cleanup(func() { resolve.DestroyAll(resolved) })
	return resolved
}

type fetchFunc func(id string) (string, bool)

func (f fetchFunc) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	value, ok := f(aws.ToString(params.SecretId))
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(value)}, nil
}

func TestMergePassThrough(t *testing.T) {
	t.Parallel()

	entries := []envscan.Entry{
		{Name: "PATH", Value: "/usr/bin"},
		{Name: "HOME", Value: "/root"},
	}

	env, err := envmerge.Merge(entries, nil, prefix, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"HOME=/root", "PATH=/usr/bin"}, env)
}

func TestMergeDropsRawReferences(t *testing.T) {
	t.Parallel()

	entries := []envscan.Entry{
		{Name: "PATH", Value: "/usr/bin"},
		{Name: "SECRET_FOO", Value: "arn:aws:secretsmanager:us-east-1:123456789012:secret:FOO"},
	}
	resolved := resolvedFixture(t, map[string]string{"FOO": "bar"})

	env, err := envmerge.Merge(entries, resolved, prefix, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"FOO=bar", "PATH=/usr/bin"}, env)
}

func TestMergeKeepReferences(t *testing.T) {
	t.Parallel()

	rawARN := "arn:aws:secretsmanager:us-east-1:123456789012:secret:FOO"
	entries := []envscan.Entry{
		{Name: "SECRET_FOO", Value: rawARN},
	}
	resolved := resolvedFixture(t, map[string]string{"FOO": "bar"})

	env, err := envmerge.Merge(entries, resolved, prefix, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"FOO=bar", "SECRET_FOO=" + rawARN}, env)
}

func TestMergeResolvedWinsCollision(t *testing.T) {
	t.Parallel()

	entries := []envscan.Entry{
		{Name: "FOO", Value: "stale"},
		{Name: "SECRET_FOO", Value: "arn:aws:secretsmanager:us-east-1:123456789012:secret:FOO"},
	}
	resolved := resolvedFixture(t, map[string]string{"FOO": "fresh"})

	env, err := envmerge.Merge(entries, resolved, prefix, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"FOO=fresh"}, env)
}

func TestMergeKeepsManifestPointers(t *testing.T) {
	t.Parallel()

	entries := []envscan.Entry{
		{Name: envscan.ParameterARNVar, Value: "arn:aws:ssm:us-east-1:123456789012:parameter/app"},
		{Name: envscan.ParameterNameVar, Value: "/app"},
	}

	env, err := envmerge.Merge(entries, nil, prefix, false)
	require.NoError(t, err)
	assert.Contains(t, env, envscan.ParameterARNVar+"=arn:aws:ssm:us-east-1:123456789012:parameter/app")
	assert.Contains(t, env, envscan.ParameterNameVar+"=/app")
}

func TestMergeKeepsManifestPointersUnderCoveringPrefix(t *testing.T) {
	t.Parallel()

	// SECRETS_ covers the pointer names; the pointer must still pass
	// through while real references under that prefix are dropped.
	entries := []envscan.Entry{
		{Name: envscan.ParameterNameVar, Value: "/app"},
		{Name: "SECRETS_OTHER", Value: "arn:aws:secretsmanager:us-east-1:123456789012:secret:OTHER"},
	}

	env, err := envmerge.Merge(entries, nil, "SECRETS_", false)
	require.NoError(t, err)
	assert.Equal(t, []string{envscan.ParameterNameVar + "=/app"}, env)
}

func TestMergeNoDuplicateKeys(t *testing.T) {
	t.Parallel()

	entries := []envscan.Entry{
		{Name: "FOO", Value: "a"},
		{Name: "FOO", Value: "b"},
	}

	env, err := envmerge.Merge(entries, nil, prefix, false)
	require.NoError(t, err)
	require.Len(t, env, 1)
	assert.Equal(t, "FOO=b", env[0])
}
