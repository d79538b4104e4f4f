package reference_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/secretsinit/internal/errors"
	"github.com/systmms/secretsinit/internal/reference"
)

const validARN = "arn:aws:secretsmanager:us-east-1:123456789012:secret:myapp/prod-AbCdEf"

func TestParseValid(t *testing.T) {
	t.Parallel()

	ref, err := reference.Parse("SECRET_DB_PASSWORD", "DB_PASSWORD", validARN)
	require.NoError(t, err)

	assert.Equal(t, "SECRET_DB_PASSWORD", ref.Variable)
	assert.Equal(t, "DB_PASSWORD", ref.TargetName)
	assert.Equal(t, "aws", ref.Partition)
	assert.Equal(t, "us-east-1", ref.Region)
	assert.Equal(t, "123456789012", ref.AccountID)
	assert.Equal(t, "secret", ref.ResourceType)
	assert.Equal(t, "myapp/prod-AbCdEf", ref.ResourceName)
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	arns := []string{
		validARN,
		"arn:aws-us-gov:secretsmanager:us-gov-west-1:123456789012:secret:gov-secret",
		"arn:aws-cn:secretsmanager:cn-north-1:123456789012:secret:cn/secret-XyZ",
		// Secret names may themselves contain colons
		"arn:aws:secretsmanager:eu-west-2:123456789012:secret:name:with:colons",
	}

	for _, arn := range arns {
		ref, err := reference.Parse("SECRET_X", "X", arn)
		require.NoError(t, err, arn)
		assert.Equal(t, arn, ref.ARN())
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		value  string
	}{
		{"not_an_arn", "FOO", "just-a-plain-string"},
		{"too_few_fields", "FOO", "arn:aws:secretsmanager:us-east-1:123456789012"},
		{"wrong_leading_token", "FOO", "urn:aws:secretsmanager:us-east-1:123456789012:secret:x"},
		{"wrong_service", "FOO", "arn:aws:ssm:us-east-1:123456789012:secret:x"},
		{"wrong_resource_type", "FOO", "arn:aws:secretsmanager:us-east-1:123456789012:parameter:x"},
		{"empty_region", "FOO", "arn:aws:secretsmanager::123456789012:secret:x"},
		{"uppercase_region", "FOO", "arn:aws:secretsmanager:US-EAST-1:123456789012:secret:x"},
		{"single_segment_region", "FOO", "arn:aws:secretsmanager:useast1:123456789012:secret:x"},
		{"empty_secret_name", "FOO", "arn:aws:secretsmanager:us-east-1:123456789012:secret:"},
		{"empty_target", "", validARN},
		{"empty_value", "FOO", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := reference.Parse("SECRET_"+tt.target, tt.target, tt.value)
			require.Error(t, err)

			var refErr dserrors.ReferenceError
			require.True(t, errors.As(err, &refErr), "want ReferenceError, got %T", err)
			assert.Equal(t, "SECRET_"+tt.target, refErr.Variable)
		})
	}
}

func TestFromEntry(t *testing.T) {
	t.Parallel()

	t.Run("prefixed_valid", func(t *testing.T) {
		t.Parallel()
		ref, ok, err := reference.FromEntry("SECRET_API_KEY", validARN, reference.DefaultPrefix)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "API_KEY", ref.TargetName)
	})

	t.Run("prefixed_invalid_is_fatal", func(t *testing.T) {
		t.Parallel()
		_, ok, err := reference.FromEntry("SECRET_BAD", "not-a-valid-identifier", reference.DefaultPrefix)
		assert.True(t, ok)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SECRET_BAD")
	})

	t.Run("unprefixed_passes_through", func(t *testing.T) {
		t.Parallel()
		_, ok, err := reference.FromEntry("PATH", "/usr/bin", reference.DefaultPrefix)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("prefix_match_is_exact_case", func(t *testing.T) {
		t.Parallel()
		_, ok, err := reference.FromEntry("secret_lower", "x", reference.DefaultPrefix)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
