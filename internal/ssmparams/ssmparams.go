// Package ssmparams expands an SSM parameter manifest into secret references.
//
// Deployments that outgrow per-variable SECRET_ entries can point
// SECRETS_PARAMETER_ARN (or SECRETS_PARAMETER_NAME) at a single SSM
// parameter whose value is a JSON object mapping variable names to Secrets
// Manager ARNs:
//
//	{"DB_PASSWORD": "arn:aws:secretsmanager:...", "SECRET_API_KEY": "arn:..."}
//
// Keys may carry the SECRET_ prefix for symmetry with direct declarations;
// it is stripped. A manifest that is not a JSON object of strings is fatal.
package ssmparams

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/systmms/secretsinit/internal/envscan"
	dserrors "github.com/systmms/secretsinit/internal/errors"
	"github.com/systmms/secretsinit/internal/logging"
	"github.com/systmms/secretsinit/internal/reference"
)

// SSMAPI is the slice of the SSM client the expander needs.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Expander fetches and decodes one manifest per run.
type Expander struct {
	client SSMAPI
	logger *logging.Logger
}

// Option is a functional option for configuring the expander
type Option func(*Expander)

// WithClient sets a custom SSM client (for testing)
func WithClient(client SSMAPI) Option {
	return func(e *Expander) {
		e.client = client
	}
}

// New creates an expander. Without options the SSM client is built on first
// use from the ambient credential chain, in the manifest's region when the
// manifest is named by ARN.
func New(logger *logging.Logger, opts ...Option) *Expander {
	e := &Expander{logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExpandAll expands every declared manifest pointer, ARN form first, and
// appends the reference sets. Deployments may declare both pointers; each
// gets its own expander so region routing follows its own identifier.
func ExpandAll(ctx context.Context, logger *logging.Logger, scan envscan.Result, prefix string, opts ...Option) ([]reference.Reference, error) {
	pointers := []struct {
		variable   string
		identifier string
	}{
		{envscan.ParameterARNVar, scan.ParameterARN},
		{envscan.ParameterNameVar, scan.ParameterName},
	}

	var refs []reference.Reference
	for _, p := range pointers {
		if p.identifier == "" {
			continue
		}
		expanded, err := New(logger, opts...).Expand(ctx, p.variable, p.identifier, prefix)
		if err != nil {
			return nil, err
		}
		refs = append(refs, expanded...)
	}
	return refs, nil
}

// Expand fetches the parameter named by variable/identifier and returns the
// references its manifest declares, ordered by key for deterministic
// processing. identifier may be a full SSM parameter ARN or a plain name.
func (e *Expander) Expand(ctx context.Context, variable, identifier, prefix string) ([]reference.Reference, error) {
	region := regionFromParameterARN(identifier)

	if e.client == nil {
		client, err := newClient(ctx, region)
		if err != nil {
			return nil, dserrors.ClientInitError{Region: region, Err: err}
		}
		e.client = client
	}

	e.logger.Debug("Fetching secrets manifest from SSM parameter %s", identifier)
	out, err := e.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(identifier),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, dserrors.FetchError{
			Variable: variable,
			Region:   region,
			ID:       identifier,
			Err:      err,
		}
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, dserrors.ReferenceError{
			Variable: variable,
			Value:    identifier,
			Reason:   "SSM parameter has no value",
		}
	}

	return decode(variable, *out.Parameter.Value, prefix)
}

// decode parses the manifest body into references.
func decode(variable, body, prefix string) ([]reference.Reference, error) {
	var manifest map[string]any
	if err := json.Unmarshal([]byte(body), &manifest); err != nil {
		return nil, dserrors.ReferenceError{
			Variable: variable,
			Reason:   "manifest is not a JSON object: " + err.Error(),
		}
	}

	keys := make([]string, 0, len(manifest))
	for key := range manifest {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	refs := make([]reference.Reference, 0, len(keys))
	for _, key := range keys {
		arn, ok := manifest[key].(string)
		if !ok {
			return nil, dserrors.ReferenceError{
				Variable: key,
				Reason:   "manifest value is not a string",
			}
		}
		target := strings.TrimPrefix(key, prefix)
		ref, err := reference.Parse(key, target, arn)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// newClient builds the real SSM client. An empty region defers to whatever
// the default chain resolves (AWS_REGION in Lambda).
func newClient(ctx context.Context, region string) (SSMAPI, error) {
	var configOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, err
	}
	return ssm.NewFromConfig(cfg), nil
}

// regionFromParameterARN pulls the region out of an SSM parameter ARN
// (arn:aws:ssm:<region>:<account>:parameter/<name>). Plain parameter names
// yield "".
func regionFromParameterARN(identifier string) string {
	if !strings.HasPrefix(identifier, "arn:") {
		return ""
	}
	fields := strings.SplitN(identifier, ":", 5)
	if len(fields) < 5 {
		return ""
	}
	return fields[3]
}
