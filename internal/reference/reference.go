// Package reference parses secret references declared in the environment.
//
// A reference is an environment variable whose name carries the SECRET_
// prefix and whose value is an AWS Secrets Manager ARN:
//
//	SECRET_DB_PASSWORD=arn:aws:secretsmanager:eu-west-1:123456789012:secret:prod/db-AbCdEf
//
// The derived variable name is the original name with the prefix removed
// (SECRET_DB_PASSWORD becomes DB_PASSWORD in the child environment).
package reference

import (
	"strings"

	dserrors "github.com/systmms/secretsinit/internal/errors"
)

// DefaultPrefix marks environment variables whose values are secret references.
const DefaultPrefix = "SECRET_"

const (
	arnToken      = "arn"
	serviceToken  = "secretsmanager"
	resourceToken = "secret"

	// arn : partition : service : region : account : resource-type : resource-name
	arnFields = 7
)

// Reference is the parsed form of one prefixed environment entry. The region
// is load-bearing: it routes the lookup to the right store client.
type Reference struct {
	// Variable is the environment variable the reference was declared in
	// (or the manifest key, for SSM-expanded references). Used in errors.
	Variable string

	// TargetName is the variable name the resolved value will be bound to.
	TargetName string

	Partition    string
	Region       string
	AccountID    string
	ResourceType string
	ResourceName string

	raw string
}

// ARN returns the reference exactly as it was given.
func (r Reference) ARN() string {
	return r.raw
}

// FromEntry inspects one environment entry. Entries without the prefix are
// not references; they report ok=false with no error and pass through
// untouched. Prefixed entries must parse or the whole run is aborted.
func FromEntry(name, value, prefix string) (Reference, bool, error) {
	target, found := strings.CutPrefix(name, prefix)
	if !found {
		return Reference{}, false, nil
	}
	ref, err := Parse(name, target, value)
	if err != nil {
		return Reference{}, true, err
	}
	return ref, true, nil
}

// Parse validates value as a Secrets Manager ARN and binds it to target.
// variable is the declaring environment variable or manifest key, reported
// on failure.
func Parse(variable, target, value string) (Reference, error) {
	if target == "" {
		return Reference{}, dserrors.ReferenceError{
			Variable: variable,
			Value:    value,
			Reason:   "derived variable name is empty",
		}
	}

	fields := strings.SplitN(value, ":", arnFields)
	if len(fields) < arnFields {
		return Reference{}, dserrors.ReferenceError{
			Variable: variable,
			Value:    value,
			Reason:   "not a Secrets Manager ARN (too few fields)",
		}
	}
	if fields[0] != arnToken {
		return Reference{}, dserrors.ReferenceError{
			Variable: variable,
			Value:    value,
			Reason:   "identifier does not start with 'arn'",
		}
	}
	if fields[2] != serviceToken {
		return Reference{}, dserrors.ReferenceError{
			Variable: variable,
			Value:    value,
			Reason:   "service is '" + fields[2] + "', want '" + serviceToken + "'",
		}
	}
	if fields[5] != resourceToken {
		return Reference{}, dserrors.ReferenceError{
			Variable: variable,
			Value:    value,
			Reason:   "resource type is '" + fields[5] + "', want '" + resourceToken + "'",
		}
	}
	region := fields[3]
	if !validRegion(region) {
		return Reference{}, dserrors.ReferenceError{
			Variable: variable,
			Value:    value,
			Reason:   "invalid region token '" + region + "'",
		}
	}
	if fields[6] == "" {
		return Reference{}, dserrors.ReferenceError{
			Variable: variable,
			Value:    value,
			Reason:   "secret name is empty",
		}
	}

	return Reference{
		Variable:     variable,
		TargetName:   target,
		Partition:    fields[1],
		Region:       region,
		AccountID:    fields[4],
		ResourceType: fields[5],
		ResourceName: fields[6],
		raw:          value,
	}, nil
}

// validRegion accepts AWS region tokens (us-east-1, eu-west-2,
// us-gov-west-1, cn-north-1). Lowercase alphanumerics separated by hyphens,
// at least two segments.
func validRegion(region string) bool {
	if region == "" {
		return false
	}
	segments := strings.Split(region, "-")
	if len(segments) < 2 {
		return false
	}
	for _, seg := range segments {
		if seg == "" {
			return false
		}
		for _, c := range seg {
			if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
				return false
			}
		}
	}
	return true
}
