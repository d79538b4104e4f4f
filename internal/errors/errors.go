package errors

import (
	"fmt"
	"strings"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ReferenceError reports a prefixed environment variable whose value does not
// parse as a Secrets Manager ARN. Always fatal: a misconfigured deployment
// should fail loudly rather than silently skip a declared secret.
type ReferenceError struct {
	Variable string
	Value    string
	Reason   string
}

func (e ReferenceError) Error() string {
	msg := fmt.Sprintf("invalid secret reference in '%s'", e.Variable)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	msg += "\n  💡 Expected: arn:<partition>:secretsmanager:<region>:<account>:secret:<name>"
	return msg
}

// ClientInitError reports that a secret store client could not be
// constructed for a region (credential chain or region problems).
type ClientInitError struct {
	Region string
	Err    error
}

func (e ClientInitError) Error() string {
	msg := fmt.Sprintf("failed to create secret store client for region '%s'", e.Region)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	msg += "\n  💡 Check the region token and the AWS credential chain (env vars, task role, ~/.aws)"
	return msg
}

func (e ClientInitError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed store lookup (not found, access denied,
// throttled, network). No retry is attempted; the wrapping supervisor is
// expected to retry the whole invocation.
type FetchError struct {
	Variable string
	Region   string
	ID       string
	Err      error
}

func (e FetchError) Error() string {
	msg := fmt.Sprintf("failed to fetch secret for '%s' (region %s)", e.Variable, e.Region)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if suggestion := getFetchSuggestion(e.Err); suggestion != "" {
		msg += "\n  💡 " + suggestion
	}
	return msg
}

func (e FetchError) Unwrap() error {
	return e.Err
}

// ExecError reports that the target command could not be started. The child's
// own non-zero exits are propagated directly and never wrapped in this type.
type ExecError struct {
	Command string
	Err     error
}

func (e ExecError) Error() string {
	msg := fmt.Sprintf("failed to execute '%s'", e.Command)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	msg += "\n  💡 Check that the command exists in the image and is executable"
	return msg
}

func (e ExecError) Unwrap() error {
	return e.Err
}

// getFetchSuggestion returns a helpful suggestion based on the underlying AWS error
func getFetchSuggestion(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()

	if strings.Contains(errStr, "ResourceNotFoundException") {
		return "Verify the secret ARN. List secrets with: 'aws secretsmanager list-secrets'"
	}
	if strings.Contains(errStr, "AccessDenied") || strings.Contains(errStr, "UnauthorizedOperation") {
		return "Check IAM permissions for secretsmanager:GetSecretValue on this secret"
	}
	if strings.Contains(errStr, "ThrottlingException") {
		return "AWS rate limit exceeded; the platform retry of this invocation will usually succeed"
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return "The lookup timed out. Check VPC routing to the Secrets Manager endpoint"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check network access to the regional endpoint"
	}

	return ""
}
