package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/spf13/cobra"

	"github.com/systmms/secretsinit/internal/config"
	"github.com/systmms/secretsinit/internal/envscan"
)

// doctorTimeout bounds the credential check so a broken network fails fast
// instead of eating the invocation deadline.
const doctorTimeout = 10 * time.Second

// STSAPI is the slice of the STS client the doctor needs.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// NewDoctorCommand builds the preflight check: parse every declared
// reference (no lookups) and verify the credential chain with STS.
func NewDoctorCommand(cfg *config.Config) *cobra.Command {
	var skipCredentials bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check declared secret references and AWS credentials",
		Long: `Dry-run the environment scan and verify AWS connectivity.

This command checks:
- Every SECRET_-prefixed variable parses as a Secrets Manager ARN
- Which regions the references route to
- The ambient credential chain (STS GetCallerIdentity)

No secret values are fetched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scan, err := envscan.Scan(envscan.System(), cfg.Prefix)
			if err != nil {
				cfg.Logger.Error("Reference scan failed: %v", err)
				return err
			}

			w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "VARIABLE\tTARGET\tREGION\tSECRET")
			for _, ref := range scan.References {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ref.Variable, ref.TargetName, ref.Region, ref.ResourceName)
			}
			w.Flush()
			cfg.Logger.Info("%d references parsed", len(scan.References))

			if scan.ParameterARN != "" {
				cfg.Logger.Info("SSM manifest declared via %s (contents not fetched)", envscan.ParameterARNVar)
			} else if scan.ParameterName != "" {
				cfg.Logger.Info("SSM manifest declared via %s (contents not fetched)", envscan.ParameterNameVar)
			}

			if skipCredentials {
				return nil
			}
			return checkCredentials(cmd.Context(), cfg, nil)
		},
	}

	cmd.Flags().BoolVar(&skipCredentials, "skip-credentials", false, "Skip the STS credential check")

	return cmd
}

// checkCredentials calls GetCallerIdentity; client is injectable for tests
// and built from the default chain when nil.
func checkCredentials(ctx context.Context, cfg *config.Config, client STSAPI) error {
	ctx, cancel := context.WithTimeout(ctx, doctorTimeout)
	defer cancel()

	if client == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			cfg.Logger.Error("Failed to load AWS configuration: %v", err)
			return err
		}
		client = sts.NewFromConfig(awsCfg)
	}

	identity, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		cfg.Logger.Error("Credential check failed: %v", err)
		return err
	}

	cfg.Logger.Info("Credentials OK (account %s, %s)", deref(identity.Account), deref(identity.Arn))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return "unknown"
	}
	return *s
}
