package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// LoadParameters merges the Parameter Store tree named by SSM_PARAMETER_PATH
// into config. It is a no-op when the path is unset.
func LoadParameters(ctx context.Context, config map[string]string) (int, error) {
	path := GetString(config, "SSM_PARAMETER_PATH", "")
	if path == "" {
		return 0, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(GetString(config, "AWS_REGION", "us-east-1")))
	if err != nil {
		return 0, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return MergeParameters(ctx, ssm.NewFromConfig(cfg), path, config)
}

// MergeParameters copies every parameter under path into config, keyed by the
// last segment of its name. Values already set in the environment win.
func MergeParameters(ctx context.Context, client ssm.GetParametersByPathAPIClient, path string, config map[string]string) (int, error) {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return loaded, fmt.Errorf("read parameters under %s: %w", path, err)
		}
		for _, p := range page.Parameters {
			name := aws.ToString(p.Name)
			key := name[strings.LastIndex(name, "/")+1:]
			if key == "" || GetString(config, key, "") != "" {
				continue
			}
			config[key] = aws.ToString(p.Value)
			loaded++
		}
	}
	return loaded, nil
}
