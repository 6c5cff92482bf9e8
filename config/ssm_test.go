package config

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedParameters struct {
	pages  [][]types.Parameter
	inputs []*ssm.GetParametersByPathInput
	err    error
}

func (p *pagedParameters) GetParametersByPath(_ context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.inputs = append(p.inputs, in)

	page := len(p.inputs) - 1
	out := &ssm.GetParametersByPathOutput{Parameters: p.pages[page]}
	if page+1 < len(p.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func parameter(name, value string) types.Parameter {
	return types.Parameter{Name: aws.String(name), Value: aws.String(value)}
}

func TestMergeParameters(t *testing.T) {
	client := &pagedParameters{pages: [][]types.Parameter{
		{parameter("/blog/prod/ADMIN_SECRET_TOKEN", "from-ssm"), parameter("/blog/prod/PORT", "7000")},
		{parameter("/blog/prod/cloudinary/CLOUDINARY_API_SECRET", "shh")},
	}}
	c := map[string]string{"PORT": "5000"}

	loaded, err := MergeParameters(context.Background(), client, "/blog/prod", c)
	require.NoError(t, err)

	assert.Equal(t, 2, loaded)
	assert.Equal(t, "from-ssm", c["ADMIN_SECRET_TOKEN"])
	assert.Equal(t, "shh", c["CLOUDINARY_API_SECRET"])
	assert.Equal(t, "5000", c["PORT"])

	require.Len(t, client.inputs, 2)
	assert.True(t, aws.ToBool(client.inputs[0].WithDecryption))
	assert.True(t, aws.ToBool(client.inputs[0].Recursive))
	assert.Equal(t, "next", aws.ToString(client.inputs[1].NextToken))
}

func TestMergeParameters_Error(t *testing.T) {
	c := map[string]string{}

	_, err := MergeParameters(context.Background(), &pagedParameters{err: errors.New("access denied")}, "/blog", c)

	assert.ErrorContains(t, err, "access denied")
	assert.Empty(t, c)
}

func TestLoadParameters_NoPath(t *testing.T) {
	loaded, err := LoadParameters(context.Background(), map[string]string{})

	assert.NoError(t, err)
	assert.Zero(t, loaded)
}
