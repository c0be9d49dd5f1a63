package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	input *sns.PublishInput
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestPublishEvent(t *testing.T) {
	fake := &fakePublisher{}
	client := NewSNSClientWithPublisher(fake, "arn:aws:sns:ap-southeast-1:123:model-events")

	id, err := client.PublishEvent(context.Background(), "model.activated", map[string]interface{}{"version": 4})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	assert.Equal(t, "arn:aws:sns:ap-southeast-1:123:model-events", aws.ToString(fake.input.TopicArn))
	assert.Equal(t, "model.activated", aws.ToString(fake.input.MessageAttributes["eventType"].StringValue))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(fake.input.Message)), &body))
	assert.Equal(t, float64(4), body["version"])
}

func TestPublishEvent_Error(t *testing.T) {
	client := NewSNSClientWithPublisher(&fakePublisher{err: errors.New("throttled")}, "arn")
	_, err := client.PublishEvent(context.Background(), "model.activated", struct{}{})
	assert.ErrorContains(t, err, "throttled")
}
