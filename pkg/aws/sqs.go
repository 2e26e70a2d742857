package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// QueueSender enqueues a message body on a queue.
type QueueSender interface {
	SendMessage(ctx context.Context, queueURL, body string, attributes map[string]string) error
}

type SQSClient struct {
	client *sqs.Client
}

func NewSQSClient(cfg sdkaws.Config) *SQSClient {
	return &SQSClient{client: sqs.NewFromConfig(cfg)}
}

// SendMessage sends a single message with optional string attributes.
func (c *SQSClient) SendMessage(ctx context.Context, queueURL, body string, attributes map[string]string) error {
	if queueURL == "" {
		return fmt.Errorf("empty queueURL")
	}

	attrs := make(map[string]types.MessageAttributeValue, len(attributes))
	for k, v := range attributes {
		attrs[k] = types.MessageAttributeValue{
			DataType:    sdkaws.String("String"),
			StringValue: sdkaws.String(v),
		}
	}

	_, err := c.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:          sdkaws.String(queueURL),
		MessageBody:       sdkaws.String(body),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
