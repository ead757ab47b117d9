package delivery

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSConfig holds the credentials for the Amazon SNS SMS channel.
type SNSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SenderID        string
}

// SNS sends SMS through Amazon Simple Notification Service.
type SNS struct {
	client   *sns.Client
	senderID string
	ready    bool
}

func NewSNS(ctx context.Context, cfg SNSConfig) (*SNS, error) {
	if cfg.Region == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return &SNS{ready: false}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, err
	}

	return &SNS{
		client:   sns.NewFromConfig(awsCfg),
		senderID: cfg.SenderID,
		ready:    true,
	}, nil
}

func (s *SNS) Name() string {
	return "aws_sns"
}

func (s *SNS) IsAvailable() bool {
	return s.ready
}

func (s *SNS) Send(ctx context.Context, destination, message string) error {
	input := &sns.PublishInput{
		Message:     aws.String(message),
		PhoneNumber: aws.String(destination),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}
	if s.senderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	_, err := s.client.Publish(ctx, input)

	return err
}
