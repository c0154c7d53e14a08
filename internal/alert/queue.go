package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type queueSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// QueueChannel publishes a match event for downstream consumers such as a
// hospital dashboard or a push notification worker.
type QueueChannel struct {
	client   queueSender
	queueURL string
}

func NewQueueChannel(client *sqs.Client, queueURL string) *QueueChannel {
	return &QueueChannel{client: client, queueURL: queueURL}
}

// ResolveQueueURL looks up the url of a queue by name.
func ResolveQueueURL(ctx context.Context, client *sqs.Client, name string) (string, error) {
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err != nil {
		return "", fmt.Errorf("failed to resolve queue %s: %w", name, err)
	}
	return aws.ToString(out.QueueUrl), nil
}

type matchEvent struct {
	Type      string    `json:"type"`
	DonorID   string    `json:"donorId"`
	PatientID string    `json:"patientId"`
	BloodType string    `json:"bloodType"`
	Urgency   string    `json:"urgency"`
	SentAt    time.Time `json:"sentAt"`
}

func (c *QueueChannel) Name() string {
	return "queue"
}

func (c *QueueChannel) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(matchEvent{
		Type:      "donor.matched",
		DonorID:   n.Donor.ID,
		PatientID: n.Patient.ID,
		BloodType: string(n.Patient.BloodType),
		Urgency:   string(n.Patient.Urgency),
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode match event: %w", err)
	}

	_, err = c.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to publish match event: %w", err)
	}

	return nil
}
