package kafka

import (
	"github.com/xdg-go/scram"
)

// scramSHA512Client adapts xdg-go/scram to sarama's SCRAMClient interface.
type scramSHA512Client struct {
	client       *scram.Client
	conversation *scram.ClientConversation
}

func (c *scramSHA512Client) Begin(userName, password, authzID string) error {
	client, err := scram.SHA512.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}

	c.client = client
	c.conversation = client.NewConversation()

	return nil
}

func (c *scramSHA512Client) Step(challenge string) (string, error) {
	return c.conversation.Step(challenge)
}

func (c *scramSHA512Client) Done() bool {
	return c.conversation.Done()
}
