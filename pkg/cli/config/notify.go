package config

import "github.com/urfave/cli/v3"

// Notify holds failure notification configuration
type Notify struct {
	SlackWebhookURL string `masq:"secret"`
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL notified on failure",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("RUNFETCH_SLACK_WEBHOOK_URL"),
		},
	}
}
