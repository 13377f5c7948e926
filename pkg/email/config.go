package email

// Config holds email settings. Without Postmark tokens, NewSender falls back
// to a DevSender writing into DevDir.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@livenotify.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@livenotify.local"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}

// NewSender returns a Postmark client when a server token is configured and a
// DevSender otherwise.
func NewSender(cfg Config) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return NewDevSender(cfg.DevDir), nil
	}
	return NewPostmarkClient(cfg)
}
