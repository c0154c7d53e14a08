package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	DatabaseSchema  string `envconfig:"DATABASE_SCHEMA" default:"lifelink"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Admin capability check for import/export and lifecycle commands
	AdminAPIKey string `envconfig:"ADMIN_API_KEY"`

	// Matching
	DefaultRadiusKm     float64 `envconfig:"DEFAULT_RADIUS_KM" default:"10"`
	MatchQueryTimeoutMS uint    `envconfig:"MATCH_QUERY_TIMEOUT_MS" default:"3000"`

	// Onboarding passcode
	OTPLength     int  `envconfig:"OTP_LENGTH" default:"6"`
	OTPTTLMinutes uint `envconfig:"OTP_TTL_MINUTES" default:"10"`

	// Export mirror
	MirrorPath    string `envconfig:"MIRROR_PATH" default:"data/lifelink_db.xlsx"`
	ArchiveBucket string `envconfig:"ARCHIVE_BUCKET"`
	ArchivePrefix string `envconfig:"ARCHIVE_PREFIX" default:"exports"`

	// Alerts
	AlertTimeoutMS    uint   `envconfig:"ALERT_TIMEOUT_MS" default:"5000"`
	AlertDedupeMin    uint   `envconfig:"ALERT_DEDUPE_MINUTES" default:"30"`
	AlertQueueName    string `envconfig:"ALERT_QUEUE_NAME"`
	RedisURL          string `envconfig:"REDIS_URL"`
	SMTPHost          string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort          int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername      string `envconfig:"SMTP_USERNAME"`
	SMTPPassword      string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom          string `envconfig:"SMTP_FROM"`
	TwilioAccountSID  string `envconfig:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken   string `envconfig:"TWILIO_AUTH_TOKEN"`
	TwilioPhoneNumber string `envconfig:"TWILIO_PHONE_NUMBER"`
	SMSCountryCode    string `envconfig:"SMS_COUNTRY_CODE" default:"+91"`
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioPhoneNumber != ""
}
