package config

import "time"

type Matching struct {
	Reject        float64
	VisibleAccept float64
	VisibleBonus  float64
}

type Voice struct {
	Enabled      bool
	PollInterval time.Duration
	PollAttempts int
	MicIdle      time.Duration
	ToastTTL     time.Duration
}

type Settings struct {
	Port          string
	AllowOrigins  string
	PublicBaseURL string
	JWTSecret     string
	RedisAddr     string

	Matching Matching
	Voice    Voice

	PresenceTTL        time.Duration
	PresenceStaleAfter time.Duration
	DispatchCooldown   time.Duration

	// Hosted checkout endpoints; the session URL is used when set, else the attempt URL.
	PaymentAttemptURL  string
	CheckoutSessionURL string
	PaymentMerchant    string
	PaymentSecret      string

	// Speech to text for audio voice commands, disabled when empty.
	TranscribeURL    string
	TranscribeAPIKey string
	TranscribeModel  string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func Load() Settings {
	return Settings{
		Port:          String("PORT", "8002"),
		AllowOrigins:  String("CORS_ORIGINS", "http://localhost:5173"),
		PublicBaseURL: String("PUBLIC_BASE_URL", "http://localhost:8002"),
		JWTSecret:     Config("JWT_SECRET"),
		RedisAddr:     String("REDIS_ADDR", "localhost:6379"),
		Matching: Matching{
			Reject:        Float("MATCH_REJECT", 0.45),
			VisibleAccept: Float("MATCH_VISIBLE_ACCEPT", 0.55),
			VisibleBonus:  Float("MATCH_VISIBLE_BONUS", 0.08),
		},
		Voice: Voice{
			Enabled:      Bool("SMART_MENU_VOICE_ENABLED", true),
			PollInterval: Duration("VOICE_POLL_INTERVAL", 350*time.Millisecond),
			PollAttempts: Int("VOICE_POLL_ATTEMPTS", 40),
			MicIdle:      Duration("VOICE_MIC_IDLE", 45*time.Second),
			ToastTTL:     Duration("VOICE_TOAST_TTL", 4500*time.Millisecond),
		},
		PresenceTTL:        Duration("PRESENCE_TTL", 10*time.Minute),
		PresenceStaleAfter: Duration("PRESENCE_STALE_AFTER", 5*time.Minute),
		DispatchCooldown:   Duration("DISPATCH_COOLDOWN", 500*time.Millisecond),
		PaymentAttemptURL:  Config("PAYMENT_ATTEMPT_URL"),
		CheckoutSessionURL: Config("CHECKOUT_SESSION_URL"),
		PaymentMerchant:    Config("PAYMENT_MERCHANT"),
		PaymentSecret:      Config("PAYMENT_HASH_SECRET"),
		TranscribeURL:      Config("TRANSCRIBE_URL"),
		TranscribeAPIKey:   Config("TRANSCRIBE_API_KEY"),
		TranscribeModel:    String("TRANSCRIBE_MODEL", "whisper-1"),
		SMTPHost:           Config("SMTP_HOST"),
		SMTPPort:           Int("SMTP_PORT", 587),
		SMTPUsername:       Config("SMTP_USERNAME"),
		SMTPPassword:       Config("SMTP_PASSWORD"),
		SMTPFrom:           Config("SMTP_FROM"),
	}
}
