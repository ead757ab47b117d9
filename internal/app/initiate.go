package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/scrapgain/otp-service/internal/otp/outbound/delivery"
	"github.com/scrapgain/otp-service/internal/pkg/clock"
	"github.com/scrapgain/otp-service/internal/pkg/config"
	"github.com/scrapgain/otp-service/internal/pkg/goroutine"
	"github.com/scrapgain/otp-service/internal/pkg/hash"
	"github.com/scrapgain/otp-service/internal/pkg/instrument"
	"github.com/scrapgain/otp-service/internal/pkg/mail"
	"github.com/scrapgain/otp-service/internal/pkg/messaging"
	"github.com/scrapgain/otp-service/internal/pkg/passcode"
	"github.com/scrapgain/otp-service/internal/pkg/router"
	"github.com/scrapgain/otp-service/internal/pkg/throttle"
	"github.com/scrapgain/otp-service/internal/pkg/uid"
	"github.com/scrapgain/otp-service/internal/pkg/validator"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          true,
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))

	charset := passcode.CharsetDigits
	if a.config.GetString("modules.otp.charset") == "alphanumeric" {
		charset = passcode.CharsetAlphanumeric
	}
	a.generator = passcode.NewRandom(a.config.GetInt("modules.otp.length"), charset)

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb

	if a.config.GetBool("modules.otp.rate_limit.enabled") {
		a.limiter = throttle.NewFixedWindow(a.cacheConn,
			throttle.Window{
				Name:   "minute",
				Limit:  a.config.GetInt("modules.otp.rate_limit.per_minute"),
				Period: time.Minute,
			},
			throttle.Window{
				Name:   "hour",
				Limit:  a.config.GetInt("modules.otp.rate_limit.per_hour"),
				Period: time.Hour,
			},
		)
	} else {
		a.limiter = throttle.Unlimited{}
	}
}

func (a *App) initMail() {
	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initDelivery() {
	snsChannel, err := delivery.NewSNS(a.ctx, delivery.SNSConfig{
		Region:          a.config.GetString("delivery.sns.region"),
		AccessKeyID:     a.config.GetString("delivery.sns.access_key_id"),
		SecretAccessKey: a.config.GetString("delivery.sns.secret_access_key"),
		SenderID:        a.config.GetString("delivery.sns.sender_id"),
	})
	if err != nil {
		slog.Error("failed to init sns delivery channel", "error", err)
		os.Exit(1)
	}

	twilioChannel := delivery.NewTwilio(delivery.TwilioConfig{
		AccountSID: a.config.GetString("delivery.twilio.account_sid"),
		AuthToken:  a.config.GetString("delivery.twilio.auth_token"),
		FromNumber: a.config.GetString("delivery.twilio.from_number"),
	})

	smsChannel := delivery.SelectSMSChannel(
		a.config.GetString("delivery.sms_provider"),
		twilioChannel,
		snsChannel,
	)

	emailChannel := delivery.NewEmail(a.mail, a.config.GetString("delivery.email.subject"))

	a.dispatcher = delivery.NewDispatcher(smsChannel, emailChannel, delivery.NewLog())
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	a.router.GET("/health", func(_ *router.Request) (any, error) {
		return map[string]string{"status": "ok"}, nil
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
