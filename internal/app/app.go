package app

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
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

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	bcrypt    hash.Hash
	uuid      uid.StringID
	generator passcode.Generator

	// resources
	cacheConn  *redis.Client
	limiter    throttle.Limiter
	mail       mail.Mail
	messaging  messaging.Messaging
	dispatcher *delivery.Dispatcher

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initDelivery()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
