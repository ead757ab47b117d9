package app

import (
	"log/slog"
	"os"

	"github.com/scrapgain/otp-service/internal/otp"
)

func (a *App) initModules() {
	if err := otp.New(otp.Dependency{
		Config:     a.config,
		Instrument: a.ins,
		UUID:       a.uuid,
		Bcrypt:     a.bcrypt,
		Generator:  a.generator,
		Clock:      a.clock,
		Validator:  a.validator,
		Router:     a.router,
		CacheConn:  a.cacheConn,
		Messaging:  a.messaging,
		Dispatcher: a.dispatcher,
		Limiter:    a.limiter,
		Goroutine:  a.goroutine,
	}); err != nil {
		slog.Error("failed to init module otp", "error", err)
		os.Exit(1)
	}
}
