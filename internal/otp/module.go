package otp

import (
	"github.com/redis/go-redis/v9"
	"github.com/scrapgain/otp-service/internal/otp/inbound"
	"github.com/scrapgain/otp-service/internal/otp/outbound/delivery"
	"github.com/scrapgain/otp-service/internal/otp/outbound/mq"
	"github.com/scrapgain/otp-service/internal/otp/outbound/store"
	"github.com/scrapgain/otp-service/internal/otp/usecase"
	"github.com/scrapgain/otp-service/internal/pkg/clock"
	"github.com/scrapgain/otp-service/internal/pkg/config"
	"github.com/scrapgain/otp-service/internal/pkg/goroutine"
	"github.com/scrapgain/otp-service/internal/pkg/hash"
	"github.com/scrapgain/otp-service/internal/pkg/instrument"
	"github.com/scrapgain/otp-service/internal/pkg/messaging"
	"github.com/scrapgain/otp-service/internal/pkg/passcode"
	"github.com/scrapgain/otp-service/internal/pkg/router"
	"github.com/scrapgain/otp-service/internal/pkg/throttle"
	"github.com/scrapgain/otp-service/internal/pkg/uid"
	"github.com/scrapgain/otp-service/internal/pkg/validator"
)

type Dependency struct {
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Dispatcher *delivery.Dispatcher       `validate:"required"`
	Limiter    throttle.Limiter           `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Generator  passcode.Generator         `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoStore := store.NewStore(dep.CacheConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoStore:     repoStore,
		RepoMessaging: repoMsg,
		Dispatcher:    dep.Dispatcher,
		Limiter:       dep.Limiter,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Bcrypt:        dep.Bcrypt,
		Generator:     dep.Generator,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
