package servicetest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/config"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
)

// Now is the initial clock of every Env.
var Now = time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

// Env wires every service onto in-memory stores and recording fakes.
type Env struct {
	DB        *DB
	Notifier  *Notifier
	Publisher *Publisher
	Model     *Model
	Cache     *Cache
	Config    *config.Config
	Services  *service.Services

	mu  sync.Mutex
	now time.Time
}

// Config returns a valid development configuration with a test secret.
func Config() *config.Config {
	cfg := config.Default()
	cfg.JWT.Secret = "test-secret"
	cfg.Order.DeliveryFee = decimal.NewFromInt(40)
	return &cfg
}

func NewEnv() *Env {
	env := &Env{
		DB:        New(),
		Notifier:  &Notifier{},
		Publisher: &Publisher{},
		Model:     &Model{},
		Cache:     NewCache(),
		Config:    Config(),
		now:       Now,
	}
	env.Services = service.NewServices(env.Config, service.Deps{
		Stores:    env.DB.Stores(),
		Cache:     env.Cache,
		Publisher: env.Publisher,
		Notifier:  env.Notifier,
		Model:     env.Model,
		Log:       zap.NewNop(),
	})
	env.Services.SetClock(env.Clock)
	return env
}

// Clock is the time source handed to the services.
func (e *Env) Clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// Advance moves the clock forward by d.
func (e *Env) Advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// Password is the password SignIn registers with.
const Password = "secret123"

// SignIn registers username, replaces its roles when any are given, and
// logs in. It returns the account and a bearer token.
func (e *Env) SignIn(username string, roles ...models.Role) (*models.User, string, error) {
	ctx := context.Background()
	email := strings.ToLower(username) + "@farm.test"

	user, err := e.Services.Auth.Register(ctx, models.RegisterRequest{
		Username: username,
		Email:    email,
		Password: Password,
	})
	if err != nil {
		return nil, "", err
	}

	if len(roles) > 0 {
		user.Roles = roles
		if user, err = e.DB.Users.Update(ctx, *user); err != nil {
			return nil, "", err
		}
	}

	token, user, err := e.Services.Auth.Login(ctx, models.LoginRequest{Email: email, Password: Password})
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
