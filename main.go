package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitwise74/recipe-api/api"
	"bitwise74/recipe-api/config"
	"bitwise74/recipe-api/db"
	"bitwise74/recipe-api/internal/auth"
	"bitwise74/recipe-api/internal/mail"
	"bitwise74/recipe-api/internal/service"
	"bitwise74/recipe-api/internal/session"
	"bitwise74/recipe-api/internal/store"
	"bitwise74/recipe-api/pkg/middleware"
	"bitwise74/recipe-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := api.MakeLogger(viper.GetString("app.log_level")); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	if err := run(); err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}

func run() error {
	gdb, err := db.New(viper.GetString("db.driver"), viper.GetString("db.dsn"))
	if err != nil {
		return fmt.Errorf("failed to initialize database, %w", err)
	}

	if *config.MigrateOnly {
		zap.L().Info("Migrations applied")
		return nil
	}

	st := store.New(gdb)

	hasher := security.NewArgon()
	hasher.Memory = viper.GetUint32("security.argon_memory")
	hasher.Iterations = viper.GetUint32("security.argon_iterations")

	tokens, err := security.NewTokens(viper.GetString("jwt.secret"))
	if err != nil {
		return err
	}

	accessTTL := viper.GetDuration("jwt.access_ttl")
	refreshTTL := viper.GetDuration("jwt.refresh_ttl")
	otpTTL := viper.GetDuration("otp.ttl")

	dispatcher, worker, err := makeDispatcher(otpTTL)
	if err != nil {
		return err
	}

	svc := auth.New(st, hasher, tokens, dispatcher, auth.Config{
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		OTPTTL:     otpTTL,
	})

	cleanup, err := service.NewOTPCleanup(st, viper.GetString("otp.cleanup_schedule"))
	if err != nil {
		return err
	}
	cleanup.Start()
	defer cleanup.Stop()

	cookies := session.NewCookieManager(config.Production(), accessTTL, refreshTTL)

	a := api.NewRouter(api.Options{
		Auth:    svc,
		Reader:  session.NewReader(tokens, st, cookies),
		Cookies: cookies,
		Gate: &middleware.Gate{
			Protected:  viper.GetStringSlice("gate.protected_paths"),
			AuthOnly:   viper.GetStringSlice("gate.auth_paths"),
			SignInPath: viper.GetString("gate.signin_path"),
			HomePath:   viper.GetString("gate.home_path"),
			Tokens:     tokens,
		},
		RateLimit:   viper.GetFloat64("security.rate_limit"),
		CORSOrigins: viper.GetStringSlice("host.cors_origins"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.Limiter.Cleanup(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", viper.GetInt("host.port")),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		zap.L().Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shut down server gracefully", zap.Error(err))
	}

	// Let queued or in flight verification mail go out before exiting
	svc.Wait()

	if worker != nil {
		worker.Shutdown()
	}

	if c, ok := dispatcher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			zap.L().Error("Failed to close mail queue", zap.Error(err))
		}
	}

	return nil
}

// makeDispatcher picks how verification codes leave the process: through
// the redis retry queue, straight over SMTP, or into the debug log when mail
// is disabled
func makeDispatcher(codeTTL time.Duration) (mail.Dispatcher, *mail.Worker, error) {
	if !viper.GetBool("mail.enabled") {
		zap.L().Warn("Mail is disabled, verification codes are only written to the debug log")
		return mail.LogDispatcher{}, nil, nil
	}

	sender := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     viper.GetString("mail.host"),
		Port:     viper.GetInt("mail.port"),
		Username: viper.GetString("mail.username"),
		Password: viper.GetString("mail.password"),
		From:     viper.GetString("mail.from"),
		CodeTTL:  codeTTL,
	})

	if viper.GetString("queue.redis_addr") == "" {
		return sender, nil, nil
	}

	qcfg := mail.QueueConfig{
		RedisAddr:     viper.GetString("queue.redis_addr"),
		RedisPassword: viper.GetString("queue.redis_password"),
		RedisDB:       viper.GetInt("queue.redis_db"),
		Concurrency:   viper.GetInt("queue.concurrency"),
		MaxRetry:      viper.GetInt("queue.max_retry"),
		Retention:     codeTTL,
	}

	worker := mail.NewWorker(qcfg, sender)
	if err := worker.Start(); err != nil {
		return nil, nil, err
	}

	return mail.NewQueue(qcfg), worker, nil
}
