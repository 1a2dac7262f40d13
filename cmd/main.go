package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	tonpvp "github.com/Giorgio223/ton-pvp-app"
	"github.com/Giorgio223/ton-pvp-app/internal/address"
	"github.com/Giorgio223/ton-pvp-app/pkg/amount"
	"github.com/Giorgio223/ton-pvp-app/pkg/cache"
	"github.com/Giorgio223/ton-pvp-app/pkg/handler"
	"github.com/Giorgio223/ton-pvp-app/pkg/notify"
	"github.com/Giorgio223/ton-pvp-app/pkg/repository"
	"github.com/Giorgio223/ton-pvp-app/pkg/service"
	"github.com/Giorgio223/ton-pvp-app/pkg/tonclient"
)

func main() {
	logger := logrus.StandardLogger()
	logger.SetFormatter(new(logrus.JSONFormatter))

	if err := godotenv.Load(); err != nil {
		logger.Infof("no .env loaded: %s", err)
	}
	if err := InitConfig(); err != nil {
		logger.Fatalf("read config: %s", err)
	}
	if level, err := logrus.ParseLevel(viper.GetString("log.level")); err == nil {
		logger.SetLevel(level)
	}
	logger.Info("starting ton-pvp ledger")

	db, err := repository.NewPostgresDB(repository.Config{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   viper.GetString("db.dbname"),
		SSLMode:  viper.GetString("db.sslmode"),
		MaxConns: viper.GetInt("db.max_conns"),
	})
	if err != nil {
		logger.Fatalf("connect database: %s", err)
	}
	logger.Info("database connected")

	withdrawalCfg, err := loadWithdrawalConfig()
	if err != nil {
		logger.Fatalf("withdrawal config: %s", err)
	}

	payTo := viper.GetString("indexer.wallet_address")
	if _, err := address.Destination(payTo); err != nil {
		logger.Fatalf("indexer.wallet_address: %s", err)
	}
	payoutURL := viper.GetString("payout.base_url")
	if payoutURL == "" {
		logger.Fatal("payout.base_url is required")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(registry)

	mailer := notify.NewMailer(notify.Config{
		From:             viper.GetString("mail.from"),
		To:               viper.GetString("mail.admin"),
		MailjetAPIKey:    os.Getenv("MAILJET_API_KEY"),
		MailjetSecretKey: os.Getenv("MAILJET_SECRET_KEY"),
		SMTPHost:         viper.GetString("mail.smtp_host"),
		SMTPPort:         viper.GetInt("mail.smtp_port"),
		SMTPUser:         viper.GetString("mail.smtp_user"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
	}, logger)

	repos := repository.NewRepository(db)
	services := service.NewService(repos, service.Deps{
		Gateway: tonclient.NewPayoutClient(tonclient.Config{
			BaseURL: payoutURL,
			APIKey:  os.Getenv("PAYOUT_API_KEY"),
			Timeout: withdrawalCfg.PayoutTimeout,
		}),
		Notifier:     mailer,
		Metrics:      metrics,
		Logger:       logger,
		Withdrawal:   withdrawalCfg,
		PayToAddress: payTo,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Withdrawal.ReportStale(ctx); err != nil {
		logger.WithError(err).Error("stale withdrawal check failed")
	}

	var rdb *redis.Client
	if indexerURL := viper.GetString("indexer.base_url"); indexerURL != "" {
		var cursor service.CursorStore = &cache.MemoryCursor{}
		if addr := viper.GetString("redis.addr"); addr != "" {
			rdb = redis.NewClient(&redis.Options{
				Addr:     addr,
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       viper.GetInt("redis.db"),
			})
			cursor = cache.NewRedisCursor(rdb, viper.GetString("redis.cursor_key"))
		} else {
			logger.Warn("redis.addr not set, deposit watcher cursor kept in memory")
		}

		watcher := service.NewDepositWatcher(
			tonclient.NewIndexer(tonclient.Config{
				BaseURL: indexerURL,
				APIKey:  os.Getenv("INDEXER_API_KEY"),
				Timeout: 15 * time.Second,
			}, payTo),
			services.Deposit,
			cursor,
			cache.NewSeenCache(viper.GetDuration("indexer.seen_ttl"), logger),
			viper.GetDuration("indexer.poll_interval"),
			metrics,
			logger,
		)
		go watcher.Run(ctx)
	} else {
		logger.Warn("indexer.base_url not set, deposits are confirmed manually only")
	}

	h := handler.NewHandler(services, handler.Options{
		AdminToken:  os.Getenv("ADMIN_TOKEN"),
		CORSOrigins: viper.GetStringSlice("cors.origins"),
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:      logger,
	})

	srv := new(tonpvp.Server)
	go func() {
		if err := srv.Run(viper.GetString("port"), h.InitRoute()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http server: %s", err)
		}
	}()
	logger.WithField("port", viper.GetString("port")).Info("http server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown")
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.WithError(err).Error("redis close")
		}
	}
	if err := db.Close(); err != nil {
		logger.WithError(err).Error("database close")
	}
}

func InitConfig() error {
	viper.AddConfigPath("configs")
	viper.SetConfigName("config")
	viper.SetEnvPrefix("TONPVP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("port", "8000")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("withdrawal.min_amount", "0.1")
	viper.SetDefault("withdrawal.auto_payout_ceiling", "0")
	viper.SetDefault("withdrawal.payout_timeout", "30s")
	viper.SetDefault("withdrawal.stale_after", "10m")
	viper.SetDefault("indexer.poll_interval", "15s")
	viper.SetDefault("indexer.seen_ttl", "1h")
	return viper.ReadInConfig()
}

// loadWithdrawalConfig parses the thresholds once; they are fixed for the life of the process.
func loadWithdrawalConfig() (service.WithdrawalConfig, error) {
	minAmount, err := amount.Parse(viper.GetString("withdrawal.min_amount"))
	if err != nil {
		return service.WithdrawalConfig{}, errors.Wrap(err, "withdrawal.min_amount")
	}
	ceiling, err := amount.Parse(viper.GetString("withdrawal.auto_payout_ceiling"))
	if err != nil {
		return service.WithdrawalConfig{}, errors.Wrap(err, "withdrawal.auto_payout_ceiling")
	}
	return service.WithdrawalConfig{
		MinAmount:         minAmount,
		AutoPayoutCeiling: ceiling,
		PayoutTimeout:     viper.GetDuration("withdrawal.payout_timeout"),
		StaleAfter:        viper.GetDuration("withdrawal.stale_after"),
	}, nil
}
