package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/GabrielMhv/D-Market-sub000/internal/address"
	"github.com/GabrielMhv/D-Market-sub000/internal/cart"
	"github.com/GabrielMhv/D-Market-sub000/internal/checkout"
	"github.com/GabrielMhv/D-Market-sub000/internal/config"
	"github.com/GabrielMhv/D-Market-sub000/internal/db"
	handler "github.com/GabrielMhv/D-Market-sub000/internal/handler/http"
	"github.com/GabrielMhv/D-Market-sub000/internal/media"
	"github.com/GabrielMhv/D-Market-sub000/internal/notification"
	"github.com/GabrielMhv/D-Market-sub000/internal/order"
	"github.com/GabrielMhv/D-Market-sub000/internal/payment"
	"github.com/GabrielMhv/D-Market-sub000/internal/product"
	"github.com/GabrielMhv/D-Market-sub000/internal/settings"
	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

func setupLogger(cfg config.AppConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer = os.Stderr
	if cfg.Env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	if cfg.LogFile != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(out).With().Timestamp().Str("service", cfg.Name).Logger()
}

func newCartSlot(cfg config.CartConfig, rdb *redis.Client) (cart.Slot, func(), error) {
	if cfg.Backend == "bolt" {
		slot, err := cart.OpenBoltSlot(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return slot, func() {
			if err := slot.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close cart store")
			}
		}, nil
	}
	return cart.NewRedisSlot(rdb, cfg.TTL), func() {}, nil
}

func newMediaStorage(cfg config.MediaConfig) (media.Storage, string, error) {
	if cfg.Backend == "sftp" {
		storage, err := media.NewSFTPStorage(media.SFTPConfig{
			Addr:           cfg.SFTPAddr,
			User:           cfg.SFTPUser,
			Password:       cfg.SFTPPassword,
			KnownHostsFile: cfg.SFTPKnownHosts,
			Dir:            cfg.Dir,
		})
		return storage, "", err
	}
	storage, err := media.NewDiskStorage(cfg.Dir)
	if err != nil {
		return nil, "", err
	}
	return storage, storage.Dir(), nil
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)

	log.Info().Str("env", cfg.App.Env).Msg("Storefront starting...")

	if err := db.Migrate(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	ctx := context.Background()
	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pg.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis client")
		}
	}()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
	}

	slot, closeSlot, err := newCartSlot(cfg.Cart, rdb)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cart store")
	}
	defer closeSlot()

	bus := EventBus.New()

	settingsSvc := settings.NewService(settings.NewRepository(pg.Pool), bus)
	orderSvc := order.NewService(order.NewRepository(pg.Pool), bus)
	productSvc := product.NewService(product.NewCachedRepository(product.NewRepository(pg.SQL), rdb))
	addressSvc := address.NewService(address.NewRepository(pg.Pool))

	notifier := notification.NewNotifier(
		notification.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From),
		settingsSvc,
		cfg.App.StorefrontURL,
	)
	if err := notifier.Subscribe(bus); err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe notifier")
	}

	userSvc := user.NewService(
		user.NewRepository(pg.Pool),
		user.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.ResetTokenTTL),
		user.NewRedisDenylist(rdb),
		notifier,
	)

	bridge := payment.NewBridge(
		payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.APIKey, cfg.Payment.Timeout),
		orderSvc,
		settingsSvc,
		cfg.App.PublicURL,
		cfg.App.StorefrontURL,
	)

	carts := cart.NewService(slot)
	carts.OnChange(func(sessionID string, snap cart.Snapshot) {
		log.Debug().Str("session_id", sessionID).Int("count", snap.Count).Int64("total", snap.Total).Msg("Cart changed")
	})
	checkoutSvc := checkout.NewService(carts, orderSvc, settingsSvc, bridge)

	storage, mediaDir, err := newMediaStorage(cfg.Media)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up media storage")
	}
	mediaSvc := media.NewService(storage, cfg.Media.BaseURL, cfg.Media.MaxUploadBytes)

	router := handler.NewRouter(handler.Handlers{
		Auth:          userSvc,
		Users:         handler.NewUserHandler(userSvc),
		Products:      handler.NewProductHandler(productSvc, settingsSvc),
		Cart:          handler.NewCartHandler(carts, productSvc),
		Checkout:      handler.NewCheckoutHandler(checkoutSvc, carts, userSvc, settingsSvc),
		Orders:        handler.NewOrderHandler(orderSvc),
		Address:       handler.NewAddressHandler(addressSvc),
		Settings:      handler.NewSettingsHandler(settingsSvc),
		Payment:       handler.NewPaymentHandler(bridge, orderSvc),
		Media:         handler.NewMediaHandler(mediaSvc, cfg.Media.MaxUploadBytes),
		MediaDir:      mediaDir,
		SessionMaxAge: cfg.Cart.TTL,
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	bus.WaitAsync()

	log.Info().Msg("Storefront stopped gracefully")
}
