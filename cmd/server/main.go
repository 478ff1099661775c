// cmd/server starts the commerce spine's HTTP surface plus its
// background planes: the vendor-scrape cron scheduler and stale-job
// reaper, and the payment-gateway webhook's daily/30-minute timers.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"

	"github.com/floorworks/commerce/internal/auth"
	"github.com/floorworks/commerce/internal/commission"
	"github.com/floorworks/commerce/internal/config"
	"github.com/floorworks/commerce/internal/email"
	"github.com/floorworks/commerce/internal/events"
	"github.com/floorworks/commerce/internal/httpapi"
	"github.com/floorworks/commerce/internal/jobs"
	"github.com/floorworks/commerce/internal/logging"
	"github.com/floorworks/commerce/internal/orders"
	"github.com/floorworks/commerce/internal/payments"
	"github.com/floorworks/commerce/internal/pricing"
	"github.com/floorworks/commerce/internal/purchaseorders"
	"github.com/floorworks/commerce/internal/render"
	"github.com/floorworks/commerce/internal/scraper"
	"github.com/floorworks/commerce/internal/shipping"
	"github.com/floorworks/commerce/internal/storage"
	"github.com/floorworks/commerce/internal/store"
	"github.com/floorworks/commerce/internal/webhook"
)

func main() {
	debug := flag.Bool("debug", false, "sets log level to debug")
	flag.Parse()

	logger := logging.Default()
	if err := run(logger, *debug); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(logger zerolog.Logger, debug bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = logging.New(os.Stdout, cfg.App.Env, debug)

	st, err := store.New(ctx, cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer st.Close()
	logger.Info().Msg("database connection established")

	emailSender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	emailSvc, err := email.NewService(emailSender, cfg.SMTP.From, cfg.App.Name, "web/templates")
	if err != nil {
		return fmt.Errorf("load email templates: %w", err)
	}

	authSvc := auth.New(st, cfg.Auth, cfg.SMTP.Host != "")
	pricingSvc := pricing.New(st)

	parcelRater := shipping.NewHTTPParcelRater(shipping.ParcelRaterConfig{
		APIKey:    cfg.Rater.ParcelAPIKey,
		OriginZIP: cfg.Rater.OriginZIP,
		Timeout:   10 * time.Second,
		Logger:    logger,
	})
	ltlRater := shipping.NewHTTPLTLRater(shipping.LTLRaterConfig{
		APIKey:  cfg.Rater.LTLClientID,
		Timeout: 15 * time.Second,
		Logger:  logger,
	})
	shippingSvc := shipping.NewService(st, parcelRater, ltlRater, cfg.Rater.OriginZIP)

	sshConfig, err := ediSSHConfig(cfg.EDI.SFTPKeyPath)
	if err != nil {
		return fmt.Errorf("load edi ssh key: %w", err)
	}
	ediDispatcher := purchaseorders.NewEDIDispatcher(cfg.EDI.ISAQualifier, cfg.EDI.ISAID, sshConfig)

	poRenderer, err := render.NewHTMLRenderer()
	if err != nil {
		return fmt.Errorf("build purchase order renderer: %w", err)
	}
	var docStore storage.Store
	if cfg.Storage.Bucket != "" {
		docStore, err = storage.New(cfg.Storage)
		if err != nil {
			return fmt.Errorf("connect document storage: %w", err)
		}
	} else {
		logger.Warn().Msg("no storage bucket configured, purchase order documents will not be archived")
	}
	purchaseOrderSvc := purchaseorders.New(st, ediDispatcher, emailSvc, poRenderer, docStore)

	stripeGateway := payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	paymentsSvc := payments.New(st, stripeGateway)

	commissionSvc := commission.New(st)
	ordersSvc := orders.New(st, pricingSvc, shippingSvc, purchaseOrderSvc, commissionSvc, paymentsSvc)

	queue := jobs.New(emailSvc, commissionSvc, cfg.SMTP.From, 256, 4, logger)
	go queue.Run(ctx)

	registry := scraper.NewRegistry()
	orchestrator := scraper.New(st, registry, scraper.Config{
		CatalogPoolSize:    cfg.Scraper.CatalogPoolSize,
		EnrichmentPoolSize: cfg.Scraper.EnrichmentPoolSize,
		DefaultTimeout:     cfg.Scraper.ScraperTimeout(),
	}, logger)
	orchestrator.SetNotifier(queue)

	scheduler := scraper.NewScheduler(st, orchestrator, logger)
	if err := scheduler.LoadActive(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to load active vendor sources into cron scheduler")
	}
	scheduler.Start()
	defer scheduler.Stop()

	reaper := scraper.NewReaper(st, cfg.Scraper.StaleThreshold(), 15*time.Minute, queue)
	go reaper.Run(ctx)

	var eventsPublisher *events.Publisher
	if pub, err := events.Connect(cfg.NATS.URL, cfg.NATS.Namespace, logger); err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, domain events disabled")
	} else {
		eventsPublisher = pub
		defer eventsPublisher.Close()
	}

	stripeWebhook := webhook.NewStripeHandler(st, stripeGateway, queue, logger)

	dailyMaintenance := webhook.NewDailyMaintenance(st, logger)
	go func() {
		timer := time.NewTimer(dailyMaintenance.UntilNextRun())
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		dailyMaintenance.Run(ctx)
	}()

	stockAlert := webhook.NewStockAlert(st, logger)
	go stockAlert.Run(ctx)

	srv := httpapi.New(httpapi.Deps{
		Store:          st,
		Auth:           authSvc,
		Pricing:        pricingSvc,
		Shipping:       shippingSvc,
		PurchaseOrders: purchaseOrderSvc,
		Payments:       paymentsSvc,
		Commission:     commissionSvc,
		Orders:         ordersSvc,
		Orchestrator:   orchestrator,
		Registry:       registry,
		StripeWebhook:  stripeWebhook,
		Events:         eventsPublisher,
		Queue:          queue,
		Email:          emailSvc,
		Log:            logger,
	})

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	go func() {
		logger.Info().Str("addr", addr).Msg("http server starting")
		if err := srv.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Echo.Shutdown(shutdownCtx)
}

// ediSSHConfig builds the SFTP client config EDIDispatcher dials vendor
// inboxes with. Returns a config with no auth methods (dial will fail
// loudly) when no key is configured, so local/dev boots don't require
// one.
func ediSSHConfig(keyPath string) (*ssh.ClientConfig, error) {
	cfg := &ssh.ClientConfig{
		User:            "edi",
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}
	if keyPath == "" {
		return cfg, nil
	}
	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read edi ssh key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse edi ssh key: %w", err)
	}
	cfg.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}
	return cfg, nil
}
