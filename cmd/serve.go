package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-mailer/app/controller"
	"github.com/vibast-solutions/ms-go-mailer/app/lock"
	"github.com/vibast-solutions/ms-go-mailer/app/logger"
	"github.com/vibast-solutions/ms-go-mailer/app/preparer"
	"github.com/vibast-solutions/ms-go-mailer/app/queue"
	"github.com/vibast-solutions/ms-go-mailer/app/repository"
	"github.com/vibast-solutions/ms-go-mailer/app/service"
	"github.com/vibast-solutions/ms-go-mailer/app/transport"
	"github.com/vibast-solutions/ms-go-mailer/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server accepting email send requests for the mailer service.",
	Run:   runServe,
}

// init registers the serve command.
func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe wires dependencies and starts the HTTP server.
func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MySQLMaxOpen)
	db.SetMaxIdleConns(cfg.MySQLMaxIdle)
	db.SetConnMaxLifetime(cfg.MySQLMaxLife)

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	emailTransport, err := buildTransport(cfg)
	if err != nil {
		log.Fatalf("Failed to build email transport: %v", err)
	}
	log.Infof("Email transport: %s %s", emailTransport.Name(), emailTransport.Version())

	emailPreparer := newPreparer(cfg)
	emailHistory := repository.NewEmailHistoryRepository(db)
	locker := lock.NewRedisLocker(rdb)
	emailService := service.NewEmailService(emailPreparer, emailTransport, emailHistory, locker)
	producer := queue.NewEmailProducer(rdb)
	emailController := controller.NewEmailController(emailService, producer)

	e := setupHTTPServer(emailController)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
		log.Infof("Starting HTTP server on %s", httpAddr)
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP shutdown error: %v", err)
	}

	log.Info("Server stopped")
}

// setupHTTPServer configures the Echo HTTP server and routes.
func setupHTTPServer(emailController *controller.EmailController) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	email := e.Group("/email")
	email.POST("/send/raw", emailController.SendRaw)
	email.GET("/status/:request_id", emailController.Status)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return e
}

// newPreparer builds the preparation pipeline applied before delivery.
func newPreparer(cfg *config.Config) preparer.EmailPreparer {
	return preparer.NewChain(
		preparer.NewEnvelopePreparer(cfg.SourceEmail),
		preparer.NewBodyPreparer(),
		preparer.NewHeaderPreparer(map[string]string{"X-Mailer": "ms-go-mailer"}),
	)
}

// buildTransport selects and configures the delivery backend. Static
// credentials from the configuration take priority; otherwise the AWS
// default credential chain is used.
func buildTransport(cfg *config.Config) (transport.Transport, error) {
	opts := transport.Options{
		AccessKeyID:      cfg.SESAccessKeyID,
		SecretAccessKey:  cfg.SESSecretAccessKey,
		SessionToken:     cfg.SESSessionToken,
		AWSAccessKeyID:   cfg.AWSAccessKeyID,
		AWSSecretKey:     cfg.AWSSecretKey,
		AWSSecurityToken: cfg.AWSSecurityToken,
		Region:           cfg.AWSRegion,
		ServiceURL:       cfg.SESServiceURL,
		Endpoint:         cfg.SESEndpoint,
		MaxAttempts:      cfg.SESMaxAttempts,
	}
	hasStaticCreds := opts.HasStaticCredentials()

	switch strings.ToLower(cfg.EmailTransport) {
	case "", "ses":
		if hasStaticCreds {
			return transport.NewSES(opts), nil
		}
		awsCfg, err := loadAWSConfig(cfg)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*ses.Options)
		if cfg.SESEndpoint != "" {
			clientOpts = append(clientOpts, func(o *ses.Options) { o.BaseEndpoint = aws.String(cfg.SESEndpoint) })
		}
		return transport.NewSESWithClient(ses.NewFromConfig(awsCfg, clientOpts...), opts), nil
	case "sesv2":
		if hasStaticCreds {
			return transport.NewSESV2(opts), nil
		}
		awsCfg, err := loadAWSConfig(cfg)
		if err != nil {
			return nil, err
		}
		var clientOpts []func(*sesv2.Options)
		if cfg.SESEndpoint != "" {
			clientOpts = append(clientOpts, func(o *sesv2.Options) { o.BaseEndpoint = aws.String(cfg.SESEndpoint) })
		}
		return transport.NewSESV2WithClient(sesv2.NewFromConfig(awsCfg, clientOpts...), opts), nil
	case "noop":
		return transport.NewNoop(), nil
	default:
		return nil, fmt.Errorf("unsupported EMAIL_TRANSPORT: %s", cfg.EmailTransport)
	}
}

func loadAWSConfig(cfg *config.Config) (aws.Config, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	return awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
}
