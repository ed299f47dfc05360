package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/authcore/auth-service/auth"
	"github.com/authcore/auth-service/internal/config"
	"github.com/authcore/auth-service/policy/lambdachecker"
	"github.com/authcore/auth-service/secrets"
	"github.com/authcore/auth-service/server"
	"github.com/authcore/auth-service/token"
	"github.com/authcore/auth-service/users/dynamorepo"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())
	logger := newLogger(c)

	authService, err := buildAuthService(context.Background(), c, logger)
	if err != nil {
		return fmt.Errorf("buildAuthService: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: server.New(c, authService, logger)}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildAuthService(ctx context.Context, c config.Config, logger zerolog.Logger) (*auth.Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.GetAWSRegion()))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	endpoint := c.GetAWSEndpoint()

	dynamoClient := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	secretsClient := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	lambdaClient := lambda.NewFromConfig(awsCfg, func(o *lambda.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	tokens := token.NewManager(
		secrets.NewProvider(secretsClient, c.GetJWTSecretID()),
		c.GetAccessTokenTTL(),
		c.GetRefreshTokenTTL(),
	)

	return auth.NewService(
		auth.Repos{Users: dynamorepo.New(dynamoClient, c.GetTableName())},
		tokens,
		lambdachecker.New(lambdaClient, c.GetPasswordCheckFunction()),
		auth.WithLogger(logger),
	)
}

func newLogger(c config.Config) zerolog.Logger {
	if c.GetEnv() == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
