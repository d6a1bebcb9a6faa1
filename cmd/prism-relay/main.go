package main

import (
	"context"
	"crypto/tls"
	"flag"
	"strings"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"prism-sync/config"
	"prism-sync/internal/consts"
	"prism-sync/relay"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if err := cfg.ValidateRelay(); err != nil {
		log.Fatalf("config: %v", err)
	}

	var auth relay.Authenticator
	switch {
	case cfg.Auth.TestSecret != "":
		auth = relay.NewTestAuth(cfg.Auth.TestSecret)
	case cfg.Auth.Anonymous:
		log.Warn("relay running without authentication")
	default:
		jwks, err := keyfunc.Get(cfg.Auth.JWKSURL(), keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = relay.NewAuth(jwks, cfg.Auth.Audience, cfg.Auth.Issuer())
	}

	logger := log.New()
	logger.SetLevel(log.GetLevel())

	var pub relay.Publisher
	var rc *redis.Client
	if cfg.RedisURL != "" {
		rc = redis.NewClient(redisOptions(cfg.RedisURL))
		pub = relay.NewRedisPublisher(rc, consts.RelayChannel)
	}
	hub := relay.NewHub(logger, pub)
	if rc != nil {
		go relay.SubscribeFanout(context.Background(), logger, rc, consts.RelayChannel, hub)
	}

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	relay.Register(e, hub, auth, logger)

	e.Logger.Fatal(e.Start(cfg.RelayAddr))
}

// redisOptions accepts a redis:// URL or an Azure style "host:port,password=...,ssl=True" string.
func redisOptions(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
