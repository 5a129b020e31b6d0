// The reminders command runs the cron-driven reminder dispatcher.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"

	"github.com/praxisos/praxis-server/internal/config"
	"github.com/praxisos/praxis-server/internal/logging"
	"github.com/praxisos/praxis-server/internal/reminders"
	"github.com/praxisos/praxis-server/internal/store"
	"github.com/praxisos/praxis-server/internal/supabase"
)

func main() {
	var (
		schedule = flag.String("schedule", "*/5 * * * *", "cron schedule for the dispatch run")
		pushURL  = flag.String("push-url", "http://localhost:8080/api/v1/push/send", "push dispatch endpoint")
	)
	flag.Parse()

	logger := logging.New("reminders", "info", "json")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load configuration")
	}

	client, err := supabase.New(supabase.Config{
		ProjectURL: cfg.SupabaseURL,
		AnonKey:    cfg.SupabaseAnonKey,
		ServiceKey: cfg.SupabaseServiceKey,
	})
	if err != nil {
		logger.WithError(err).Fatal("create supabase client")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Fatal("connect redis")
	}
	defer rdb.Close()

	dispatcher := reminders.New(store.New(client, logger), rdb, reminders.Config{
		PushURL:    *pushURL,
		PushSecret: cfg.PushSharedSecret,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cron.New()
	_, err = c.AddFunc(*schedule, func() {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		if err := dispatcher.RunOnce(runCtx, time.Now()); err != nil {
			logger.WithError(err).Error("dispatch run failed")
		}
	})
	if err != nil {
		logger.WithError(err).Fatal("invalid schedule")
	}

	logger.WithField("schedule", *schedule).Info("reminder dispatcher started")
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info("reminder dispatcher stopped")
}
