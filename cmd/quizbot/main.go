package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IT-Nick/mathquiz/internal/app"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML config")
	flag.Parse()

	bot, err := app.NewBotApp(*configPath)
	if err != nil {
		log.Fatalf("Не удалось создать бота: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case <-done:
		log.Println("Bot stopped")
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	bot.Stop(shutdownCtx)
	<-done
}
