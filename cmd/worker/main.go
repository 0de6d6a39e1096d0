package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/shulgold/newsletter-engine/internal/db"
	"github.com/shulgold/newsletter-engine/internal/queue"
	"github.com/shulgold/newsletter-engine/internal/repository"
	"github.com/shulgold/newsletter-engine/internal/service"
	"github.com/shulgold/newsletter-engine/internal/transport"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	db.Init()

	processor := &service.BatchProcessor{
		SendRepo:       &repository.SendRepository{DB: db.DB},
		RecipientRepo:  &repository.RecipientLogRepository{DB: db.DB},
		NewsletterRepo: &repository.NewsletterRepository{DB: db.DB},
		Sender:         senderFromEnv(),
		Instrumentor: &service.Instrumentor{
			BaseURL: os.Getenv("TRACKING_BASE_URL"),
		},
		BatchSize:    intFromEnv("BATCH_SIZE", service.DefaultBatchSize),
		ChunkSize:    intFromEnv("CHUNK_SIZE", service.DefaultChunkSize),
		ChunkDelay:   time.Duration(intFromEnv("CHUNK_DELAY_MS", 600)) * time.Millisecond,
		RequeueAfter: time.Duration(intFromEnv("CLAIM_REQUEUE_MIN", 10)) * time.Minute,
	}

	// Invocations are serialized within this process; the buffered channel
	// coalesces wakeups that arrive while a run is in flight.
	runCh := make(chan struct{}, 1)
	poke := func() {
		select {
		case runCh <- struct{}{}:
		default:
		}
	}

	interval := time.Duration(intFromEnv("WORKER_INTERVAL_SEC", 60)) * time.Second
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		poke()
		for range ticker.C {
			poke()
		}
	}()

	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		q, err := queue.Dial(amqpURL)
		if err != nil {
			log.Println("⚠️ AMQP unavailable, running on tick only:", err)
		} else {
			defer q.Close()
			go func() {
				if err := q.ConsumeWakeups(func(sendID int) {
					log.Println("📩 Wakeup for send", sendID)
					poke()
				}); err != nil {
					log.Println("⚠️ wakeup consumer stopped:", err)
				}
			}()
		}
	}

	log.Println("Worker running, interval", interval)
	for range runCh {
		summary, err := processor.RunOnce()
		if err != nil {
			log.Println("⚠️ run failed:", err)
			continue
		}
		if summary.Reason == "no pending sends" {
			continue
		}
		log.Printf("Run summary: %+v\n", *summary)

		// Keep draining a live send without waiting for the next tick.
		if summary.Processed > 0 {
			poke()
		}
	}
}

func senderFromEnv() transport.BatchSender {
	provider := transport.NewProviderFromEnv()
	if provider == nil {
		log.Println("⚠️ PROVIDER_URL / PROVIDER_API_KEY not set, transport unavailable")
		return nil
	}
	return provider
}

func intFromEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
