// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/shulgold/newsletter-engine/internal/controller"
	"github.com/shulgold/newsletter-engine/internal/db"
	"github.com/shulgold/newsletter-engine/internal/handler"
	"github.com/shulgold/newsletter-engine/internal/queue"
	"github.com/shulgold/newsletter-engine/internal/repository"
	"github.com/shulgold/newsletter-engine/internal/service"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	newsletterRepo := &repository.NewsletterRepository{DB: db.DB}
	subscriberRepo := &repository.SubscriberRepository{DB: db.DB}
	segmentRepo := &repository.SegmentRepository{DB: db.DB}
	sendRepo := &repository.SendRepository{DB: db.DB}
	recipientRepo := &repository.RecipientLogRepository{DB: db.DB}
	trackingRepo := &repository.TrackingRepository{DB: db.DB}

	var publisher queue.Publisher = queue.NoopPublisher{}
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		q, err := queue.Dial(amqpURL)
		if err != nil {
			log.Println("⚠️ AMQP unavailable, sends will wait for the worker tick:", err)
		} else {
			defer q.Close()
			publisher = q
		}
	}

	initiator := &service.SendInitiator{
		NewsletterRepo: newsletterRepo,
		SegmentRepo:    segmentRepo,
		SendRepo:       sendRepo,
		Resolver:       &service.SegmentResolver{SubscriberRepo: subscriberRepo},
		Queue:          publisher,
	}

	newsletterController := &controller.NewsletterController{
		NewsletterRepo: newsletterRepo,
		SegmentRepo:    segmentRepo,
		SendRepo:       sendRepo,
		RecipientRepo:  recipientRepo,
		TrackingRepo:   trackingRepo,
		Initiator:      initiator,
	}

	trackingHandler := &handler.TrackingHandler{
		TrackingRepo: trackingRepo,
	}

	r := chi.NewRouter()

	// Newsletter routes
	r.Post("/newsletters", newsletterController.CreateNewsletter)
	r.Get("/newsletters", newsletterController.ListNewsletters)
	r.Get("/newsletters/{id}", newsletterController.GetNewsletter)
	r.Post("/newsletters/{id}/send", newsletterController.InitiateSend)
	r.Get("/newsletters/{id}/sends", newsletterController.ListSends)

	// Segment routes
	r.Post("/segments", newsletterController.CreateSegment)
	r.Get("/segments", newsletterController.ListSegments)

	// Public tracking routes
	r.Get("/track/open", trackingHandler.Open)
	r.Get("/track/click", trackingHandler.Click)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("🚀 Server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
