package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/Mbenve9198/exit-wounds/config"
	"github.com/Mbenve9198/exit-wounds/handlers"
	"github.com/Mbenve9198/exit-wounds/middleware"
	"github.com/Mbenve9198/exit-wounds/send"
	"github.com/Mbenve9198/exit-wounds/service"
	"github.com/Mbenve9198/exit-wounds/store"
	"github.com/Mbenve9198/exit-wounds/utils"
)

func main() {
	_ = godotenv.Load()
	config.ValidateEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Println("mongodb disconnect:", err)
		}
	}()

	var s3Service *service.S3Service
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey, cfg.S3PublicURL)
		if err != nil {
			log.Fatal("s3:", err)
		}
	} else {
		log.Println("warning: AWS_S3_BUCKET not set; uploads will fail")
	}

	var mailer send.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = service.NewResendMailer(cfg.ResendAPIKey)
		log.Println("mail: using Resend API")
	} else {
		mailer = service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		log.Println("mail: using SMTP " + cfg.SMTPHost)
	}

	notifier := &send.Notifier{
		Mailer:  mailer,
		From:    cfg.FromEmail,
		AdminTo: cfg.AdminEmail,
		BaseURL: cfg.BaseURL,
	}
	pipeline := &send.Pipeline{
		Resolver: &send.Resolver{Users: db, NewToken: utils.NewToken},
		Comics:   db,
		Mailer:   mailer,
		From:     cfg.FromEmail,
		BaseURL:  cfg.BaseURL,

		DefaultAudienceID: cfg.ResendAudienceID,
	}

	authHandler := &handlers.AuthHandler{
		DB:        db,
		Notifier:  notifier,
		JWTSecret: cfg.JWTSecret,
		BaseURL:   cfg.BaseURL,
	}
	comicsHandler := &handlers.ComicsHandler{
		DB:       db,
		S3:       s3Service,
		MaxBytes: cfg.MaxUploadMB * 1024 * 1024,
	}
	unlockHandler := &handlers.UnlockHandler{Comics: comicsHandler}
	usersHandler := &handlers.UsersHandler{DB: db, Notifier: notifier}
	sendHandler := &handlers.SendHandler{DB: db, Pipeline: pipeline}
	unsubscribeHandler := &handlers.UnsubscribeHandler{DB: db, BaseURL: cfg.BaseURL}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"exit wounds. still somewhat breathing."}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Signup and login take the brunt of abuse; everything here is
		// rate limited per IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit())
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/forgot-password", authHandler.ForgotPassword)
			r.Post("/auth/reset-password", authHandler.ResetPassword)
			r.Post("/auth/reactivate", authHandler.Reactivate)
		})
		r.Get("/auth/verify", authHandler.Verify)
		r.Get("/auth/approve", authHandler.Approve)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/unsubscribe", unsubscribeHandler.Unsubscribe)

		// Reader routes behind the session cookie.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.JWTSecret))
			r.Get("/comics", comicsHandler.PublicList)
			r.Get("/comics/{id}", comicsHandler.PublicGet)
			r.Get("/comics/{id}/images/{index}/censors", unlockHandler.State)
			r.Post("/comics/{id}/images/{index}/censors/reveal", unlockHandler.Reveal)
			r.Post("/comics/{id}/images/{index}/censors/restore", unlockHandler.Restore)
		})

		// Admin routes behind the static bearer key.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminKey(cfg.AdminAPIKey))
			r.Get("/admin/comics", comicsHandler.AdminList)
			r.Post("/admin/comics", comicsHandler.Create)
			r.Get("/admin/comics/{id}", comicsHandler.AdminGet)
			r.Put("/admin/comics/{id}", comicsHandler.Update)
			r.Delete("/admin/comics/{id}", comicsHandler.Delete)
			r.Post("/admin/comics/{id}/publish", comicsHandler.Publish)
			r.Put("/admin/comics/{id}/images/{index}/censors", comicsHandler.UpdateCensors)
			r.Get("/admin/comics/{id}/images/{index}/url", comicsHandler.ImageURL)
			r.Get("/admin/users", usersHandler.List)
			r.Post("/admin/users/{id}/approve", usersHandler.Approve)
			r.Delete("/admin/users/{id}", usersHandler.Delete)
			r.Post("/send-comic", sendHandler.SendComic)
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}
