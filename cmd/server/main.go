package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"churchadmin/internal/config"
	"churchadmin/internal/database"
	"churchadmin/internal/handlers"
	"churchadmin/internal/repository"
	"churchadmin/internal/security"
	"churchadmin/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	personRepo := repository.NewPersonRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	clusterRepo := repository.NewClusterRepository(db)
	evangelismRepo := repository.NewEvangelismRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	reportRepo := repository.NewSessionReportRepository(db)
	financeRepo := repository.NewFinanceRepository(db)
	coordinatorRepo := repository.NewCoordinatorRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(context.Background(), cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
	}

	authService := service.NewAuthService(userRepo, emailService, cfg.SessionDuration)
	peopleService := service.NewPeopleService(personRepo, familyRepo, clusterRepo)
	evangelismService := service.NewEvangelismService(evangelismRepo, personRepo)
	lessonService := service.NewLessonService(lessonRepo, progressRepo, personRepo, userRepo, emailService)
	reportService := service.NewSessionReportService(reportRepo, lessonRepo, personRepo, progressRepo)
	financeService := service.NewFinanceService(financeRepo, personRepo, cfg.StatsDebounce)
	defer financeService.Close()
	coordinatorService := service.NewCoordinatorService(coordinatorRepo, personRepo, clusterRepo, evangelismRepo, lessonRepo)
	eventService := service.NewEventService(eventRepo)
	backupService := service.NewBackupService(db)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"facebook": {
			Name:  "facebook",
			Label: "Facebook",
			Config: &oauth2.Config{
				ClientID:     cfg.FacebookClientID,
				ClientSecret: cfg.FacebookClientSecret,
				Endpoint:     facebook.Endpoint,
				Scopes:       []string{"email", "public_profile"},
			},
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		},
		"apple": {
			Name:  "apple",
			Label: "Apple",
			Config: &oauth2.Config{
				ClientID:     cfg.AppleClientID,
				ClientSecret: cfg.AppleClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://appleid.apple.com/auth/authorize",
					TokenURL: "https://appleid.apple.com/auth/token",
				},
				Scopes: []string{"name", "email"},
			},
			AuthParams: map[string]string{
				"response_mode": "query",
			},
		},
	}

	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	loginLimiter := security.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService, csrf, loginLimiter)
	authHandler := handlers.NewAuthHandler(authService, csrf, oauthProviders, cfg.OAuthRedirectBaseURL, cfg.AppBaseURL)
	adminHandler := handlers.NewAdminHandler(authService, backupService)
	peopleHandler := handlers.NewPeopleHandler(peopleService, lessonService)
	evangelismHandler := handlers.NewEvangelismHandler(evangelismService)
	lessonHandler := handlers.NewLessonHandler(lessonService)
	reportHandler := handlers.NewSessionReportHandler(reportService)
	financeHandler := handlers.NewFinanceHandler(financeService)
	coordinatorHandler := handlers.NewCoordinatorHandler(coordinatorService)
	eventHandler := handlers.NewEventHandler(eventService)

	// Setup routes
	mux := http.NewServeMux()

	// Auth routes
	mux.HandleFunc("POST /api/auth/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/auth/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/auth/password", middleware.Staff(authHandler.ChangePassword))
	mux.HandleFunc("GET /api/auth/providers", authHandler.Providers)
	mux.HandleFunc("GET /api/auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /api/auth/{provider}/callback", authHandler.OAuthCallback)

	// People routes
	mux.HandleFunc("GET /api/people", middleware.Staff(peopleHandler.ListPeople))
	mux.HandleFunc("POST /api/people", middleware.Staff(peopleHandler.CreatePerson))
	mux.HandleFunc("GET /api/people/{id}", middleware.Staff(peopleHandler.GetPerson))
	mux.HandleFunc("PUT /api/people/{id}", middleware.Staff(peopleHandler.UpdatePerson))
	mux.HandleFunc("DELETE /api/people/{id}", middleware.Staff(peopleHandler.DeletePerson))
	mux.HandleFunc("PUT /api/people/{id}/family", middleware.Staff(peopleHandler.SetFamily))
	mux.HandleFunc("POST /api/people/{id}/lessons", middleware.Staff(lessonHandler.AssignToPerson))
	mux.HandleFunc("GET /api/people/{id}/lessons/summary", middleware.Staff(peopleHandler.LessonSummary))

	mux.HandleFunc("GET /api/families", middleware.Staff(peopleHandler.ListFamilies))
	mux.HandleFunc("POST /api/families", middleware.Staff(peopleHandler.CreateFamily))
	mux.HandleFunc("GET /api/families/{id}", middleware.Staff(peopleHandler.GetFamily))
	mux.HandleFunc("PUT /api/families/{id}", middleware.Staff(peopleHandler.UpdateFamily))
	mux.HandleFunc("DELETE /api/families/{id}", middleware.Staff(peopleHandler.DeleteFamily))

	mux.HandleFunc("GET /api/clusters", middleware.Staff(peopleHandler.ListClusters))
	mux.HandleFunc("POST /api/clusters", middleware.Staff(peopleHandler.CreateCluster))
	mux.HandleFunc("GET /api/clusters/{id}", middleware.Staff(peopleHandler.GetCluster))
	mux.HandleFunc("PUT /api/clusters/{id}", middleware.Staff(peopleHandler.UpdateCluster))
	mux.HandleFunc("DELETE /api/clusters/{id}", middleware.Staff(peopleHandler.DeleteCluster))

	mux.HandleFunc("GET /api/branches", middleware.Staff(peopleHandler.ListBranches))
	mux.HandleFunc("POST /api/branches", middleware.Staff(peopleHandler.CreateBranch))

	// Evangelism routes
	mux.HandleFunc("GET /api/evangelism/groups", middleware.Staff(evangelismHandler.ListGroups))
	mux.HandleFunc("POST /api/evangelism/groups", middleware.Staff(evangelismHandler.CreateGroup))
	mux.HandleFunc("GET /api/evangelism/groups/{id}", middleware.Staff(evangelismHandler.GetGroup))
	mux.HandleFunc("PUT /api/evangelism/groups/{id}", middleware.Staff(evangelismHandler.UpdateGroup))
	mux.HandleFunc("DELETE /api/evangelism/groups/{id}", middleware.Staff(evangelismHandler.DeleteGroup))
	mux.HandleFunc("GET /api/evangelism/groups/{id}/prospects", middleware.Staff(evangelismHandler.ListProspects))
	mux.HandleFunc("POST /api/evangelism/groups/{id}/prospects", middleware.Staff(evangelismHandler.CreateProspect))
	mux.HandleFunc("GET /api/evangelism/pipeline", middleware.Staff(evangelismHandler.Pipeline))
	mux.HandleFunc("GET /api/prospects/{id}", middleware.Staff(evangelismHandler.GetProspect))
	mux.HandleFunc("PUT /api/prospects/{id}", middleware.Staff(evangelismHandler.UpdateProspect))
	mux.HandleFunc("DELETE /api/prospects/{id}", middleware.Staff(evangelismHandler.DeleteProspect))
	mux.HandleFunc("POST /api/prospects/{id}/convert", middleware.Staff(evangelismHandler.ConvertProspect))

	// Lesson routes
	mux.HandleFunc("GET /api/lessons", middleware.Staff(lessonHandler.ListLessons))
	mux.HandleFunc("POST /api/lessons", middleware.Staff(lessonHandler.CreateLesson))
	mux.HandleFunc("GET /api/lessons/{id}", middleware.Staff(lessonHandler.GetLesson))
	mux.HandleFunc("PUT /api/lessons/{id}", middleware.Staff(lessonHandler.UpdateLesson))
	mux.HandleFunc("POST /api/lessons/{id}/supersede", middleware.Staff(lessonHandler.SupersedeLesson))
	mux.HandleFunc("POST /api/lessons/{id}/assign", middleware.Staff(lessonHandler.AssignToPeople))
	mux.HandleFunc("GET /api/lessons/progress", middleware.Staff(lessonHandler.ListProgress))
	mux.HandleFunc("GET /api/lessons/progress/summary", middleware.Staff(lessonHandler.Summaries))
	mux.HandleFunc("GET /api/lessons/progress/{id}", middleware.Staff(lessonHandler.GetProgress))
	mux.HandleFunc("PATCH /api/lessons/progress/{id}", middleware.Staff(lessonHandler.UpdateProgress))
	mux.HandleFunc("POST /api/lessons/progress/{id}/complete", middleware.Staff(lessonHandler.CompleteProgress))

	// Session report routes
	mux.HandleFunc("GET /api/session-reports", middleware.Staff(reportHandler.ListReports))
	mux.HandleFunc("POST /api/session-reports", middleware.Staff(reportHandler.CreateReport))
	mux.HandleFunc("GET /api/session-reports/export.csv", middleware.Staff(reportHandler.ExportCSV))
	mux.HandleFunc("GET /api/session-reports/{id}", middleware.Staff(reportHandler.GetReport))
	mux.HandleFunc("PUT /api/session-reports/{id}", middleware.Staff(reportHandler.UpdateReport))
	mux.HandleFunc("DELETE /api/session-reports/{id}", middleware.Staff(reportHandler.DeleteReport))

	// Finance routes
	mux.HandleFunc("GET /api/finance/stats", middleware.Staff(financeHandler.Stats))
	mux.HandleFunc("GET /api/finance/donations", middleware.Staff(financeHandler.ListDonations))
	mux.HandleFunc("POST /api/finance/donations", middleware.Staff(financeHandler.CreateDonation))
	mux.HandleFunc("GET /api/finance/donations/{id}", middleware.Staff(financeHandler.GetDonation))
	mux.HandleFunc("PUT /api/finance/donations/{id}", middleware.Staff(financeHandler.UpdateDonation))
	mux.HandleFunc("DELETE /api/finance/donations/{id}", middleware.Staff(financeHandler.DeleteDonation))
	mux.HandleFunc("GET /api/finance/offerings", middleware.Staff(financeHandler.ListOfferings))
	mux.HandleFunc("POST /api/finance/offerings", middleware.Staff(financeHandler.CreateOffering))
	mux.HandleFunc("GET /api/finance/offerings/{id}", middleware.Staff(financeHandler.GetOffering))
	mux.HandleFunc("PUT /api/finance/offerings/{id}", middleware.Staff(financeHandler.UpdateOffering))
	mux.HandleFunc("DELETE /api/finance/offerings/{id}", middleware.Staff(financeHandler.DeleteOffering))
	mux.HandleFunc("GET /api/finance/pledges", middleware.Staff(financeHandler.ListPledges))
	mux.HandleFunc("POST /api/finance/pledges", middleware.Staff(financeHandler.CreatePledge))
	mux.HandleFunc("GET /api/finance/pledges/{id}", middleware.Staff(financeHandler.GetPledge))
	mux.HandleFunc("PUT /api/finance/pledges/{id}", middleware.Staff(financeHandler.UpdatePledge))
	mux.HandleFunc("DELETE /api/finance/pledges/{id}", middleware.Staff(financeHandler.DeletePledge))
	mux.HandleFunc("GET /api/finance/pledges/{id}/contributions", middleware.Staff(financeHandler.ListContributions))
	mux.HandleFunc("POST /api/finance/pledges/{id}/contributions", middleware.Staff(financeHandler.AddContribution))
	mux.HandleFunc("DELETE /api/finance/contributions/{id}", middleware.Staff(financeHandler.DeleteContribution))

	// Coordinator routes
	mux.HandleFunc("GET /api/coordinators", middleware.Staff(coordinatorHandler.ListCoordinators))
	mux.HandleFunc("POST /api/coordinators", middleware.Admin(coordinatorHandler.CreateCoordinator))
	mux.HandleFunc("GET /api/coordinators/scope", middleware.Staff(coordinatorHandler.CheckScope))
	mux.HandleFunc("GET /api/coordinators/{id}", middleware.Staff(coordinatorHandler.GetCoordinator))
	mux.HandleFunc("PUT /api/coordinators/{id}", middleware.Admin(coordinatorHandler.UpdateCoordinator))
	mux.HandleFunc("DELETE /api/coordinators/{id}", middleware.Admin(coordinatorHandler.DeleteCoordinator))

	// Event routes
	mux.HandleFunc("GET /api/events", middleware.Staff(eventHandler.ListEvents))
	mux.HandleFunc("POST /api/events", middleware.Staff(eventHandler.CreateEvent))
	mux.HandleFunc("GET /api/events/occurrences", middleware.Staff(eventHandler.Occurrences))
	mux.HandleFunc("GET /api/events/{id}", middleware.Staff(eventHandler.GetEvent))
	mux.HandleFunc("PUT /api/events/{id}", middleware.Staff(eventHandler.UpdateEvent))
	mux.HandleFunc("DELETE /api/events/{id}", middleware.Staff(eventHandler.DeleteEvent))
	mux.HandleFunc("POST /api/events/{id}/exclude", middleware.Staff(eventHandler.ExcludeDate))

	// Admin routes
	mux.HandleFunc("GET /api/admin/users", middleware.Admin(adminHandler.ListUsers))
	mux.HandleFunc("POST /api/admin/users", middleware.Admin(adminHandler.CreateUser))
	mux.HandleFunc("PUT /api/admin/users/{id}", middleware.Admin(adminHandler.UpdateUser))
	mux.HandleFunc("DELETE /api/admin/users/{id}", middleware.Admin(adminHandler.DeleteUser))
	mux.HandleFunc("GET /api/admin/backup", middleware.Admin(adminHandler.ExportBackup))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(authService)

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		removed, err := authService.CleanupExpiredSessions()
		if err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
			continue
		}
		log.Printf("Expired sessions cleaned up: %d", removed)
	}
}
