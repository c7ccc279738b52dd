package main

import (
	"context"
	"log"
	"net/http"

	"bus_tracker/internal/config"
	"bus_tracker/internal/controllers"
	"bus_tracker/internal/gateway"
	"bus_tracker/internal/geocode"
	"bus_tracker/internal/hub"
	"bus_tracker/internal/logger"
	"bus_tracker/internal/middleware"
	"bus_tracker/internal/routes"
	"bus_tracker/internal/store"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	fleet := store.NewGormStore(config.DB)

	// Seed before serving: the fleet is fixed and created exactly once.
	ctx := context.Background()
	if err := store.SeedFleet(ctx, fleet); err != nil {
		log.Fatalf("fleet seeding failed: %v", err)
	}
	adminUser := config.GetEnv("ADMIN_USERNAME", "admin")
	adminPass := config.GetEnv("ADMIN_PASSWORD", "admin_password")
	if err := store.SeedAdmin(config.DB, adminUser, adminPass); err != nil {
		log.Fatalf("admin seeding failed: %v", err)
	}

	broadcast := hub.New()
	resolver := geocode.NewNominatim(config.GetEnv("NOMINATIM_URL", ""))
	gw := gateway.New(fleet, resolver, broadcast)

	r := routes.SetupRouter(
		controllers.NewAuthController(config.DB),
		controllers.NewLocationController(gw, fleet),
		controllers.NewSocketController(broadcast, gw),
	)

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := "0.0.0.0:" + config.GetEnv("PORT", "8080")
	log.Printf("🚀 Server running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
