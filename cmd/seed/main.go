package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"roomreserve/internal/config"
	"roomreserve/internal/database"
	"roomreserve/internal/domain"
	jwtsvc "roomreserve/internal/pkg/jwt"
	"roomreserve/internal/pkg/validator"
	"roomreserve/internal/repository"
)

// Seeds a development database with one user per role, two locations, and a
// handful of rooms, then prints a ready-to-use JWT for each user.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM room_resources")
	db.Exec("DELETE FROM rooms")
	db.Exec("DELETE FROM resources")
	db.Exec("DELETE FROM locations")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")
	users := []struct {
		email string
		name  string
		role  domain.UserRole
	}{
		{"admin@roomreserve.dev", "Admin", domain.RoleAdmin},
		{"manager@roomreserve.dev", "Manager", domain.RoleManager},
		{"u1@roomreserve.dev", "User One", domain.RoleUser},
		{"u2@roomreserve.dev", "User Two", domain.RoleUser},
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	userRepo := repository.NewUserRepository(db)
	ctx := context.Background()

	created := make([]domain.User, 0, len(users))
	for _, u := range users {
		hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user := domain.User{
			Email:        u.email,
			PasswordHash: string(hash),
			Name:         u.name,
			Role:         u.role,
			Active:       true,
		}
		if violations := validator.Validate(user); violations != nil {
			log.Fatalf("bad user fixture %s: %v", u.email, violations)
		}
		if err := userRepo.Create(ctx, &user); err != nil {
			log.Fatal("create user:", err)
		}
		created = append(created, user)
	}

	log.Println("Creating locations and rooms...")
	predioA := domain.Location{Name: "Predio A", Address: "Av. Central 100", City: "Brasilia", Active: true}
	predioB := domain.Location{Name: "Predio B", Address: "Av. Central 200", City: "Brasilia", Active: true}
	db.Create(&predioA)
	db.Create(&predioB)

	projector := domain.Resource{Name: "Projector"}
	whiteboard := domain.Resource{Name: "Whiteboard"}
	videoconf := domain.Resource{Name: "Videoconference", Description: "Camera and room microphone"}
	db.Create(&projector)
	db.Create(&whiteboard)
	db.Create(&videoconf)

	rooms := []domain.Room{
		{Name: "Sala 101", LocationID: predioA.ID, Capacity: 10, Active: true,
			Resources: []domain.Resource{projector, whiteboard}},
		{Name: "Sala 102", LocationID: predioA.ID, Capacity: 6, Active: true,
			Resources: []domain.Resource{whiteboard}},
		{Name: "Auditorio", LocationID: predioB.ID, Capacity: 60, Active: true,
			Resources: []domain.Resource{projector, videoconf}},
	}
	for i := range rooms {
		if violations := validator.Validate(rooms[i]); violations != nil {
			log.Fatalf("bad room fixture %s: %v", rooms[i].Name, violations)
		}
		if err := db.Create(&rooms[i]).Error; err != nil {
			log.Fatal("create room:", err)
		}
	}

	fmt.Println("\nDev tokens (valid for", cfg.JWTTTL, "):")
	for _, u := range created {
		token, err := j.GenerateToken(u.ID, string(u.Role))
		if err != nil {
			log.Fatal("token:", err)
		}
		fmt.Printf("  %-28s %s\n", u.Email, token)
	}

	fmt.Fprintf(os.Stdout, "\nSeeded %d users, 2 locations, %d rooms at %s\n",
		len(created), len(rooms), time.Now().Format(time.RFC3339))
}
