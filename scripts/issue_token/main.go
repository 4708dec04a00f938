package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/johnquangdev/medical-scribe/pkg/config"
	pkgjwt "github.com/johnquangdev/medical-scribe/pkg/jwt"
)

// Mints an access token for local testing against the API.
func main() {
	userFlag := flag.String("user", "", "user id (a new one is generated when empty)")
	email := flag.String("email", "doctor@test.local", "email claim")
	role := flag.String("role", "doctor", "role claim")
	flag.Parse()

	// Load configuration from .env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	userID := uuid.New()
	if *userFlag != "" {
		userID, err = uuid.Parse(*userFlag)
		if err != nil {
			log.Fatalf("Invalid user id %q: %v", *userFlag, err)
		}
	}

	jwtManager := pkgjwt.NewManager(cfg.Auth.AccessSecret, cfg.Auth.AccessExpiry, cfg.Auth.Issuer)
	token, err := jwtManager.GenerateAccessToken(userID, *email, *role)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	log.Printf("🔑 Token for user %s (expires in %s)", userID, jwtManager.GetAccessExpiry())
	fmt.Println(token)
}
