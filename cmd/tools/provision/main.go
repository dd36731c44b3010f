// Command provision creates a company and its first user directly against the
// data directory. It is meant for operators bootstrapping a fresh deployment
// without going through the admin API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/olehkv/backend-vzuttia/internal/admin"
	"github.com/olehkv/backend-vzuttia/internal/pricing"
	"github.com/olehkv/backend-vzuttia/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	var (
		dataDir  = flag.String("data", os.Getenv("DATA_DIR"), "data directory")
		company  = flag.String("company", "", "company id (lowercase, alphanumeric)")
		name     = flag.String("name", "", "company display name")
		currency = flag.String("currency", "USD", "main currency (USD, EUR, UAH)")
		login    = flag.String("login", "", "first user login")
		password = flag.String("password", "", "first user password")
		userName = flag.String("user-name", "", "first user display name")
	)
	flag.Parse()

	if *dataDir == "" {
		log.Fatal("data directory is required (flag -data or DATA_DIR)")
	}
	if *company == "" || *login == "" || *password == "" {
		log.Fatal("flags -company, -login, and -password are required")
	}

	st, err := store.Open(*dataDir)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	svc := admin.NewService(st)

	created, err := svc.CreateCompany(admin.CompanyInput{
		ID:           *company,
		Name:         valueOr(*name, *company),
		MainCurrency: pricing.Currency(*currency),
	})
	if err != nil {
		log.Fatalf("create company: %v", err)
	}
	fmt.Printf("company %s created\n", created.ID)

	user, err := svc.CreateUser(created.ID, admin.UserInput{
		Login:    *login,
		Password: *password,
		Name:     valueOr(*userName, *login),
		Role:     "owner",
	})
	if err != nil {
		log.Fatalf("create user: %v", err)
	}
	fmt.Printf("user %s (%s) created\n", user.Login, user.ID)

	if _, ok := svc.VerifyUser(*login, *password); !ok {
		log.Fatal("credential verification failed after provisioning")
	}
	fmt.Println("credentials verified")
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
