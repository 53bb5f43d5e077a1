package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/infrastructure/auth"
	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/google/uuid"
)

// token prints a bearer token for local development against the configured
// JWT secret.
func main() {
	var (
		companyFlag string
		userFlag    string
		ttl         time.Duration
	)

	flag.StringVar(&companyFlag, "company", "", "Company ID (required)")
	flag.StringVar(&userFlag, "user", "", "User ID (default: random)")
	flag.DurationVar(&ttl, "ttl", 0, "Token lifetime (default: jwt.expiration)")
	flag.Parse()

	companyID, err := uuid.Parse(companyFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "a valid -company ID is required")
		flag.Usage()
		os.Exit(1)
	}
	userID := uuid.New()
	if userFlag != "" {
		if userID, err = uuid.Parse(userFlag); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	token, expires, err := auth.NewJWTService(cfg.JWT).GenerateToken(shared.NewActor(userID, companyID), ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user %s, company %s, expires %s\n", userID, companyID, expires.Format(time.RFC3339))
	fmt.Println(token)
}
