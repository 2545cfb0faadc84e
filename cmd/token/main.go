// Command token mints a bearer token for the store-credit API.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/richardliu001/store-credit-service/internal/config"
	httptransport "github.com/richardliu001/store-credit-service/internal/transport/http"
)

func main() {
	userID := flag.Uint64("user", 0, "user id placed in the sub claim")
	admin := flag.Bool("admin", false, "grant manage_affiliates")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	cfgPath := flag.String("config", "internal/config/config.yaml", "config file")
	flag.Parse()

	if *userID == 0 {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Auth.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	var caps []string
	if *admin {
		caps = append(caps, httptransport.CapManageAffiliates)
	}
	tok, err := httptransport.IssueToken(cfg.Auth.JWTSecret, *userID, caps, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(strings.TrimSpace(tok))
}
