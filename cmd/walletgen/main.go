// Package main provides a CLI for local development: it generates ledger key
// pairs and signs admin tokens for the facepay API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"facepay/internal/admintoken"
	"facepay/internal/ledger"
)

// Used when neither -key nor ADMIN_JWT_SIGNING_KEY is set. Never use in production.
const devSigningKey = "dev-admin-signing-key-change-me"

type walletOutput struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
}

type tokenOutput struct {
	Token     string            `json:"token"`
	Subject   string            `json:"subject"`
	ExpiresIn string            `json:"expires_in"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	walletCmd := flag.NewFlagSet("wallet", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("admin-token", flag.ExitOnError)

	walletJSON := walletCmd.Bool("json", false, "Output as JSON")

	adminSubject := adminCmd.String("subject", "local-operator", "Operator name recorded with admin actions")
	adminKey := adminCmd.String("key", "", "Signing key (defaults to ADMIN_JWT_SIGNING_KEY, then the dev key)")
	adminTTL := adminCmd.Duration("ttl", time.Hour, "Token time-to-live")
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "wallet":
		_ = walletCmd.Parse(os.Args[2:])
		generateWallet(*walletJSON)
	case "admin-token":
		_ = adminCmd.Parse(os.Args[2:])
		generateAdminToken(*adminSubject, *adminKey, *adminTTL, *adminJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`walletgen - Development helpers for the facepay API

WARNING: Generated keys are printed in clear text. Never fund them on mainnet.

Usage:
  walletgen <command> [flags]

Commands:
  wallet        Generate a ledger key pair and its address
  admin-token   Sign an admin token for the /api admin routes

Examples:
  # New wallet for a test customer
  walletgen wallet

  # Admin token valid for 8 hours
  walletgen admin-token -subject alice -ttl 8h

  # Output as JSON
  walletgen wallet -json

Use "walletgen <command> -h" for more information about a command.`)
}

func generateWallet(jsonOutput bool) {
	acc, err := ledger.GenerateAccount()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating wallet: %v\n", err)
		os.Exit(1)
	}
	out := walletOutput{
		Address:    acc.Address,
		PrivateKey: acc.ExportPrivateKey().Reveal(),
		PublicKey:  acc.PublicKeyHex(),
	}

	if jsonOutput {
		printJSON(out)
		return
	}
	fmt.Println("Ledger Wallet")
	fmt.Println("=============")
	fmt.Printf("Address:     %s\n", out.Address)
	fmt.Printf("Public Key:  %s\n", out.PublicKey)
	fmt.Printf("Private Key: %s\n", out.PrivateKey)
	fmt.Println()
	fmt.Println("Fund it on devnet:")
	fmt.Printf("  curl -X POST -d '{\"address\":\"%s\"}' http://localhost:8080/api/wallet/faucet\n", out.Address)
}

func generateAdminToken(subject, key string, ttl time.Duration, jsonOutput bool) {
	keyType := "flag"
	if key == "" {
		key = os.Getenv("ADMIN_JWT_SIGNING_KEY")
		keyType = "env"
	}
	if key == "" {
		key = devSigningKey
		keyType = "dev"
	}

	token, err := admintoken.NewService(key, ttl).Issue(context.Background(), subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Subject:   subject,
			ExpiresIn: ttl.String(),
			Usage: map[string]string{
				"header":      "Authorization: Bearer " + token,
				"signing_key": keyType,
			},
		})
		return
	}
	fmt.Println("Admin Token")
	fmt.Println("===========")
	fmt.Printf("Signing Key: %s\n", keyType)
	fmt.Printf("Subject:     %s\n", subject)
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/api/payment/partial")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
