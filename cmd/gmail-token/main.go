// Command gmail-token runs the one-time OAuth consent for the Gmail mailer
// and stores the resulting token next to the credentials.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/justsurfingit/studylink/internal/auth"
	"golang.org/x/oauth2"
)

func main() {
	credentials := flag.String("credentials", "credential.json", "OAuth client file downloaded from the Google console")
	tokenFile := flag.String("token", "token.json", "where to write the token")
	flag.Parse()

	config, err := auth.GmailConfig(*credentials)
	if err != nil {
		log.Fatalf("Unable to read client secret file: %v", err)
	}

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("\n---------------------------------------------------------\n")
	fmt.Printf("OPEN THIS LINK TO AUTHORIZE GMAIL SENDING:\n%v\n", authURL)
	fmt.Printf("---------------------------------------------------------\n")
	fmt.Printf("Paste the code here: ")

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		log.Fatalf("Unable to read authorization code: %v", err)
	}

	tok, err := config.Exchange(context.Background(), authCode)
	if err != nil {
		log.Fatalf("Unable to retrieve token from web: %v", err)
	}
	if err := auth.SaveToken(*tokenFile, tok); err != nil {
		log.Fatalf("Unable to cache oauth token: %v", err)
	}
	fmt.Printf("Saved token to %s\n", *tokenFile)
}
