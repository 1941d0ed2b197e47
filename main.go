package main

import (
	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/vietanh2810/kids-ledger-api/cmd/app"
)

// @title        Kids Ledger API
// @version      1.0
// @description  Family accounts, child check-ins, token balances and QR cards.
//
// @contact.name   Kids Ledger maintainers
// @contact.url    https://github.com/vietanh2810/kids-ledger-api/issues
//
// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT
//
// @BasePath  /api
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Identity provider access token, sent as "Bearer <token>".
func main() {
	if err := app.Start(); err != nil {
		panic(err)
	}
}
