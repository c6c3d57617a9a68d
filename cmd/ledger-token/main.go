// Package main выпускает JWT токен для идентификатора, чтобы обращаться к API
// леджера от его имени. Секрет и срок жизни берутся из конфига CONFIG_PATH.
//
//	CONFIG_PATH=config/local.yaml ledger-token -identity 0xowner
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/magabrotheeeer/subscription-ledger/internal/config"
	"github.com/magabrotheeeer/subscription-ledger/internal/lib/jwt"
)

func main() {
	identity := flag.String("identity", "", "identity to put into the token subject")
	flag.Parse()

	cfg := config.MustLoad()
	token, err := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL).GenerateToken(*identity)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
