// devtoken 本地联调用：按服务端同样的密钥签发 token
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"SupportChat/tools/security"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func main() {
	var (
		secret = flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret, defaults to $JWT_SECRET")
		alg    = flag.String("alg", "HS256", "HS256/HS384/HS512")
		id     = flag.String("id", "", "user id (required)")
		role   = flag.String("role", "Trader", "Admin/Advisor/Trader")
		legacy = flag.Bool("legacy", false, "put the role in rType instead of role")
		first  = flag.String("fname", "", "first name")
		last   = flag.String("lname", "", "last name")
		email  = flag.String("email", "", "email")
		ttl    = flag.Duration("ttl", 24*time.Hour, "token lifetime")
	)
	flag.Parse()

	if *secret == "" || *id == "" {
		flag.Usage()
		os.Exit(2)
	}

	user := map[string]any{
		"id":    *id,
		"fName": *first,
		"lName": *last,
		"email": *email,
	}
	if *legacy {
		user["rType"] = *role
	} else {
		user["role"] = *role
	}

	tok, exp, err := security.Sign(security.Options{Secret: []byte(*secret), Alg: *alg, TTL: *ttl},
		jwtlib.MapClaims{"user": user})
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
}
