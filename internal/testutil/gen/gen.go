// Package gen generates an example signed transaction token with a fresh
// certificate chain, for manual experiments with the verifier.
//
//	go run ./internal/testutil/gen
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/muhlemmer/gu"

	tu "github.com/storesign/storesign/internal/testutil"
	"github.com/storesign/storesign/pkg/store"
)

func main() {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "    ")

	chain := tu.NewChain()
	transaction := &store.Transaction{
		TransactionID:         "2000000000000001",
		OriginalTransactionID: "2000000000000001",
		BundleID:              "com.example.app",
		ProductID:             "com.example.app.premium",
		Quantity:              gu.Ptr[int32](1),
		Type:                  store.ProductTypeAutoRenewableSubscription,
		Environment:           store.EnvironmentSandbox,
		TransactionReason:     store.TransactionReasonPurchase,
	}
	token := chain.SignToken(transaction, chain.X5C())

	fmt.Println("transaction claims:")
	if err := enc.Encode(transaction); err != nil {
		panic(err)
	}
	fmt.Printf("signed transaction token:\n%s\n", token)
	fmt.Printf("root certificate (base64 DER):\n%s\n", base64.StdEncoding.EncodeToString(chain.RootDER))
}
