// Dispara checkouts concorrentes do mesmo produto contra uma API em execução
// para verificar que o stock nunca é vendido em excesso: com stock N e M > N
// requisições de 1 unidade, exatamente N devem ter sucesso.
package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	token := flag.String("token", "", "bearer token of the buying user")
	productID := flag.Int64("producto", 1, "product id to buy")
	precio := flag.String("precio", "10.00", "captured unit price")
	totalRequests := flag.Int("n", 50, "number of concurrent checkouts")
	flag.Parse()

	if *token == "" {
		log.Fatal("a bearer token is required (-token)")
	}

	client := resty.New().
		SetBaseURL(*baseURL).
		SetAuthToken(*token).
		SetTimeout(10 * time.Second)

	var successCount atomic.Int32
	var conflictCount atomic.Int32
	var errorCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			resp, err := client.R().
				SetBody(map[string]any{
					"productos": []map[string]any{
						{"producto_id": *productID, "cantidad": 1, "precio": *precio},
					},
				}).
				Post("/facturas")
			switch {
			case err != nil:
				errorCount.Add(1)
			case resp.StatusCode() == 201:
				successCount.Add(1)
			case resp.StatusCode() == 409:
				conflictCount.Add(1)
			default:
				errorCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== CHECKOUT STRESS RESULTS ==========")
	fmt.Printf("Total Requests:      %d\n", *totalRequests)
	fmt.Printf("Created (201):       %d\n", successCount.Load())
	fmt.Printf("Out of stock (409):  %d\n", conflictCount.Load())
	fmt.Printf("Errors:              %d\n", errorCount.Load())
	fmt.Printf("Duration:            %v\n", elapsed)
	fmt.Println("=============================================")
	fmt.Println("Expected: created == initial stock, the rest 409, zero errors.")
}
