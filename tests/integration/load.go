package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

const (
	numAccounts     = 100        // Number of accounts to create
	numTransactions = 10000      // Total number of mutations
	maxConcurrency  = 200        // Maximum number of concurrent requests
	seedDeposit     = 10000.0    // Deposit made into each account up front
	maxAmount       = 1000.0     // Maximum mutation amount
	successColor    = "\033[32m" // Green
	errorColor      = "\033[31m" // Red
	infoColor       = "\033[34m" // Blue
	resetColor      = "\033[0m"  // Reset color
)

var baseURL = envOr("LEDGER_URL", "http://localhost:8080")

func envOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func main() {
	fmt.Printf("%sstarting a heavy load test with %d accounts and %d mutations%s\n",
		infoColor, numAccounts, numTransactions, resetColor)

	// Authenticate once; every ledger call reuses the token
	token, err := login(envOr("LEDGER_USERNAME", "admin"), envOr("LEDGER_PASSWORD", "admin"))
	if err != nil {
		fmt.Printf("%slogin failed: %v%s\n", errorColor, err, resetColor)
		os.Exit(1)
	}
	fmt.Printf("%slogged in%s\n", successColor, resetColor)

	// Create and seed accounts
	accountIDs := createAccounts(token, numAccounts)
	fmt.Printf("%screated %d accounts%s\n", successColor, len(accountIDs), resetColor)
	if len(accountIDs) == 0 {
		os.Exit(1)
	}

	// Create semaphore for limiting concurrency
	sem := make(chan struct{}, maxConcurrency)
	var wg sync.WaitGroup

	// Track performance
	startTime := time.Now()
	successCount := 0
	errorCount := 0
	var successMutex sync.Mutex

	fmt.Printf("%slaunching %d mutations with max concurrency of %d%s\n",
		infoColor, numTransactions, maxConcurrency, resetColor)

	for i := 0; i < numTransactions; i++ {
		wg.Add(1)
		sem <- struct{}{} // Acquire semaphore

		go func(txNum int) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore

			// Randomly select an account
			accountID := accountIDs[rand.Intn(len(accountIDs))]

			// Randomly decide between deposit and withdrawal
			op := "deposit"
			if rand.Intn(2) == 1 {
				op = "withdraw"
			}

			// Random amount between 1 and maxAmount
			amount := 1.0 + rand.Float64()*(maxAmount-1.0)
			amount = float64(int(amount*100)) / 100 // Round to 2 decimal places

			txID, err := mutate(token, accountID, op, amount)

			successMutex.Lock()
			if err != nil {
				errorCount++
				if txNum%100 == 0 { // Only log some failures to avoid overwhelming output
					fmt.Printf("%smutation failed: %v%s\n", errorColor, err, resetColor)
				}
			} else {
				successCount++
				if txNum%500 == 0 { // Log every 500th successful mutation
					fmt.Printf("%smutation %d: %s of %.2f on account %d (txID: %s)%s\n",
						successColor, txNum, op, amount, accountID, txID, resetColor)
				}
			}
			successMutex.Unlock()
		}(i)
	}

	// Wait for all mutations to complete
	wg.Wait()
	duration := time.Since(startTime)

	fmt.Printf("\n%s=== heavy load test results ===%s\n", infoColor, resetColor)
	fmt.Printf("Total number of mutations: %d\n", numTransactions)
	fmt.Printf("Successful: %s%d (%.1f%%)%s\n",
		successColor, successCount, float64(successCount)/float64(numTransactions)*100, resetColor)
	fmt.Printf("Failed (incl. insufficient funds): %s%d (%.1f%%)%s\n",
		errorColor, errorCount, float64(errorCount)/float64(numTransactions)*100, resetColor)
	fmt.Printf("Duration: %.2f seconds\n", duration.Seconds())
	fmt.Printf("Throughput: %.2f mutations/second\n", float64(numTransactions)/duration.Seconds())

	// Check final balances; any negative balance is a bug in the store
	fmt.Printf("\n%schecking final account balances...%s\n", infoColor, resetColor)
	checkBalances(token, accountIDs)
}

// request performs one authenticated JSON call.
func request(token, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %v", err)
		}
		reqBody = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return http.DefaultClient.Do(req)
}

// login exchanges the operator credential for a bearer token.
func login(username, password string) (string, error) {
	resp, err := request("", "POST", "/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	return out.Token, nil
}

// createAccounts creates the specified number of accounts and seeds each with
// an initial deposit so withdrawals have something to take.
func createAccounts(token string, count int) []int64 {
	accountIDs := make([]int64, 0, count)

	for i := 0; i < count; i++ {
		resp, err := request(token, "POST", "/accounts", nil)
		if err != nil {
			fmt.Printf("%sfailed to create account: %v%s\n", errorColor, err, resetColor)
			continue
		}

		if resp.StatusCode != http.StatusCreated {
			body, _ := io.ReadAll(resp.Body)
			fmt.Printf("%sfailed to create account, status: %d, body: %s%s\n",
				errorColor, resp.StatusCode, string(body), resetColor)
			resp.Body.Close()
			continue
		}

		var out struct {
			AccountID int64 `json:"account_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("%sfailed to decode response: %v%s\n", errorColor, err, resetColor)
			resp.Body.Close()
			continue
		}
		resp.Body.Close()

		if _, err := mutate(token, out.AccountID, "deposit", seedDeposit); err != nil {
			fmt.Printf("%sfailed to seed account %d: %v%s\n", errorColor, out.AccountID, err, resetColor)
			continue
		}

		accountIDs = append(accountIDs, out.AccountID)
		if i%10 == 0 || i == count-1 {
			fmt.Printf("%screated account %d/%d: id %d seeded with %.2f%s\n",
				successColor, i+1, count, out.AccountID, seedDeposit, resetColor)
		}
	}

	return accountIDs
}

// mutate performs one deposit or withdrawal and returns the transaction id.
func mutate(token string, accountID int64, op string, amount float64) (string, error) {
	resp, err := request(token, "POST", fmt.Sprintf("/accounts/%d/%s", accountID, op),
		map[string]float64{"amount": amount})
	if err != nil {
		return "", fmt.Errorf("failed to %s: %v", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%s status %d: %s", op, resp.StatusCode, string(body))
	}

	var out struct {
		TransactionID string `json:"transaction_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	return out.TransactionID, nil
}

// getBalance retrieves an account's current balance.
func getBalance(token string, accountID int64) (float64, error) {
	resp, err := request(token, "GET", fmt.Sprintf("/accounts/%d/balance", accountID), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("balance status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Balance float64 `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode response: %v", err)
	}
	return out.Balance, nil
}

// checkBalances verifies the non-negative balance invariant on a sample.
func checkBalances(token string, accountIDs []int64) {
	sampleSize := min(10, len(accountIDs))
	negative := 0

	for i := 0; i < sampleSize; i++ {
		accountID := accountIDs[rand.Intn(len(accountIDs))]

		balance, err := getBalance(token, accountID)
		if err != nil {
			fmt.Printf("%serror retrieving balance of account %d: %v%s\n",
				errorColor, accountID, err, resetColor)
			continue
		}

		color := successColor
		if balance < 0 {
			color = errorColor
			negative++
		}
		fmt.Printf("%saccount %d: balance %.2f%s\n", color, accountID, balance, resetColor)
	}

	if negative > 0 {
		fmt.Printf("%sINVARIANT VIOLATION: %d sampled accounts have a negative balance%s\n",
			errorColor, negative, resetColor)
		os.Exit(1)
	}
	fmt.Printf("%sall sampled balances are non-negative%s\n", successColor, resetColor)
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
