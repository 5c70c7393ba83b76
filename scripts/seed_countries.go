// seed_countries.go seeds the sample country catalog through the mrat API.
//
// Usage:
//
//	go run scripts/seed_countries.go -api http://localhost:8700 -token $ADMIN_TOKEN
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

type country struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Code   string             `json:"code"`
	Scores map[string]float64 `json:"scores"`
}

func sample(id, name, code string, infra, reg, market, stab, partners float64) country {
	return country{
		ID:   id,
		Name: name,
		Code: code,
		Scores: map[string]float64{
			"infrastructure": infra,
			"regulation":     reg,
			"market_demand":  market,
			"stability":      stab,
			"partnerships":   partners,
		},
	}
}

var countries = []country{
	sample("nigeria", "Nigeria", "NG", 6.2, 5.8, 8.5, 5.4, 7.2),
	sample("ghana", "Ghana", "GH", 6.8, 7.2, 6.5, 7.8, 6.7),
	sample("south-africa", "South Africa", "ZA", 8.5, 7.5, 7.2, 6.2, 8.3),
	sample("kenya", "Kenya", "KE", 6.5, 6.8, 7.4, 6.6, 7.5),
	sample("egypt", "Egypt", "EG", 7.4, 5.5, 7.8, 5.2, 6.9),
	sample("morocco", "Morocco", "MA", 7.8, 6.9, 6.7, 7.5, 7.2),
}

func main() {
	apiURL := flag.String("api", "http://localhost:8700", "mrat API base URL")
	token := flag.String("token", "", "admin bearer token")
	source := flag.String("source", "seed", "source recorded in score history")
	dryRun := flag.Bool("dry-run", false, "print the batch without posting")
	flag.Parse()

	body, err := json.MarshalIndent(map[string]interface{}{"countries": countries}, "", "  ")
	if err != nil {
		log.Fatalf("marshal batch: %v", err)
	}
	if *dryRun {
		fmt.Println(string(body))
		return
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/countries?source="+*source, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if *token != "" {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("post countries: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("seed failed: %d %s", resp.StatusCode, respBody)
	}

	var report struct {
		Accepted int `json:"accepted"`
		Rejected int `json:"rejected"`
	}
	_ = json.Unmarshal(respBody, &report)
	fmt.Printf("seeded %d countries (%d rejected)\n", report.Accepted, report.Rejected)
}
