package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type gatewayResponse struct {
	OriginatorCoversationID string `json:"OriginatorCoversationID"`
	ResponseCode            string `json:"ResponseCode"`
	ResponseDescription     string `json:"ResponseDescription"`
}

func main() {
	port := ":8082"

	http.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			http.Error(w, "Invalid Authentication", http.StatusUnauthorized)
			return
		}

		resp := tokenResponse{
			AccessToken: fmt.Sprintf("mock_token_%d", time.Now().UnixNano()),
			ExpiresIn:   "3599",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)

		log.Printf("Issued mock access token")
	})

	http.HandleFunc("/mpesa/c2b/v1/registerurl", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		resp := gatewayResponse{
			OriginatorCoversationID: fmt.Sprintf("mock_conv_%d", time.Now().UnixNano()),
			ResponseCode:            "0",
			ResponseDescription:     "Success",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)

		log.Printf("Processed mock RegisterURL for shortcode %v", body["ShortCode"])
	})

	http.HandleFunc("/mpesa/c2b/v1/simulate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Simulate slight processing delay
		time.Sleep(1 * time.Millisecond)

		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)

		resp := gatewayResponse{
			OriginatorCoversationID: fmt.Sprintf("mock_conv_%d", time.Now().UnixNano()),
			ResponseCode:            "0",
			ResponseDescription:     "Accept the service request successfully.",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)

		log.Printf("Processed mock C2B simulation for shortcode %v amount %v", body["ShortCode"], body["Amount"])
	})

	log.Printf("Mock Daraja server starting on %s...", port)
	if err := http.ListenAndServe(port, nil); err != nil {
		log.Fatal(err)
	}
}
