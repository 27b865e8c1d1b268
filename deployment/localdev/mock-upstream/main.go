// Command mock-upstream serves a deterministic stand-in for the user
// generator API during local development. Given the same seed, page, and
// results parameters it always produces the same users, which makes cache
// and pagination behaviour reproducible without network access.
package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var firstNames = []string{
	"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Margaret",
	"Dennis", "Ken", "Radia", "Leslie", "Frances", "John", "Katherine",
}

var lastNames = []string{
	"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth",
	"Hamilton", "Ritchie", "Thompson", "Perlman", "Lamport", "Allen",
}

var nationalities = []string{"us", "gb", "de", "fr", "es", "nl", "no", "dk"}

type name struct {
	Title string `json:"title"`
	First string `json:"first"`
	Last  string `json:"last"`
}

type picture struct {
	Large     string `json:"large"`
	Medium    string `json:"medium"`
	Thumbnail string `json:"thumbnail"`
}

type user struct {
	ID          string  `json:"id"`
	Name        name    `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Nationality string  `json:"nat"`
	Picture     picture `json:"picture"`
}

type pageInfo struct {
	Seed    string `json:"seed"`
	Results int    `json:"results"`
	Page    int    `json:"page"`
	Version string `json:"version"`
}

type response struct {
	Results []user   `json:"results"`
	Info    pageInfo `json:"info"`
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", handleUsers)

	logger := log.New(log.Writer(), "upstream-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	page := intParam(q.Get("page"), 1)
	results := intParam(q.Get("results"), 10)
	if results > 100 {
		results = 100
	}
	seed := q.Get("seed")
	if seed == "" {
		seed = "mock"
	}
	nats := splitNats(q.Get("nat"))

	// Derive the RNG state from seed and page so every page is stable and
	// distinct pages never repeat users.
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s/%d", seed, page)
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	users := make([]user, 0, results)
	for i := 0; i < results; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		nat := nats[rng.Intn(len(nats))]
		id := fmt.Sprintf("%s-%d-%d", seed, page, i)
		users = append(users, user{
			ID:          id,
			Name:        name{Title: "Ms", First: first, Last: last},
			Email:       fmt.Sprintf("%s.%s@example.com", strings.ToLower(first), strings.ToLower(last)),
			Phone:       fmt.Sprintf("555-%04d", rng.Intn(10000)),
			Nationality: nat,
			Picture: picture{
				Large:     "https://example.com/portraits/large/" + id + ".jpg",
				Medium:    "https://example.com/portraits/med/" + id + ".jpg",
				Thumbnail: "https://example.com/portraits/thumb/" + id + ".jpg",
			},
		})
	}

	writeJSON(w, response{
		Results: users,
		Info:    pageInfo{Seed: seed, Results: results, Page: page, Version: "1.4"},
	})
}

func intParam(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func splitNats(raw string) []string {
	if raw == "" {
		return nationalities
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nationalities
	}
	return out
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
