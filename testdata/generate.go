// Generates weblogs.parquet, a sample data source for trying parsearch:
//
//	go run ./testdata/generate.go
//	parsearch query testdata/weblogs.parquet --group host --group method --value 'n=count()' --sort n:desc
package main

import (
	"log"
	"math/rand"
	"time"

	"github.com/parquet-go/parquet-go"
)

type Request struct {
	Time    time.Time `parquet:"time,timestamp(millisecond)"`
	Host    string    `parquet:"host"`
	Method  string    `parquet:"method"`
	Path    string    `parquet:"path"`
	Status  int32     `parquet:"status"`
	Bytes   int64     `parquet:"bytes"`
	Latency float64   `parquet:"latency_ms"`
	Cached  bool      `parquet:"cached"`
}

func main() {
	rng := rand.New(rand.NewSource(42))
	hosts := []string{"web-1", "web-2", "web-3", "api-1"}
	methods := []string{"GET", "GET", "GET", "POST", "PUT", "DELETE"}
	paths := []string{"/", "/login", "/api/items", "/api/items/7", "/static/app.js"}
	statuses := []int32{200, 200, 200, 200, 201, 304, 404, 500}

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Request, 10000)
	for i := range rows {
		rows[i] = Request{
			Time:    start.Add(time.Duration(i) * 7 * time.Second),
			Host:    hosts[rng.Intn(len(hosts))],
			Method:  methods[rng.Intn(len(methods))],
			Path:    paths[rng.Intn(len(paths))],
			Status:  statuses[rng.Intn(len(statuses))],
			Bytes:   rng.Int63n(64 << 10),
			Latency: rng.ExpFloat64() * 40,
			Cached:  rng.Intn(3) == 0,
		}
	}

	if err := parquet.WriteFile("testdata/weblogs.parquet", rows); err != nil {
		log.Fatal(err)
	}
	log.Printf("Generated testdata/weblogs.parquet with %d requests", len(rows))
}
