// Command indexctl manages the type-ahead index of a running service:
// rebuild, invalidate, and stats over the HTTP admin API, or a broadcast
// invalidation over Kafka for every instance in the consumer group's topic.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/88clipon/saleor/internal/typeahead/consumer"
	"github.com/88clipon/saleor/pkg/config"
	"github.com/88clipon/saleor/pkg/kafka"
	"github.com/88clipon/saleor/pkg/logger"
)

func main() {
	var (
		addr       = flag.String("addr", "http://localhost:8080", "base URL of the typeahead service")
		configPath = flag.String("config", "configs/development.yaml", "path to config file (for --broadcast)")
		rebuild    = flag.Bool("rebuild", false, "rebuild the index")
		force      = flag.Bool("force", false, "with --rebuild: rebuild even if the snapshot is fresh")
		invalidate = flag.Bool("invalidate", false, "mark the index stale")
		stats      = flag.Bool("stats", false, "print index statistics")
		broadcast  = flag.Bool("broadcast", false, "with --invalidate: publish over Kafka instead of HTTP")
	)
	flag.Parse()

	logger.Setup("info", "text")

	if !*rebuild && !*invalidate && !*stats {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if *invalidate {
		if *broadcast {
			if err := broadcastInvalidate(ctx, *configPath); err != nil {
				fail("broadcast invalidate: %v", err)
			}
			fmt.Println("invalidation event published")
		} else {
			body, err := call(ctx, http.MethodPost, *addr+"/api/v1/index/invalidate")
			if err != nil {
				fail("invalidate: %v", err)
			}
			fmt.Println(body)
		}
	}

	if *rebuild {
		url := *addr + "/api/v1/index/rebuild"
		if *force {
			url += "?force=true"
		}
		body, err := call(ctx, http.MethodPost, url)
		if err != nil {
			fail("rebuild: %v", err)
		}
		fmt.Println(body)
	}

	if *stats {
		body, err := call(ctx, http.MethodGet, *addr+"/api/v1/index/stats")
		if err != nil {
			fail("stats: %v", err)
		}
		fmt.Println(body)
	}
}

func call(ctx context.Context, method, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%s: %s", resp.Status, body)
	}
	return string(body), nil
}

func broadcastInvalidate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CacheInvalidate)
	defer producer.Close()
	return producer.Publish(ctx, kafka.Event{
		Key:   "indexctl",
		Value: consumer.CatalogEvent{Type: "index.invalidate"},
	})
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
