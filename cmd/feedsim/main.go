package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/gareth0712/hyperliquid-client/internal/feedsim"
	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8799", "Listen address")
	path := flag.String("path", "/ws", "WebSocket path")
	interval := flag.Duration("interval", 500*time.Millisecond, "Delay between account updates per subscription")
	priceInterval := flag.Duration("price-interval", time.Second, "Delay between price broadcasts")
	base := flag.String("base", "10000", "Base account value")
	step := flag.String("step", "25", "Wave step between updates")
	amplitude := flag.Int64("amplitude", 4, "Wave amplitude in steps")
	coin := flag.String("coin", "SOL", "Spot coin carried by every account")
	coinPrice := flag.String("coin-price", "200", "Base price for the spot coin")
	stable := flag.String("stable", "USDC", "Stable asset symbol")
	dropAfter := flag.Int64("drop-after", 0, "Close each connection after N sent messages (0=never), for reconnect drills")
	flag.Parse()

	baseVal, err := decimal.NewFromString(*base)
	if err != nil {
		log.Fatalf("invalid base: %v", err)
	}
	stepVal, err := decimal.NewFromString(*step)
	if err != nil {
		log.Fatalf("invalid step: %v", err)
	}
	priceVal, err := decimal.NewFromString(*coinPrice)
	if err != nil {
		log.Fatalf("invalid coin-price: %v", err)
	}

	sim := &server{
		interval:      *interval,
		priceInterval: *priceInterval,
		dropAfter:     *dropAfter,
		newGenerator: func() *feedsim.Generator {
			return feedsim.NewGenerator(baseVal, stepVal, priceVal, *coin, *stable, *amplitude)
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(*path, sim.handle)
	log.Printf("feed simulator listening on ws://%s%s", *addr, *path)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

type server struct {
	upgrader      websocket.Upgrader
	interval      time.Duration
	priceInterval time.Duration
	dropAfter     int64
	newGenerator  func() *feedsim.Generator
}

func (s *server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade failed: %v", err)
		return
	}
	log.Printf("client connected: %s", conn.RemoteAddr())
	c := &client{
		conn:      conn,
		gen:       s.newGenerator(),
		dropAfter: s.dropAfter,
		done:      make(chan struct{}),
	}
	go c.stream(s.interval, s.priceInterval)
	c.readLoop()
	c.close()
	log.Printf("client disconnected: %s", conn.RemoteAddr())
}

// client is one simulated feed session. Writes are serialized through mu per
// the one-writer rule.
type client struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	gen       *feedsim.Generator
	users     []string
	prices    bool
	dropAfter int64
	sent      int64
	done      chan struct{}
	once      sync.Once
}

func (c *client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req schema.SubscribeRequest
		if err := json.Unmarshal(data, &req); err != nil {
			log.Printf("bad request from %s: %v", c.conn.RemoteAddr(), err)
			continue
		}
		switch req.Method {
		case "subscribe":
			c.subscribe(req.Subscription)
		case "ping":
			c.send(schema.Envelope{Channel: schema.ChannelPong})
		default:
			log.Printf("unknown method %q from %s", req.Method, c.conn.RemoteAddr())
		}
	}
}

func (c *client) subscribe(sub schema.Subscription) {
	c.mu.Lock()
	switch sub.Type {
	case schema.SubscribeAccountUpdate:
		if sub.User != "" && !c.hasUser(sub.User) {
			c.users = append(c.users, sub.User)
		}
	case schema.SubscribePriceBroadcast:
		c.prices = true
	}
	c.mu.Unlock()

	reply, err := json.Marshal(schema.SubscriptionReply{Method: "subscribe", Subscription: sub})
	if err != nil {
		log.Printf("encode reply: %v", err)
		return
	}
	c.send(schema.Envelope{Channel: schema.ChannelSubscriptionReply, Data: reply})
	log.Printf("subscribed %s %s", sub.Type, sub.User)
}

// hasUser is called with mu held.
func (c *client) hasUser(user string) bool {
	for _, u := range c.users {
		if u == user {
			return true
		}
	}
	return false
}

func (c *client) stream(interval, priceInterval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	priceTicker := time.NewTicker(priceInterval)
	defer priceTicker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			for _, user := range c.snapshotUsers() {
				update := c.nextUpdate(user, now)
				data, err := json.Marshal(update)
				if err != nil {
					log.Printf("encode update: %v", err)
					continue
				}
				c.send(schema.Envelope{Channel: schema.ChannelAccountUpdate, Data: data})
			}
		case <-priceTicker.C:
			if !c.pricesEnabled() {
				continue
			}
			data, err := json.Marshal(c.nextBroadcast())
			if err != nil {
				log.Printf("encode broadcast: %v", err)
				continue
			}
			c.send(schema.Envelope{Channel: schema.ChannelPriceBroadcast, Data: data})
		}
	}
}

func (c *client) snapshotUsers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.users...)
}

func (c *client) pricesEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prices
}

func (c *client) nextUpdate(user string, now time.Time) schema.AccountUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen.AccountUpdate(user, now)
}

func (c *client) nextBroadcast() schema.PriceBroadcast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen.PriceBroadcast()
}

func (c *client) send(v any) {
	c.mu.Lock()
	err := c.conn.WriteJSON(v)
	c.sent++
	sent := c.sent
	drop := c.dropAfter > 0 && sent >= c.dropAfter
	c.mu.Unlock()
	if err != nil {
		c.close()
		return
	}
	if drop {
		log.Printf("dropping %s after %d messages", c.conn.RemoteAddr(), sent)
		c.close()
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
