// Package mqtt adapts an MQTT broker into the host interfaces the engine
// needs: entity resolution, live state reads, command publishing and the
// state-change event bus. Entities map to topics: state arrives on
// <base>/<entity>, commands go to <base>/<entity>/set.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/larsmaeder/homerules/internal/event"
	"github.com/larsmaeder/homerules/internal/rules"
	"github.com/larsmaeder/homerules/internal/state"
)

// Config holds broker settings, read from the environment.
type Config struct {
	BrokerURL string `env:"MQTT_BROKER_URL" envDefault:"tcp://localhost:1883"`
	ClientID  string `env:"MQTT_CLIENT_ID" envDefault:"homerulesd"`
	Username  string `env:"MQTT_USERNAME"`
	Password  string `env:"MQTT_PASSWORD"`
	BaseTopic string `env:"MQTT_BASE_TOPIC" envDefault:"home"`
}

// ConfigFromEnv parses MQTT_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("mqtt config: %w", err)
	}
	return cfg, nil
}

// Adapter implements rules.Resolver, rules.States, rules.Publisher and
// engine.Bus over one broker connection.
type Adapter struct {
	client paho.Client
	base   string
	log    *slog.Logger

	mu        sync.RWMutex
	snapshots map[string]state.Map
	handlers  map[int]func(event.StateChange)
	nextID    int
}

// New builds an Adapter and its underlying client. Call Connect before use.
func New(cfg Config, log *slog.Logger) *Adapter {
	a := &Adapter{
		base:      cfg.BaseTopic,
		log:       log,
		snapshots: make(map[string]state.Map),
		handlers:  make(map[int]func(event.StateChange)),
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(c paho.Client) {
			topic := cfg.BaseTopic + "/+"
			if token := c.Subscribe(topic, 1, a.onMessage); token.Wait() && token.Error() != nil {
				log.Error("mqtt subscribe failed", "topic", topic, "err", token.Error())
			}
		})
	a.client = paho.NewClient(opts)
	return a
}

// Connect dials the broker and blocks until the connection is up.
func (a *Adapter) Connect() error {
	token := a.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	a.log.Info("mqtt connected", "base", a.base)
	return nil
}

// Close disconnects from the broker.
func (a *Adapter) Close() {
	a.client.Disconnect(250)
}

func (a *Adapter) onMessage(_ paho.Client, msg paho.Message) {
	entity, ok := a.entityFromTopic(msg.Topic())
	if !ok {
		return
	}
	var update state.Map
	if err := json.Unmarshal(msg.Payload(), &update); err != nil {
		a.log.Debug("ignoring non-object payload", "topic", msg.Topic(), "err", err)
		return
	}
	ev := a.apply(entity, update)
	a.mu.RLock()
	handlers := make([]func(event.StateChange), 0, len(a.handlers))
	for _, h := range a.handlers {
		handlers = append(handlers, h)
	}
	a.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// apply merges an update into the entity's snapshot and builds the
// resulting state-change event: prior snapshot as from, merged as to.
func (a *Adapter) apply(entity string, update state.Map) event.StateChange {
	a.mu.Lock()
	from := a.snapshots[entity]
	to := state.Merge(from, update)
	a.snapshots[entity] = to
	a.mu.Unlock()
	return event.StateChange{
		Entity: entity,
		Update: update,
		From:   state.Clone(from),
		To:     state.Clone(to),
	}
}

// entityFromTopic extracts the entity name from a state topic. Command
// echoes (<base>/<entity>/set) and deeper topics are ignored.
func (a *Adapter) entityFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, a.base+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

type device struct {
	id string
}

func (d device) ID() string { return d.id }

// Resolve reports an entity as known once state has been seen for it.
func (a *Adapter) Resolve(id string) (rules.Entity, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, ok := a.snapshots[id]; !ok {
		return nil, false
	}
	return device{id: id}, true
}

// State returns a copy of the entity's latest snapshot.
func (a *Adapter) State(e rules.Entity) (state.Map, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap, ok := a.snapshots[e.ID()]
	if !ok {
		return nil, false
	}
	return state.Clone(snap), true
}

// Publish sends a command payload to the entity's set topic.
func (a *Adapter) Publish(e rules.Entity, payload state.Map) {
	data, err := json.Marshal(payload)
	if err != nil {
		a.log.Error("command payload marshal failed", "entity", e.ID(), "err", err)
		return
	}
	topic := fmt.Sprintf("%s/%s/set", a.base, e.ID())
	a.client.Publish(topic, 1, false, data)
}

type subscription struct {
	a  *Adapter
	id int
}

func (s subscription) Cancel() {
	s.a.mu.Lock()
	defer s.a.mu.Unlock()
	delete(s.a.handlers, s.id)
}

// Subscribe registers a state-change handler and returns its handle.
func (a *Adapter) Subscribe(handler func(event.StateChange)) rules.Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.handlers[a.nextID] = handler
	return subscription{a: a, id: a.nextID}
}
