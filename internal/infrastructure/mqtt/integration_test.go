//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Integration tests for the telemetry mirror.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectAndClose(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "detector-int-connect"

	client, err := Connect(cfg, "AA:BB:CC:DD:EE:01")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}

func TestIntegration_TelemetryRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "detector-int-pub"

	client, err := Connect(cfg, "AA:BB:CC:DD:EE:02")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	// Independent subscriber
	subOpts := pahomqtt.NewClientOptions().AddBroker("tcp://127.0.0.1:1883").SetClientID("detector-int-sub")
	sub := pahomqtt.NewClient(subOpts)
	if tok := sub.Connect(); !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscriber connect failed: %v", tok.Error())
	}
	defer sub.Disconnect(100)

	var (
		mu  sync.Mutex
		got []byte
	)
	received := make(chan struct{}, 1)
	tok := sub.Subscribe(client.Topics().Telemetry(), 1, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		mu.Lock()
		got = msg.Payload()
		mu.Unlock()
		select {
		case received <- struct{}{}:
		default:
		}
	})
	if !tok.WaitTimeout(5*time.Second) || tok.Error() != nil {
		t.Fatalf("subscribe failed: %v", tok.Error())
	}

	payload := []byte(`{"macAddress":"AA:BB:CC:DD:EE:02","sensorLogSet":[]}`)
	if err := client.PublishTelemetry(payload); err != nil {
		t.Fatalf("PublishTelemetry() error = %v", err)
	}

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("telemetry not received")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(got) != string(payload) {
		t.Errorf("received %s, want %s", got, payload)
	}
}
