package mqttsink

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Connect dials broker (host:port) and waits for the first connection.
// The client reconnects on its own afterwards.
func Connect(broker, clientID string, log *slog.Logger) (mqtt.Client, error) {
	if log == nil {
		log = slog.Default()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", broker))
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		log.Info("mqtt connection established", "broker", broker, "client_id", clientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		log.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", broker)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	return client, nil
}
