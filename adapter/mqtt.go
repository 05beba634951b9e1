/* Copyright 2026 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Default MQTT topics.
const (
	DefaultMQTTSubTopic   = "chatflow/in"
	DefaultMQTTReplyTopic = "chatflow/out"
)

// MQTT bridges a broker to the switchboard.  Inbound messages are JSON
// {"user","text"} on SubTopic; the payload goes out on ReplyTopic.
type MQTT struct {
	Board  Board
	Logger *slog.Logger

	Broker   string // e.g. "tcp://localhost:1883"
	ClientID string
	Username string
	Password string

	SubTopic   string
	ReplyTopic string
	QoS        byte

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint

	client mqtt.Client
}

type mqttMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// Start connects to the broker and subscribes.
func (a *MQTT) Start(ctx context.Context) error {
	if a.SubTopic == "" {
		a.SubTopic = DefaultMQTTSubTopic
	}
	if a.ReplyTopic == "" {
		a.ReplyTopic = DefaultMQTTReplyTopic
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(a.Broker)
	opts.SetClientID(a.ClientID)
	if a.Username != "" {
		opts.SetUsername(a.Username)
		opts.SetPassword(a.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(10 * time.Second)

	a.client = mqtt.NewClient(opts)
	if t := a.client.Connect(); t.Wait() && t.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", t.Error())
	}

	handler := func(_ mqtt.Client, m mqtt.Message) {
		a.handle(ctx, m.Payload())
	}
	if t := a.client.Subscribe(a.SubTopic, a.QoS, handler); t.Wait() && t.Error() != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", a.SubTopic, t.Error())
	}

	a.logf("mqtt adapter started", "broker", a.Broker, "sub", a.SubTopic)
	return nil
}

// Stop disconnects from the broker.
func (a *MQTT) Stop() {
	if a.client != nil {
		a.client.Disconnect(a.Quiesce)
	}
}

func (a *MQTT) handle(ctx context.Context, bs []byte) {
	var msg mqttMessage
	if err := json.Unmarshal(bs, &msg); err != nil {
		a.logf("mqtt bad message", "err", err)
		return
	}
	if msg.User == "" {
		return
	}

	p := deliver(ctx, a.Board, a.Logger, "mqtt", msg.User, msg.Text)

	js, err := json.Marshal(map[string]interface{}{
		"user":    msg.User,
		"texts":   p.Texts,
		"payload": p.Payload,
	})
	if err != nil {
		a.logf("mqtt marshal failed", "err", err)
		return
	}
	if t := a.client.Publish(a.ReplyTopic, a.QoS, false, js); t.Wait() && t.Error() != nil {
		a.logf("mqtt publish failed", "topic", a.ReplyTopic, "err", t.Error())
	}
}

func (a *MQTT) logf(msg string, args ...interface{}) {
	if a.Logger != nil {
		a.Logger.Info(msg, args...)
	}
}
