// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/config"
	"github.com/relabs-tech/orientation_tracking/internal/orientation"
)

// PoseMessage is the JSON payload published for every step, on the
// estimate topic and (when ground truth exists) on the truth topic.
type PoseMessage struct {
	Index     int     `json:"index"`
	Timestamp float64 `json:"ts"`
	orientation.Pose
}

// Publisher sends one payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

type mqttPublisher struct {
	client mqtt.Client
}

func (p mqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

// connectMQTT connects to the configured broker. The client ID gets the
// role suffix so several binaries can share one broker.
func connectMQTT(cfg *config.Config, role string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID + "-" + role)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "MQTT connect to %s", cfg.MQTTBroker)
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)
	return client, nil
}

// MQTTSink publishes each step's estimated pose, and its ground-truth pose
// when TruthTopic is set. Interval paces the publishing so a replay can be
// watched live.
type MQTTSink struct {
	Publisher     Publisher
	EstimateTopic string
	TruthTopic    string
	Interval      time.Duration
}

// NewMQTTSink builds a sink publishing on the configured topics.
func NewMQTTSink(pub Publisher, cfg *config.Config, withTruth bool) *MQTTSink {
	s := &MQTTSink{
		Publisher:     pub,
		EstimateTopic: cfg.TopicPoseEstimate,
		Interval:      time.Duration(cfg.PublishInterval) * time.Millisecond,
	}
	if withTruth {
		s.TruthTopic = cfg.TopicPoseTruth
	}
	return s
}

func (s *MQTTSink) Consume(st orientation.Step) error {
	if err := s.publish(s.EstimateTopic, st.Index, st.Timestamp, st.Estimated); err != nil {
		return err
	}
	if s.TruthTopic != "" {
		if err := s.publish(s.TruthTopic, st.Index, st.Timestamp, st.Truth); err != nil {
			return err
		}
	}
	if s.Interval > 0 {
		time.Sleep(s.Interval)
	}
	return nil
}

func (s *MQTTSink) publish(topic string, index int, ts float64, p orientation.Pose) error {
	payload, err := json.Marshal(PoseMessage{Index: index, Timestamp: ts, Pose: p})
	if err != nil {
		return errors.Wrap(err, "json marshal pose")
	}
	if err := s.Publisher.Publish(topic, payload); err != nil {
		return errors.Wrapf(err, "MQTT publish (%s)", topic)
	}
	return nil
}

// stepLogger logs every step at debug level.
func stepLogger() orientation.Sink {
	return orientation.SinkFunc(func(st orientation.Step) error {
		if !log.IsLevelEnabled(log.DebugLevel) {
			return nil
		}
		est, truth := st.Estimated.Degrees(), st.Truth.Degrees()
		log.WithFields(log.Fields{
			"step":        st.Index,
			"ts":          st.Timestamp,
			"roll":        est.Roll,
			"pitch":       est.Pitch,
			"yaw":         est.Yaw,
			"roll_truth":  truth.Roll,
			"pitch_truth": truth.Pitch,
			"yaw_truth":   truth.Yaw,
		}).Debug("step")
		return nil
	})
}
