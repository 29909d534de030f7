// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_tracking/internal/config"
)

// formatPose renders one message as a console line, angles in degrees.
func formatPose(tag string, m PoseMessage) string {
	d := m.Pose.Degrees()
	return fmt.Sprintf("[%s] #%-6d t=%8.3f  ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f",
		tag, m.Index, m.Timestamp, d.Roll, d.Pitch, d.Yaw)
}

func RunConsoleMQTT(cfg *config.Config) error {
	client, err := connectMQTT(cfg, "console")
	if err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return consoleMQTT(client, cfg, sigCh)
}

// consoleMQTT prints both pose topics until stop fires. The client is
// disconnected on every return path.
func consoleMQTT(client mqtt.Client, cfg *config.Config, stop <-chan os.Signal) error {
	defer client.Disconnect(250)

	subscribe := func(topic, tag string) error {
		token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var m PoseMessage
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				log.Printf("console: %s unmarshal error: %v", tag, err)
				return
			}
			fmt.Println(formatPose(tag, m))
		})
		token.Wait()
		if token.Error() != nil {
			return errors.Wrapf(token.Error(), "subscribe %s", topic)
		}
		log.Printf("console: subscribed to %s", topic)
		return nil
	}

	if err := subscribe(cfg.TopicPoseEstimate, "EST "); err != nil {
		return err
	}
	if err := subscribe(cfg.TopicPoseTruth, "TRUE"); err != nil {
		return err
	}

	<-stop
	log.Println("console: shutting down")
	return nil
}
