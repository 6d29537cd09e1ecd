package main

import (
	"strings"

	"github.com/Veraticus/frame-labeler/internal/capture"
	"github.com/Veraticus/frame-labeler/internal/classifier"
	"github.com/Veraticus/frame-labeler/internal/common"
	"github.com/Veraticus/frame-labeler/internal/config"
	"github.com/spf13/viper"
)

// envKeyReplacer maps classifier.model_url to LABELER_CLASSIFIER_MODEL_URL.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// loadConfig reads the application configuration from viper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, common.NewUserError("invalid configuration", err)
	}
	return cfg, nil
}

// initClassifier creates the configured classifier.
func initClassifier(cfg *config.Config) (classifier.Classifier, error) {
	cls, err := classifier.New(cfg.Classifier)
	if err != nil {
		return nil, common.NewUserError("failed to create classifier", err)
	}
	return cls, nil
}

// initDevice creates the configured capture device.
func initDevice(cfg *config.Config) (*capture.Device, error) {
	dev, err := capture.New(cfg.Capture)
	if err != nil {
		return nil, common.NewUserError("failed to create capture device", err)
	}
	return dev, nil
}
