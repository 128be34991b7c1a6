package config

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
)

const paramFilename = "param.yaml"

type ServerConfig struct {
	ConfigDir      string
	DebugMode      bool
	SimulationMode bool

	*ServerParam
}

// NewServerConfig reads param.yaml from configDir on top of the embedded defaults.
// A missing folder or file is not an error: the defaults are used as is.
func NewServerConfig(configDir string, debugMode bool, simulationMode bool) (*ServerConfig, error) {
	serverConfig := &ServerConfig{
		ConfigDir:      configDir,
		DebugMode:      debugMode,
		SimulationMode: simulationMode,
	}

	rawConfig, err := os.ReadFile(serverConfig.GetCompleteParamFilename())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("unable to read param file: %w", err)
		}
		logrus.Infof("No param file in %s, using defaults", configDir)
		rawConfig = nil
	}

	serverConfig.ServerParam, err = ParseServerParam(rawConfig)
	if err != nil {
		return nil, err
	}

	return serverConfig, nil
}

// ParseServerParam overlays rawConfig on the default parameters and validates the result.
func ParseServerParam(rawConfig []byte) (*ServerParam, error) {
	serverParam := &ServerParam{}

	err := yaml.Unmarshal(ParamDefaultFile, serverParam)
	if err != nil {
		return nil, fmt.Errorf("unable to interpret default param file: %w", err)
	}

	if len(rawConfig) > 0 {
		err = yaml.Unmarshal(rawConfig, serverParam)
		if err != nil {
			return nil, fmt.Errorf("unable to interpret param file: %w", err)
		}
	}

	err = serverParam.Validate()
	if err != nil {
		return nil, err
	}

	return serverParam, nil
}

func (sc *ServerConfig) GetCompleteParamFilename() string {
	return filepath.Join(sc.ConfigDir, paramFilename)
}
