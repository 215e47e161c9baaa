package config

import (
	"os"

	"github.com/go-yaml/yaml"

	"github.com/veilshelf/veilshelf"
)

type Config struct {
	NodeInfo NodeInfo `yaml:"nodeInfo"`
	Server   Server   `yaml:"server"`
}

type NodeInfo struct {
	FQDN           string `yaml:"fqdn"`
	PrivateKey     string `yaml:"privatekey"`
	ContextID      string `yaml:"contextId"`
	OracleID       string `yaml:"oracleId"`
	OracleEndpoint string `yaml:"oracleEndpoint"`

	// ---
	NodeID string
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	nodeID, err := veilshelf.PrivKeyToAddr(config.NodeInfo.PrivateKey, veilshelf.PrefixSubject)
	if err != nil {
		panic(err)
	}

	config.NodeInfo.NodeID = nodeID

	return config, nil
}
