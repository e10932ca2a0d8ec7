package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

// Policy selects how winners enter the raffle: "pool" draws from a fixed
// participant roster, "adhoc" creates participants as winners are recorded.
type Policy string

const (
	PolicyPool  Policy = "pool"
	PolicyAdhoc Policy = "adhoc"
)

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("RAFFLE_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("RAFFLE_DEBUG") == "true"
}

func GetPolicy() Policy {
	switch Policy(os.Getenv("RAFFLE_POLICY")) {
	case PolicyAdhoc:
		return PolicyAdhoc
	default:
		return PolicyPool
	}
}

func GetListen() string {
	return os.Getenv("RAFFLE_LISTEN")
}

func GetPort() int {
	port := os.Getenv("RAFFLE_PORT")
	if port == "" {
		return 3000
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 3000
	}
	return n
}

func GetBasePath() string {
	basePath := os.Getenv("RAFFLE_BASE_PATH")
	if basePath == "" {
		return "/"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath
}

// GetAllowedOrigins returns the origins permitted to open a realtime
// connection. Empty means every origin is accepted.
func GetAllowedOrigins() []string {
	raw := os.Getenv("RAFFLE_ALLOWED_ORIGINS")
	if raw == "" {
		return nil
	}
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func GetCertFile() string {
	return os.Getenv("RAFFLE_CERT_FILE")
}

func GetKeyFile() string {
	return os.Getenv("RAFFLE_KEY_FILE")
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("RAFFLE_DB_FOLDER")
	if dbFolderPath == "" {
		return "db"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}
