package config

import "os"

func IsDebug() bool {
	return os.Getenv("CARESAGE_DEBUG") == "1"
}
