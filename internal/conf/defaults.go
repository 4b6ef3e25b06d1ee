// defaults.go default values for viper configuration
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for the viper configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main settings
	viper.SetDefault("main.name", "MelonGuard-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "melonguard.log")
	viper.SetDefault("main.log.maxsize", 10)
	viper.SetDefault("main.log.maxage", 30)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.json", false)

	// Detector settings
	viper.SetDefault("detector.modelpath", "model/melon_leaf.tflite")
	viper.SetDefault("detector.labelpath", "model/labels.txt")
	viper.SetDefault("detector.threshold", 0.5)
	viper.SetDefault("detector.inputsize", 640)
	viper.SetDefault("detector.iou", 0.45)

	// Image store settings
	viper.SetDefault("imagestore.path", "images")

	// Web server settings
	viper.SetDefault("webserver.address", "0.0.0.0")
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)

	// Security settings
	viper.SetDefault("security.sessionsecret", "")
	viper.SetDefault("security.sessionduration", 7*24*time.Hour)
	viper.SetDefault("security.redirecttohttps", false)

	// Output settings
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "melonguard.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "melonguard")
	viper.SetDefault("output.mysql.password", "melonguard")
	viper.SetDefault("output.mysql.database", "melonguard")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
