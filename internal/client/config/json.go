package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/wardrive/internal/flagx"
	"github.com/dmitrijs2005/wardrive/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "10s"
// or as integer nanoseconds. After parsing, non-zero values are copied into
// the runtime Config.
type JsonConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	User           string `json:"user"`
	KeyFile        string `json:"key_file"`
	Password       string `json:"password"`
	KnownHostsFile string `json:"known_hosts_file"`

	ServiceName     string `json:"service_name"`
	RemoteDir       string `json:"remote_dir"`
	LocalDir        string `json:"local_dir"`
	OverlayDir      string `json:"overlay_dir"`
	ArtifactPattern string `json:"artifact_pattern"`

	APIURL   string `json:"api_url"`
	APIName  string `json:"api_name"`
	APIToken string `json:"api_token"`

	ConnectTimeout    timex.Duration `json:"connect_timeout"`
	CommandTimeout    timex.Duration `json:"command_timeout"`
	UploadConcurrency int            `json:"upload_concurrency"`
	RetryMax          int            `json:"retry_max"`
	RetryBase         timex.Duration `json:"retry_base"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// parseJson overlays Config with values loaded from a JSON file selected via
// the -c or -config flags. Absent file path means no JSON is loaded. Fields
// left out of the JSON keep their previous (default) values. Panics on read
// or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JSONConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.Host, jc.Host)
	setInt(&cfg.Port, jc.Port)
	setString(&cfg.User, jc.User)
	setString(&cfg.KeyFile, jc.KeyFile)
	setString(&cfg.Password, jc.Password)
	setString(&cfg.KnownHostsFile, jc.KnownHostsFile)

	setString(&cfg.ServiceName, jc.ServiceName)
	setString(&cfg.RemoteDir, jc.RemoteDir)
	setString(&cfg.LocalDir, jc.LocalDir)
	setString(&cfg.OverlayDir, jc.OverlayDir)
	setString(&cfg.ArtifactPattern, jc.ArtifactPattern)

	setString(&cfg.APIURL, jc.APIURL)
	setString(&cfg.APIName, jc.APIName)
	setString(&cfg.APIToken, jc.APIToken)

	setDuration(&cfg.ConnectTimeout, jc.ConnectTimeout)
	setDuration(&cfg.CommandTimeout, jc.CommandTimeout)
	setInt(&cfg.UploadConcurrency, jc.UploadConcurrency)
	setInt(&cfg.RetryMax, jc.RetryMax)
	setDuration(&cfg.RetryBase, jc.RetryBase)

	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = time.Duration(v.Duration)
	}
}
